/*

Rncrp fits the recursive nonstationary Chinese restaurant process
mixture model to a sequence of observations using sequential
variational inference.

The basic usage looks like this:

	rncrp fit observations.csv

, this will fit the model with unit arrival times and default
hyperparameters and print a JSON summary.

A hyperparameter sweep on synthetic data:

	rncrp sweep --alpha 0.5 --alpha 2 --sigmasq 1 --dynamics step --csv results.csv

To see all the options run:

	rncrp -h

*/
package main

import (
	"encoding/json"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"

	"golang.org/x/exp/rand"

	bolt "go.etcd.io/bbolt"

	"github.com/mrrlab/rncrp/checkpoint"
	"github.com/mrrlab/rncrp/metrics"
	"github.com/mrrlab/rncrp/model"
	"github.com/mrrlab/rncrp/sweep"
	"github.com/mrrlab/rncrp/synthetic"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = gitbranch + " " + githash + " " + buildstamp

// Logger settings.
var log = logging.MustGetLogger("rncrp")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("rncrp", "recursive nonstationary CRP mixture model fitting").Version(version)

	// technical
	nThreads   = app.Flag("nt", "number of threads to use").Int()
	seed       = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()
	cpuProfile = app.Flag("cpuprofile", "write cpu profile to file").String()

	// input/output
	outLogF  = app.Flag("log", "write log to a file").String()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()

	// fit command
	fitCmd       = app.Command("fit", "fit the model to observations from a CSV file")
	dataFileName = fitCmd.Arg("observations", "headerless CSV, one observation per row").Required().ExistingFile()
	timesF       = fitCmd.Flag("times", "single-column CSV of arrival times (unit spacing by default)").ExistingFile()
	alpha        = fitCmd.Flag("alpha", "concentration parameter").Default("1").Float64()
	beta         = fitCmd.Flag("beta", "secondary concentration parameter (must be 0)").Default("0").Float64()
	dynamics     = fitCmd.Flag("dynamics", "dynamics family (step, exp or hyperbolic)").Default("step").String()
	dynGain      = fitCmd.Flag("dyngain", "dynamics gain parameter a").Default("1").Float64()
	dynRate      = fitCmd.Flag("dynrate", "dynamics decay rate parameter b").Default("0").Float64()
	sigmaSq      = fitCmd.Flag("sigmasq", "isotropic observation variance").Default("1").Float64()
	passes       = fitCmd.Flag("passes", "coordinate-ascent passes per observation").Default("3").Int()
	checkpointF  = fitCmd.Flag("checkpoint", "checkpoint file (bolt database)").String()
	cSeconds     = fitCmd.Flag("cseconds", "checkpoint period in seconds").Default("30").Float64()

	// sweep command
	sweepCmd    = app.Command("sweep", "run a hyperparameter sweep on synthetic data")
	swNumObs    = sweepCmd.Flag("nobs", "number of synthetic observations").Default("200").Int()
	swObsDim    = sweepCmd.Flag("dim", "observation dimension").Default("2").Int()
	swGenAlpha  = sweepCmd.Flag("genalpha", "generative concentration").Default("1.5").Float64()
	swGenDyn    = sweepCmd.Flag("gendynamics", "generative dynamics family").Default("step").String()
	swMeanCov   = sweepCmd.Flag("meancov", "centroid prior covariance prefactor").Default("25").Float64()
	swNoiseCov  = sweepCmd.Flag("noisecov", "observation noise covariance prefactor").Default("1").Float64()
	swGammaA    = sweepCmd.Flag("gammashape", "gamma shape of arrival gaps (0 for unit spacing)").Default("0").Float64()
	swGammaB    = sweepCmd.Flag("gammarate", "gamma rate of arrival gaps").Default("1").Float64()
	swAlphas    = sweepCmd.Flag("alpha", "concentration values to sweep (repeatable)").Default("1").Float64List()
	swSigmaSqs  = sweepCmd.Flag("sigmasq", "observation variances to sweep (repeatable)").Default("1").Float64List()
	swDynamics  = sweepCmd.Flag("dynamics", "dynamics families to sweep (repeatable)").Default("step").Strings()
	swDynGain   = sweepCmd.Flag("dyngain", "dynamics gain parameter a").Default("1").Float64()
	swDynRate   = sweepCmd.Flag("dynrate", "dynamics decay rate parameter b").Default("0").Float64()
	swRepeats   = sweepCmd.Flag("repeats", "fits per grid point").Default("1").Int()
	swCSVF      = sweepCmd.Flag("csv", "write finished runs to a CSV file").String()
)

func runFit() *FitSummary {
	startTime := time.Now()

	observations, err := readObservations(*dataFileName)
	if err != nil {
		log.Fatal(err)
	}
	numObs, obsDim := observations.Dims()
	log.Infof("Read %d observations of dimension %d", numObs, obsDim)

	times := synthetic.UnitTimes(numObs)
	if *timesF != "" {
		times, err = readTimes(*timesF, numObs)
		if err != nil {
			log.Fatal(err)
		}
	}

	cfg := &model.Config{
		Mixing: model.MixingParams{
			Alpha:          *alpha,
			Beta:           *beta,
			Dynamics:       *dynamics,
			DynamicsParams: map[string]float64{"a": *dynGain, "b": *dynRate},
		},
		Likelihood: model.LikelihoodParams{
			Distribution: model.MultivariateNormal,
			CovPrefactor: *sigmaSq,
		},
	}
	m, err := model.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := m.SetNumCoordAscentSteps(*passes); err != nil {
		log.Fatal(err)
	}

	if *checkpointF != "" {
		db, err := bolt.Open(*checkpointF, 0666, nil)
		if err != nil {
			log.Fatal("Error opening checkpoint file:", err)
		}
		defer db.Close()
		cpio := checkpoint.NewCheckpointIO(db, []byte("fit"), *cSeconds)
		if _, err := cpio.Last(); err != nil {
			log.Warning("Error reading existing checkpoint:", err)
		}
		m.SetCheckpointIO(cpio)
	}

	res, err := m.Fit(observations, times)
	if err != nil {
		log.Fatal(err)
	}

	assignments := metrics.MAPAssignments(res.AssignmentPosteriors)
	byObs := metrics.NumInferredClustersByObs(assignments)
	centroids, err := m.CentroidsAfterLastObs()
	if err != nil {
		log.Fatal(err)
	}
	rows, _ := centroids.Dims()
	centroidRows := make([][]float64, rows)
	for i := range centroidRows {
		centroidRows[i] = make([]float64, obsDim)
		for j := 0; j < obsDim; j++ {
			centroidRows[i][j] = centroids.At(i, j)
		}
	}

	meanK := 0.0
	for k := 0; k < numObs; k++ {
		meanK += float64(k+1) * res.NumClustersPosteriors.At(numObs-1, k)
	}
	log.Noticef("Inferred %d clusters (posterior mean %.3f)", byObs[numObs-1], meanK)

	return &FitSummary{
		NumObs:          numObs,
		ObsDim:          obsDim,
		MeanNumClusters: meanK,
		NumMAPClusters:  byObs[numObs-1],
		Centroids:       centroidRows,
		Assignments:     assignments,
		Time:            time.Since(startTime).Seconds(),
	}
}

func runSweep() []sweep.Record {
	p := &synthetic.Params{
		Alpha:                      *swGenAlpha,
		Dynamics:                   *swGenDyn,
		DynamicsParams:             map[string]float64{"a": *swDynGain, "b": *swDynRate},
		CentroidsPriorCovPrefactor: *swMeanCov,
		LikelihoodCovPrefactor:     *swNoiseCov,
	}
	src := rand.NewSource(uint64(*seed))
	times := synthetic.UnitTimes(*swNumObs)
	if *swGammaA > 0 {
		times = synthetic.GammaTimes(*swNumObs, *swGammaA, *swGammaB, src)
	}
	ds, err := synthetic.SampleMixture(*swNumObs, *swObsDim, p, times, src)
	if err != nil {
		log.Fatal(err)
	}
	trueK := metrics.NumInferredClustersByObs(ds.Assignments)
	log.Infof("Sampled %d observations from %d clusters", *swNumObs, trueK[len(trueK)-1])

	g := &sweep.Grid{
		Alphas:         *swAlphas,
		SigmaSqs:       *swSigmaSqs,
		Dynamics:       *swDynamics,
		DynamicsParams: map[string]float64{"a": *swDynGain, "b": *swDynRate},
		Repeats:        *swRepeats,
	}
	records := sweep.Run(ds, g.Points())

	if *swCSVF != "" {
		f, err := os.Create(*swCSVF)
		if err != nil {
			log.Error("Error creating csv output file:", err)
		} else {
			if err := sweep.WriteCSV(f, records); err != nil {
				log.Error("Error writing csv output:", err)
			}
			f.Close()
		}
	}
	return records
}

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	logging.SetLevel(level, "rncrp")
	logging.SetLevel(level, "model")
	logging.SetLevel(level, "sweep")
	logging.SetLevel(level, "checkpoint")

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)

	runtime.GOMAXPROCS(*nThreads)

	effectiveNThreads := runtime.GOMAXPROCS(0)
	log.Infof("Using threads: %d.\n", effectiveNThreads)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	startTime := time.Now()
	summary := &CallSummary{
		Version:     version,
		CommandLine: os.Args,
		Seed:        *seed,
		NThreads:    effectiveNThreads,
	}

	switch cmd {
	case fitCmd.FullCommand():
		summary.Fit = runFit()
	case sweepCmd.FullCommand():
		summary.Sweep = runSweep()
	}
	summary.TotalTime = time.Since(startTime).Seconds()

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}
