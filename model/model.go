// Package model implements sequential variational inference for the
// recursive nonstationary Chinese restaurant process (RN-CRP) mixture
// model. Observations arrive in time order; for every observation the
// model builds a cluster-assignment prior from a dynamics process,
// runs a fixed number of coordinate-ascent passes over the Gaussian
// variational parameters and the assignment posterior, and updates a
// posterior over the number of clusters used so far.
package model

import (
	"errors"
	"fmt"

	"github.com/op/go-logging"

	"github.com/mrrlab/rncrp/checkpoint"
	"github.com/mrrlab/rncrp/dynamics"
)

// log is the global logging variable.
var log = logging.MustGetLogger("model")

// Supported likelihood distribution names.
const (
	// MultivariateNormal is the isotropic Gaussian likelihood.
	MultivariateNormal = "multivariate_normal"
	// DirichletMultinomial is recognized in configurations but has
	// no implementation; fitting fails immediately.
	DirichletMultinomial = "dirichlet_multinomial"
)

// UpdateSequential is the supported coordinate-ascent ordering:
// Gaussian parameters first, then assignments, every pass using the
// other block's latest values.
const UpdateSequential = "sequential"

// defaultCoordAscentSteps is the number of coordinate-ascent passes
// per observation.
const defaultCoordAscentSteps = 3

// ErrNotImplemented is returned for configuration paths which are
// recognized but have no implementation.
var ErrNotImplemented = errors.New("not implemented")

// MixingParams parametrizes the RN-CRP prior over partitions.
type MixingParams struct {
	// Alpha is the concentration; larger values favor new clusters.
	Alpha float64
	// Beta is the secondary concentration. Only the Beta=0 regime
	// is supported.
	Beta float64
	// Dynamics is the dynamics family name (see package dynamics).
	Dynamics string
	// DynamicsParams holds the family's numeric parameters.
	DynamicsParams map[string]float64
}

// FeaturePriorParams parametrizes the prior over cluster features. It
// is accepted for compatibility with the generative-model
// configuration; inference does not use it.
type FeaturePriorParams struct {
	CentroidsPriorCovPrefactor float64
}

// LikelihoodParams parametrizes the observation likelihood.
type LikelihoodParams struct {
	// Distribution is the likelihood family name.
	Distribution string
	// CovPrefactor is the isotropic observation variance, shared
	// across dimensions and clusters.
	CovPrefactor float64
}

// Config is the generative-model configuration bundle.
type Config struct {
	Mixing       MixingParams
	FeaturePrior FeaturePriorParams
	Likelihood   LikelihoodParams
}

// Model is the RN-CRP inference algorithm. A model is not safe for
// concurrent fits; every Fit call exclusively owns the variational
// store and the dynamics state for its duration.
type Model struct {
	cfg  Config
	proc dynamics.Process

	numCoordAscentSteps int
	updateOrdering      string

	cpio *checkpoint.CheckpointIO

	// retained for post-fit queries
	results *FitResults
}

// New creates a model from a configuration. Unsupported
// configurations are rejected here, before any data is seen.
func New(cfg *Config) (*Model, error) {
	if cfg == nil {
		return nil, errors.New("nil configuration")
	}
	if !(cfg.Mixing.Alpha > 0) {
		return nil, fmt.Errorf("concentration alpha must be positive, got %v", cfg.Mixing.Alpha)
	}
	if cfg.Mixing.Beta != 0 {
		return nil, fmt.Errorf("only the alpha-only regime is supported, beta must be 0, got %v", cfg.Mixing.Beta)
	}
	switch cfg.Likelihood.Distribution {
	case MultivariateNormal:
		if !(cfg.Likelihood.CovPrefactor > 0) {
			return nil, fmt.Errorf("observation variance must be positive, got %v", cfg.Likelihood.CovPrefactor)
		}
	case DirichletMultinomial:
		// recognized; Fit fails before processing any observation
	default:
		return nil, fmt.Errorf("unknown likelihood distribution: %s", cfg.Likelihood.Distribution)
	}
	proc, err := dynamics.New(cfg.Mixing.Dynamics, cfg.Mixing.DynamicsParams)
	if err != nil {
		return nil, err
	}
	return &Model{
		cfg:                 *cfg,
		proc:                proc,
		numCoordAscentSteps: defaultCoordAscentSteps,
		updateOrdering:      UpdateSequential,
	}, nil
}

// SetNumCoordAscentSteps changes the number of coordinate-ascent
// passes per observation.
func (m *Model) SetNumCoordAscentSteps(n int) error {
	if n < 1 {
		return fmt.Errorf("need at least one coordinate-ascent pass, got %d", n)
	}
	m.numCoordAscentSteps = n
	return nil
}

// SetUpdateOrdering changes the coordinate-ascent update ordering.
// "simultaneous" is a recognized value without a consistent
// implementation and is rejected.
func (m *Model) SetUpdateOrdering(ordering string) error {
	switch ordering {
	case UpdateSequential:
		m.updateOrdering = ordering
		return nil
	case "simultaneous":
		return fmt.Errorf("simultaneous coordinate ascent: %w", ErrNotImplemented)
	}
	return fmt.Errorf("unknown coordinate-ascent ordering: %s", ordering)
}

// SetNumericOptimization requests gradient-based coordinate ascent.
// The learning rate must be positive; the path itself has no
// implementation, so a valid request still fails explicitly.
func (m *Model) SetNumericOptimization(learningRate float64) error {
	if !(learningRate > 0) {
		return fmt.Errorf("numeric optimization needs a positive learning rate, got %v", learningRate)
	}
	return fmt.Errorf("numeric coordinate ascent: %w", ErrNotImplemented)
}

// SetCheckpointIO enables periodic fit-progress checkpoints.
func (m *Model) SetCheckpointIO(cpio *checkpoint.CheckpointIO) {
	m.cpio = cpio
}

// newLikelihood returns the likelihood implementation for the
// configured distribution.
func (m *Model) newLikelihood() (likelihood, error) {
	switch m.cfg.Likelihood.Distribution {
	case MultivariateNormal:
		return &mvnLikelihood{sigmaSq: m.cfg.Likelihood.CovPrefactor}, nil
	case DirichletMultinomial:
		return nil, fmt.Errorf("dirichlet-multinomial likelihood: %w", ErrNotImplemented)
	}
	return nil, fmt.Errorf("unknown likelihood distribution: %s", m.cfg.Likelihood.Distribution)
}
