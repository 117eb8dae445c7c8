package main

import "github.com/mrrlab/rncrp/sweep"

// CallSummary stores information common to all rncrp invocations.
type CallSummary struct {
	// Version stores rncrp version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Seed is the seed used for random number generation initialization.
	Seed int64 `json:"seed"`
	// NThreads is the number of processes used.
	NThreads int `json:"nThreads"`
	// TotalTime is the computations time in seconds.
	TotalTime float64 `json:"time"`
	// Fit is the fit summary (fit command only).
	Fit *FitSummary `json:"fit,omitempty"`
	// Sweep holds per-run records (sweep command only).
	Sweep []sweep.Record `json:"sweep,omitempty"`
}

// FitSummary is storing the result of a single fit.
type FitSummary struct {
	// NumObs is the number of observations.
	NumObs int `json:"numObs"`
	// ObsDim is the observation dimension.
	ObsDim int `json:"obsDim"`
	// MeanNumClusters is the posterior mean number of clusters after
	// the last observation.
	MeanNumClusters float64 `json:"meanNumClusters"`
	// NumMAPClusters is the number of distinct MAP assignments.
	NumMAPClusters int `json:"numMAPClusters"`
	// Centroids are the active cluster means, one per row.
	Centroids [][]float64 `json:"centroids"`
	// Assignments are the MAP cluster labels per observation.
	Assignments []int `json:"assignments"`
	// Time is the fit time in seconds.
	Time float64 `json:"fitTime"`
}
