// Package dynamics provides the cluster-popularity processes of the
// recursive nonstationary CRP. A process is a law describing how
// pseudo-occupancies evolve between observation arrival times; the
// state itself is an explicit value threaded through the caller, so
// the same Process can serve many independent runs.
package dynamics

import (
	"fmt"
	"math"
)

// State holds the pseudo-occupancy vector over cluster slots together
// with the time it is valid for. States are values; every operation
// returns a fresh State and never aliases the input.
type State struct {
	// N is the pseudo-occupancy mass per slot.
	N []float64
	// Time is the time N refers to.
	Time float64
}

// clone returns a copy of the state with capacity for at least n slots.
func (s State) clone(n int) State {
	if n < len(s.N) {
		n = len(s.N)
	}
	ns := State{N: make([]float64, n), Time: s.Time}
	copy(ns.N, s.N)
	return ns
}

// Process is a forecaster/accumulator of cluster popularity.
type Process interface {
	// InitializeState creates the initial state from the first
	// observation's assignment probabilities.
	InitializeState(probs []float64, time float64) State
	// RunDynamics advances the state from timeStart to timeEnd
	// without committing any new assignment.
	RunDynamics(st State, timeStart, timeEnd float64) State
	// UpdateState commits an assignment-probability vector into the
	// occupancies at the given time.
	UpdateState(st State, probs []float64, time float64) State
}

// New returns a dynamics process of the given family. The parameter a
// scales the committed assignment mass (default 1), b is the decay
// rate where the family has one (default 0).
func New(family string, params map[string]float64) (Process, error) {
	a, ok := params["a"]
	if !ok {
		a = 1
	}
	b := params["b"]
	switch family {
	case "step":
		return &step{gain: a}, nil
	case "exp":
		return &exponential{gain: a, rate: b}, nil
	case "hyperbolic":
		return &hyperbolic{gain: a, rate: b}, nil
	}
	return nil, fmt.Errorf("unknown dynamics family: %s", family)
}

// accumulate adds gain-scaled assignment probabilities into the state,
// growing the slot vector if the probabilities cover new slots.
func accumulate(st State, probs []float64, time, gain float64) State {
	ns := st.clone(len(probs))
	for i, p := range probs {
		ns.N[i] += gain * p
	}
	ns.Time = time
	return ns
}

// step keeps occupancies constant between arrivals.
type step struct {
	gain float64
}

func (d *step) InitializeState(probs []float64, time float64) State {
	return accumulate(State{}, probs, time, d.gain)
}

func (d *step) RunDynamics(st State, timeStart, timeEnd float64) State {
	ns := st.clone(0)
	ns.Time = timeEnd
	return ns
}

func (d *step) UpdateState(st State, probs []float64, time float64) State {
	return accumulate(st, probs, time, d.gain)
}

// exponential decays occupancies as exp(-b dt).
type exponential struct {
	gain float64
	rate float64
}

func (d *exponential) InitializeState(probs []float64, time float64) State {
	return accumulate(State{}, probs, time, d.gain)
}

func (d *exponential) RunDynamics(st State, timeStart, timeEnd float64) State {
	ns := st.clone(0)
	f := math.Exp(-d.rate * (timeEnd - timeStart))
	for i := range ns.N {
		ns.N[i] *= f
	}
	ns.Time = timeEnd
	return ns
}

func (d *exponential) UpdateState(st State, probs []float64, time float64) State {
	return accumulate(st, probs, time, d.gain)
}

// hyperbolic decays occupancies as 1/(1+b dt).
type hyperbolic struct {
	gain float64
	rate float64
}

func (d *hyperbolic) InitializeState(probs []float64, time float64) State {
	return accumulate(State{}, probs, time, d.gain)
}

func (d *hyperbolic) RunDynamics(st State, timeStart, timeEnd float64) State {
	ns := st.clone(0)
	f := 1 / (1 + d.rate*(timeEnd-timeStart))
	for i := range ns.N {
		ns.N[i] *= f
	}
	ns.Time = timeEnd
	return ns
}

func (d *hyperbolic) UpdateState(st State, probs []float64, time float64) State {
	return accumulate(st, probs, time, d.gain)
}
