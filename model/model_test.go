package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Mixing: MixingParams{
			Alpha:    1,
			Dynamics: "step",
		},
		Likelihood: LikelihoodParams{
			Distribution: MultivariateNormal,
			CovPrefactor: 1,
		},
	}
}

func TestNewValidConfig(t *testing.T) {
	m, err := New(validConfig())
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestNewRejectsBadAlpha(t *testing.T) {
	cfg := validConfig()
	cfg.Mixing.Alpha = 0
	_, err := New(cfg)
	assert.Error(t, err)

	cfg.Mixing.Alpha = -1
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestNewRejectsNonzeroBeta(t *testing.T) {
	cfg := validConfig()
	cfg.Mixing.Beta = 0.5
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNewRejectsUnknownDistribution(t *testing.T) {
	cfg := validConfig()
	cfg.Likelihood.Distribution = "student_t"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNewRejectsUnknownDynamics(t *testing.T) {
	cfg := validConfig()
	cfg.Mixing.Dynamics = "brownian"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNewRejectsBadVariance(t *testing.T) {
	cfg := validConfig()
	cfg.Likelihood.CovPrefactor = 0
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestUpdateOrdering(t *testing.T) {
	m, err := New(validConfig())
	require.NoError(t, err)

	assert.NoError(t, m.SetUpdateOrdering(UpdateSequential))

	err = m.SetUpdateOrdering("simultaneous")
	assert.ErrorIs(t, err, ErrNotImplemented)

	assert.Error(t, m.SetUpdateOrdering("random"))
}

func TestNumericOptimization(t *testing.T) {
	m, err := New(validConfig())
	require.NoError(t, err)

	err = m.SetNumericOptimization(0)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotImplemented)

	err = m.SetNumericOptimization(0.01)
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestCoordAscentSteps(t *testing.T) {
	m, err := New(validConfig())
	require.NoError(t, err)

	assert.Error(t, m.SetNumCoordAscentSteps(0))
	assert.NoError(t, m.SetNumCoordAscentSteps(5))
}
