package srs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultParams(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	assert.Equal(t, DefaultWeights(), params.Weights)
	assert.Equal(t, 1, params.AgainReviewMinutes)
	assert.Equal(t, 10, params.LearningReviewMinutes)
	assert.NoError(t, params.Validate())
}

func TestDefaultWeightsIsACopy(t *testing.T) {
	t.Parallel()

	w := DefaultWeights()
	w[0] = 99

	assert.Equal(t, 0.4, DefaultWeights()[0])
}

func TestNewParams(t *testing.T) {
	t.Parallel()

	t.Run("zero config keeps defaults", func(t *testing.T) {
		t.Parallel()
		params, err := NewParams(ParamsConfig{})
		require.NoError(t, err)
		assert.Equal(t, NewDefaultParams(), params)
	})

	t.Run("overrides minutes", func(t *testing.T) {
		t.Parallel()
		params, err := NewParams(ParamsConfig{AgainReviewMinutes: 2, LearningReviewMinutes: 15})
		require.NoError(t, err)
		assert.Equal(t, 2, params.AgainReviewMinutes)
		assert.Equal(t, 15, params.LearningReviewMinutes)
	})

	t.Run("wrong weight count", func(t *testing.T) {
		t.Parallel()
		_, err := NewParams(ParamsConfig{Weights: []float64{1, 2, 3}})
		assert.ErrorIs(t, err, ErrInvalidParams)
	})
}

func TestWeightsValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		mutate func(w *Weights)
	}{
		{"NaN", func(w *Weights) { w[3] = math.NaN() }},
		{"infinite", func(w *Weights) { w[8] = math.Inf(1) }},
		{"zero initial stability", func(w *Weights) { w[1] = 0 }},
		{"W4 out of range", func(w *Weights) { w[4] = 12 }},
		{"W7 out of range", func(w *Weights) { w[7] = -0.1 }},
		{"negative W10", func(w *Weights) { w[10] = -1 }},
		{"zero hard penalty", func(w *Weights) { w[11] = 0 }},
		{"negative easy bonus", func(w *Weights) { w[12] = -2 }},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			w := DefaultWeights()
			tc.mutate(&w)
			assert.ErrorIs(t, w.Validate(), ErrInvalidParams)
		})
	}
}

func TestParamsValidateMinutes(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	params.AgainReviewMinutes = 0

	assert.ErrorIs(t, params.Validate(), ErrInvalidParams)
}
