package srs

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func reviewedCard(state State, stability, difficulty float64, lastReview time.Time) Card {
	lr := lastReview
	days := 0
	if state == Review {
		days = intervalDays(stability)
	}
	return Card{
		Stability:     stability,
		Difficulty:    difficulty,
		ScheduledDays: days,
		Reps:          3,
		State:         state,
		LastReview:    &lr,
	}
}

func TestRetrievability(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, retrievability(0, 5), 1e-12)
	assert.InDelta(t, 0.5, retrievability(45, 5), 1e-12)
	assert.InDelta(t, 0.9, retrievability(1, 1), 1e-12)
	assert.Equal(t, 0.0, retrievability(3, 0))
	assert.Equal(t, 0.0, retrievability(3, -1))
}

func TestInitDifficultyAndStability(t *testing.T) {
	t.Parallel()
	w := DefaultWeights()

	testCases := []struct {
		rating     Rating
		difficulty float64
		stability  float64
	}{
		{Again, 4.93 + 2*0.94, 0.4},
		{Hard, 4.93 + 0.94, 0.6},
		{Good, 4.93, 2.4},
		{Easy, 4.93 - 0.94, 5.8},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.rating.String(), func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tc.difficulty, w.initDifficulty(tc.rating), 1e-9)
			assert.InDelta(t, tc.stability, w.initStability(tc.rating), 1e-9)
		})
	}
}

func TestInitValuesAreBounded(t *testing.T) {
	t.Parallel()
	w := DefaultWeights()
	w[0] = 0.01 // below the stability floor
	w[5] = 5    // pushes difficulty past both bounds

	assert.Equal(t, MinStability, w.initStability(Again))
	assert.Equal(t, MaxDifficulty, w.initDifficulty(Again))
	assert.Equal(t, MinDifficulty, w.initDifficulty(Easy))
}

func TestNextDifficulty(t *testing.T) {
	t.Parallel()
	w := DefaultWeights()

	// 0.01 * 4.93 + 0.99 * (5 + 0.86 * 2)
	assert.InDelta(t, 6.7021, w.nextDifficulty(5, Again), 1e-9)
	// Good does not shift, only mean-reverts.
	assert.InDelta(t, 0.01*4.93+0.99*5, w.nextDifficulty(5, Good), 1e-9)
	assert.Less(t, w.nextDifficulty(5, Easy), w.nextDifficulty(5, Good))
	assert.Equal(t, MaxDifficulty, w.nextDifficulty(MaxDifficulty, Again))
	assert.Equal(t, MinDifficulty, w.nextDifficulty(MinDifficulty, Easy))
}

func TestNextRecallStability(t *testing.T) {
	t.Parallel()
	w := DefaultWeights()

	t.Run("no growth at full retrievability", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 10.0, w.nextRecallStability(5, 10, 1, Good), 1e-9)
	})

	t.Run("matches closed form", func(t *testing.T) {
		t.Parallel()
		d, s, r := 5.0, 10.0, 0.5
		want := s * (1 + math.Exp(w[8])*(11-d)*math.Pow(s, -w[9])*(math.Exp((1-r)*w[10])-1))
		assert.InDelta(t, want, w.nextRecallStability(d, s, r, Good), 1e-9)
	})

	t.Run("hard penalty and easy bonus", func(t *testing.T) {
		t.Parallel()
		good := w.nextRecallStability(5, 10, 0.7, Good)
		hard := w.nextRecallStability(5, 10, 0.7, Hard)
		easy := w.nextRecallStability(5, 10, 0.7, Easy)
		assert.Less(t, hard, good)
		assert.Greater(t, easy, good)
		assert.InDelta(t, (good/10-1)*w[11], hard/10-1, 1e-9)
		assert.InDelta(t, (good/10-1)*w[12], easy/10-1, 1e-9)
	})
}

func TestIntervalDays(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, intervalDays(0.1))
	assert.Equal(t, 1, intervalDays(0.6))
	assert.Equal(t, 2, intervalDays(2.4))
	assert.Equal(t, 3, intervalDays(2.5))
	assert.Equal(t, 6, intervalDays(5.8))
}

func TestElapsedDaysSince(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.5, elapsedDaysSince(testNow.Add(-36*time.Hour), testNow), 1e-12)
	assert.Equal(t, 0.0, elapsedDaysSince(testNow.Add(time.Hour), testNow))
}

func TestCalculateNext_NewCard(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		rating        Rating
		state         State
		scheduledDays int
		due           time.Time
	}{
		{Again, Learning, 0, testNow.Add(time.Minute)},
		{Hard, Review, 1, testNow.AddDate(0, 0, 1)},
		{Good, Review, 2, testNow.AddDate(0, 0, 2)},
		{Easy, Review, 6, testNow.AddDate(0, 0, 6)},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.rating.String(), func(t *testing.T) {
			t.Parallel()
			card := NewCard()

			next, due := calculateNext(card, tc.rating, testNow, params)

			assert.Equal(t, tc.state, next.State)
			assert.Equal(t, tc.scheduledDays, next.ScheduledDays)
			assert.Equal(t, tc.due, due)
			assert.Equal(t, 1, next.Reps)
			assert.Equal(t, 0, next.Lapses)
			assert.Equal(t, 0.0, next.ElapsedDays)
			require.NotNil(t, next.LastReview)
			assert.Equal(t, testNow, *next.LastReview)

			assert.Equal(t, NewCard(), card, "input card must not change")
		})
	}
}

func TestCalculateNext_NewCardGood(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	next, due := calculateNext(NewCard(), Good, testNow, params)

	assert.Equal(t, Review, next.State)
	assert.Equal(t, math.Max(params.Weights[2], 0.1), next.Stability)
	assert.Equal(t, clamp(params.Weights[4], 1, 10), next.Difficulty)
	assert.Equal(t, intervalDays(next.Stability), next.ScheduledDays)
	assert.Equal(t, testNow.AddDate(0, 0, next.ScheduledDays), due)
}

func TestCalculateNext_ReviewLapse(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	card := reviewedCard(Review, 10, 5, testNow.AddDate(0, 0, -10))
	card.Lapses = 2

	next, due := calculateNext(card, Again, testNow, params)

	assert.Equal(t, Relearning, next.State)
	assert.Equal(t, 3, next.Lapses)
	assert.InDelta(t, 2.0, next.Stability, 1e-12)
	assert.InDelta(t, 6.7021, next.Difficulty, 1e-9)
	assert.Equal(t, 0, next.ScheduledDays)
	assert.InDelta(t, 10.0, next.ElapsedDays, 1e-12)
	assert.Equal(t, 4, next.Reps)
	assert.Equal(t, testNow.Add(time.Minute), due)

	assert.Equal(t, 2, card.Lapses, "input card must not change")
	assert.Equal(t, testNow.AddDate(0, 0, -10), *card.LastReview)
}

func TestCalculateNext_ReviewLapseFloor(t *testing.T) {
	t.Parallel()
	card := reviewedCard(Review, 0.3, 5, testNow.AddDate(0, 0, -1))

	next, _ := calculateNext(card, Again, testNow, NewDefaultParams())

	assert.Equal(t, MinStability, next.Stability)
}

func TestCalculateNext_ReviewSuccess(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	w := params.Weights
	card := reviewedCard(Review, 10, 5, testNow.AddDate(0, 0, -10))

	next, due := calculateNext(card, Good, testNow, params)

	r := retrievability(10, 10)
	d := w.nextDifficulty(5, Good)
	s := w.nextRecallStability(d, 10, r, Good)

	assert.Equal(t, Review, next.State)
	assert.InDelta(t, d, next.Difficulty, 1e-12)
	assert.InDelta(t, s, next.Stability, 1e-12)
	assert.Greater(t, next.Stability, card.Stability)
	assert.Equal(t, intervalDays(s), next.ScheduledDays)
	assert.Equal(t, testNow.AddDate(0, 0, next.ScheduledDays), due)
	assert.Equal(t, 0, next.Lapses)
}

func TestCalculateNext_ShortTerm(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	for _, state := range []State{Learning, Relearning} {
		state := state
		t.Run(state.String()+" again stays", func(t *testing.T) {
			t.Parallel()
			card := reviewedCard(state, 0.4, 6, testNow.Add(-time.Minute))

			next, due := calculateNext(card, Again, testNow, params)

			assert.Equal(t, state, next.State)
			assert.InDelta(t, 0.2, next.Stability, 1e-12)
			assert.Equal(t, 6.0, next.Difficulty)
			assert.Equal(t, 0, next.ScheduledDays)
			assert.Equal(t, 0, next.Lapses)
			assert.Equal(t, testNow.Add(time.Minute), due)
		})

		t.Run(state.String()+" again floors stability", func(t *testing.T) {
			t.Parallel()
			card := reviewedCard(state, 0.15, 6, testNow.Add(-time.Minute))

			next, _ := calculateNext(card, Again, testNow, params)

			assert.Equal(t, MinStability, next.Stability)
		})

		t.Run(state.String()+" good graduates", func(t *testing.T) {
			t.Parallel()
			card := reviewedCard(state, 2, 6, testNow.Add(-10*time.Minute))
			card.Lapses = 1

			next, due := calculateNext(card, Good, testNow, params)

			assert.Equal(t, Review, next.State)
			assert.GreaterOrEqual(t, next.ScheduledDays, 1)
			assert.Equal(t, 1, next.Lapses)
			assert.Equal(t, testNow.AddDate(0, 0, next.ScheduledDays), due)
		})
	}
}

func TestCalculateNext_LearningNeverRelearns(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	card := NewCard()

	now := testNow
	for i := 0; i < 5; i++ {
		card, _ = calculateNext(card, Again, now, params)
		assert.Equal(t, Learning, card.State)
		now = now.Add(time.Minute)
	}
	assert.Equal(t, 0, card.Lapses)
}

func TestCalculateNext_SameRatingTwiceAdvancesTwice(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	once, _ := calculateNext(NewCard(), Good, testNow, params)
	twice, _ := calculateNext(once, Good, testNow, params)

	assert.Equal(t, 2, twice.Reps)
	assert.Equal(t, Review, twice.State)
}

func TestCalculateNext_RandomSequencesKeepInvariants(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	rng := rand.New(rand.NewSource(20260314))
	ratings := AllRatings()

	for seq := 0; seq < 200; seq++ {
		card := NewCard()
		now := testNow

		for step := 0; step < 60; step++ {
			rating := ratings[rng.Intn(len(ratings))]
			prevState := card.State
			prevReps := card.Reps
			prevLapses := card.Lapses

			next, due := calculateNext(card, rating, now, params)

			require.Greater(t, next.Stability, 0.0)
			require.GreaterOrEqual(t, next.Stability, MinStability)
			require.GreaterOrEqual(t, next.Difficulty, MinDifficulty)
			require.LessOrEqual(t, next.Difficulty, MaxDifficulty)
			require.Equal(t, prevReps+1, next.Reps)
			require.True(t, prevState.CanTransitionTo(next.State))
			require.NoError(t, next.Validate())

			if prevState == Review && rating == Again {
				require.Equal(t, prevLapses+1, next.Lapses)
				require.Equal(t, Relearning, next.State)
			} else {
				require.Equal(t, prevLapses, next.Lapses)
			}
			if next.State == Review {
				require.Equal(t, now.AddDate(0, 0, next.ScheduledDays), due)
			} else {
				require.True(t, due.Sub(now) <= 10*time.Minute)
			}

			card = next
			// jump to somewhere between the due time and a few days past it
			now = due.Add(time.Duration(rng.Int63n(int64(72 * time.Hour))))
		}
	}
}

func TestAssertCardInvariants(t *testing.T) {
	t.Parallel()
	lr := testNow

	assert.Panics(t, func() {
		assertCardInvariants(Card{State: Review, Stability: 0, Difficulty: 5, ScheduledDays: 1, LastReview: &lr})
	})
	assert.Panics(t, func() {
		assertCardInvariants(Card{State: Review, Stability: 1, Difficulty: 11, ScheduledDays: 1, LastReview: &lr})
	})
	assert.Panics(t, func() {
		assertCardInvariants(Card{State: Learning, Stability: 1, Difficulty: 5, ScheduledDays: 3, LastReview: &lr})
	})
	assert.Panics(t, func() {
		assertCardInvariants(Card{State: Review, Stability: 1, Difficulty: 5, ScheduledDays: 0, LastReview: &lr})
	})
	assert.NotPanics(t, func() {
		assertCardInvariants(Card{State: Review, Stability: 1, Difficulty: 5, ScheduledDays: 1, LastReview: &lr})
	})
}

func TestAssertTransition(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { assertTransition(Learning, Relearning) })
	assert.Panics(t, func() { assertTransition(Review, Learning) })
	assert.Panics(t, func() { assertTransition(Review, New) })
	assert.NotPanics(t, func() { assertTransition(Review, Relearning) })
}
