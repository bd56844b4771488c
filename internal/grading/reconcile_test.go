package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	ai := func(v float64) *float64 { return &v }

	cases := []struct {
		name  string
		ai    *float64
		human float64
		want  float64
	}{
		{name: "no ai score defers to human", ai: nil, human: 70, want: 70},
		{name: "close scores average", ai: ai(80), human: 65, want: 72.5},
		{name: "large disagreement defers to human", ai: ai(90), human: 60, want: 60},
		{name: "within threshold averages", ai: ai(72), human: 68, want: 70},
		{name: "exactly at threshold defers to human", ai: ai(80), human: 70, want: 70},
		{name: "human above ai averages", ai: ai(60), human: 65, want: 62.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Reconcile(tc.ai, tc.human, DefaultDisagreementThreshold))
		})
	}
}

func TestReconcileDeterministic(t *testing.T) {
	score := 81.5
	first := Reconcile(&score, 78, DefaultDisagreementThreshold)
	second := Reconcile(&score, 78, DefaultDisagreementThreshold)
	require.Equal(t, first, second)
}

func TestReconcileCustomThreshold(t *testing.T) {
	score := 80.0
	// Gap of 5 defers to human once the threshold is tightened to 5.
	require.Equal(t, 75.0, Reconcile(&score, 75, 5))
	require.Equal(t, 77.5, Reconcile(&score, 75, DefaultDisagreementThreshold))
}

func TestReconcileInvalidThresholdFallsBack(t *testing.T) {
	score := 72.0
	require.Equal(t, 70.0, Reconcile(&score, 68, 0))
}
