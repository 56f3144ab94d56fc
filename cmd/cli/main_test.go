package main

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/glizzus/hush/internal/moderation"
)

func TestSimulateMutes(t *testing.T) {
	e := moderation.Escalator{Base: 30 * time.Second, Threshold: time.Minute}

	tc := []struct {
		name string
		gaps []time.Duration
		want []time.Duration
	}{
		{
			name: "single offence",
			want: []time.Duration{30 * time.Second},
		},
		{
			name: "repeat inside the window doubles",
			gaps: []time.Duration{20 * time.Second, 10 * time.Second},
			want: []time.Duration{30 * time.Second, time.Minute, 2 * time.Minute},
		},
		{
			name: "repeat after the window resets",
			gaps: []time.Duration{20 * time.Second, time.Minute},
			want: []time.Duration{30 * time.Second, time.Minute, 30 * time.Second},
		},
	}

	for _, testCase := range tc {
		t.Run(testCase.name, func(t *testing.T) {
			got := simulateMutes(e, testCase.gaps)
			if diff := cmp.Diff(testCase.want, got); diff != "" {
				t.Errorf("simulateMutes() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
