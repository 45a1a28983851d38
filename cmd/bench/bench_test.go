package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep(t *testing.T) {
	tests := []struct {
		name string
		lens []int
		want [][]int
	}{
		{"mixed", []int{2, 1, 2}, [][]int{{0, 0, 0}, {0, 0, 1}, {1, 0, 0}, {1, 0, 1}}},
		{"single", []int{3}, [][]int{{0}, {1}, {2}}},
		{"empty axis", []int{2, 0, 3}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got [][]int
			sweep(tt.lens, func(idx []int) {
				got = append(got, append([]int(nil), idx...))
			})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRowTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, rowTemplate().Execute(&buf, &Experiment{Dim: 20, R: 0.5, Samples: 10, Trace: 1, Succeeded: true}))
	assert.Equal(t, "20, 0.5, 0, 0, 10, 1, 0, 0, 0, 0, 0, 0, true\n", buf.String())
	assert.Equal(t, len(columns), strings.Count(buf.String(), ",")+1)
}

func TestBench(t *testing.T) {
	grid := []float64{-4, -3, -2, -1, 0, 1, 2, 3, 4}
	exp := &Experiment{Dim: 15, R: 0.3, NBar: 0.2, Alpha: 0.5, Samples: 100}
	require.NoError(t, bench(exp, grid))
	assert.True(t, exp.Succeeded)
	assert.InDelta(t, 1, exp.Trace, 1e-4)
	assert.Less(t, exp.Leakage, 1e-3)
	assert.Greater(t, exp.Acceptance, 0.0)
}
