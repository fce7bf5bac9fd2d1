// Package testutil provides shared test infrastructure for the simulation packages.
// It consolidates golden-file comparison and assertion helpers used across
// sim/, sim/agent/ and sim/experiment/ test packages.
package testutil

import (
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// AssertGolden compares data against testdata/golden/<name>.golden in the calling
// package's directory. Run the tests with -update to rewrite the fixture.
func AssertGolden(t *testing.T, name string, data []byte) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	if math.IsInf(want, 0) || math.IsInf(got, 0) {
		if want != got {
			t.Errorf("%s: got %v, want %v", name, got, want)
		}
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
