package testutil

import (
	"errors"
	"testing"
)

func TestAssertNoError(t *testing.T) {
	t.Parallel()
	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	t.Parallel()
	AssertError(t, errors.New("test error"))
}

func TestAssertInDelta(t *testing.T) {
	t.Parallel()
	AssertInDelta(t, 1.0001, 1.0, 0.001)
	AssertInDelta(t, -3.0, -3.0, 0)
}

func TestAssertSlicesInDelta(t *testing.T) {
	t.Parallel()
	AssertSlicesInDelta(t, []float64{1, 2, 3}, []float64{1.0005, 2, 2.9995}, 0.001)
	AssertSlicesInDelta(t, nil, nil, 0)
}
