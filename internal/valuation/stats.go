package valuation

import (
	"fmt"
	"math"
	"sort"
)

func sortedCopy(input []float64) []float64 {
	sorted := make([]float64, len(input))
	copy(sorted, input)
	sort.Float64s(sorted)
	return sorted
}

// Mean returns the arithmetic mean of input.
func Mean(input []float64) (float64, error) {
	if len(input) == 0 {
		return math.NaN(), fmt.Errorf("valuation: mean of empty input")
	}
	sum := 0.0
	for _, n := range input {
		sum += n
	}
	return sum / float64(len(input)), nil
}

// Median returns the median of input.
func Median(input []float64) (float64, error) {
	c := sortedCopy(input)
	l := len(c)
	if l == 0 {
		return math.NaN(), fmt.Errorf("valuation: median of empty input")
	}
	if l%2 == 0 {
		return Mean(c[l/2-1 : l/2+1])
	}
	return c[l/2], nil
}

// Percentile returns the pth percentile (0..1) of input using linear
// interpolation for fractional ranks, the same method the Exchange
// Parser uses for its reference price.
func Percentile(input []float64, p float64) (float64, error) {
	c := sortedCopy(input)
	if len(c) == 0 {
		return math.NaN(), fmt.Errorf("valuation: percentile of empty input")
	}
	if len(c) == 1 {
		return c[0], nil
	}
	rank := p * float64(len(c)-1)
	lo := int(rank)
	frac := rank - float64(lo)
	if lo+1 >= len(c) {
		return c[lo], nil
	}
	return c[lo]*(1-frac) + c[lo+1]*frac, nil
}
