// Package outlier implements the iterative Smirnov-Grubbs test used to
// flag extreme measurement values within a homogeneous group.
package outlier

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultAlpha is the significance level used when none is given.
const DefaultAlpha = 0.01

// minSampleSize is the smallest working sample the test runs on.
const minSampleSize = 5

// Grubbs flags outliers in sample by the two-sided Smirnov-Grubbs test at
// significance level alpha. Missing values (NaN) are excluded from the
// working sample and never flagged. The test repeats, removing the most
// extreme value each round, until no value exceeds the critical ratio,
// fewer than five values remain, or the sample variance is zero. The
// returned mask is aligned with the original sample.
func Grubbs(sample []float64, alpha float64) []bool {
	if alpha <= 0 {
		alpha = DefaultAlpha
	}

	mask := make([]bool, len(sample))
	xs := make([]float64, 0, len(sample))
	for _, v := range sample {
		if !math.IsNaN(v) {
			xs = append(xs, v)
		}
	}

	for {
		n := len(xs)
		if n < minSampleSize {
			break
		}

		// Two-sided critical value at alpha/n with n-2 degrees of
		// freedom, converted to the Grubbs critical ratio.
		dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
		t := dist.Quantile(1 - alpha/float64(n)/2)
		tau := float64(n-1) * t / math.Sqrt(float64(n*(n-2))+float64(n)*t*t)

		mean, sd := meanStd(xs)
		if sd == 0 {
			break
		}

		far := mostExtreme(xs, mean)
		if math.Abs(far-mean)/sd < tau {
			break
		}

		for i, v := range sample {
			if v == far {
				mask[i] = true
			}
		}
		xs = removeValue(xs, far)
	}

	return mask
}

// meanStd returns the sample mean and standard deviation (n-1 denominator).
func meanStd(xs []float64) (mean, sd float64) {
	n := float64(len(xs))
	for _, v := range xs {
		mean += v
	}
	mean /= n

	if len(xs) < 2 {
		return mean, 0
	}
	var ss float64
	for _, v := range xs {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / (n - 1))
}

// mostExtreme returns the value with the largest absolute deviation from
// the mean, preferring the minimum on ties.
func mostExtreme(xs []float64, mean float64) float64 {
	min, max := xs[0], xs[0]
	for _, v := range xs[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if math.Abs(max-mean) > math.Abs(min-mean) {
		return max
	}
	return min
}

func removeValue(xs []float64, v float64) []float64 {
	out := xs[:0]
	for _, x := range xs {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
