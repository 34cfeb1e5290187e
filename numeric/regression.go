package numeric

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Regression is an ordinary least squares fit of y = Intercept + Slope*x.
type Regression struct {
	Intercept   float64
	Slope       float64
	SlopeStdErr float64
	RSquared    float64
	N           int
}

// Regress fits a line through the paired samples. Non-finite samples are
// not filtered and make the fit NaN. x and y must have the same length.
func Regress(x, y []float64) Regression {
	n := len(x)
	r := Regression{
		Intercept:   math.NaN(),
		Slope:       math.NaN(),
		SlopeStdErr: math.NaN(),
		RSquared:    math.NaN(),
		N:           n,
	}
	if n < 2 {
		return r
	}

	r.Intercept, r.Slope = stat.LinearRegression(x, y, nil, false)
	r.RSquared = stat.RSquared(x, y, nil, r.Intercept, r.Slope)

	if n > 2 {
		meanX := stat.Mean(x, nil)
		var sse, sxx float64
		for i := range x {
			residual := y[i] - (r.Intercept + r.Slope*x[i])
			sse += residual * residual
			sxx += (x[i] - meanX) * (x[i] - meanX)
		}
		r.SlopeStdErr = math.Sqrt(sse / float64(n-2) / sxx)
	}
	return r
}

// SlopeConfidenceInterval returns the two-sided confidence interval of the
// slope at the given level (e.g. 0.95), using Student's t with n-2 degrees
// of freedom. Fewer than three samples yield NaN bounds.
func (r Regression) SlopeConfidenceInterval(level float64) (float64, float64) {
	if r.N < 3 {
		return math.NaN(), math.NaN()
	}

	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(r.N - 2)}
	half := t.Quantile(1-(1-level)/2) * r.SlopeStdErr
	return r.Slope - half, r.Slope + half
}
