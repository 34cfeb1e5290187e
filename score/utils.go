package score

// ChangeRate is the percentage change from old to new. A zero old value
// yields ±Inf or NaN.
func ChangeRate(new, old float64) float64 {
	return (new - old) / old * 100
}
