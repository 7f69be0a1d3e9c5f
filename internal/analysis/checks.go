package analysis

// NonDecreasing reports whether xs never decreases. When it does, i is the
// first index with xs[i] < xs[i-1].
func NonDecreasing(xs []float64) (ok bool, i int) {
	for i = 1; i < len(xs); i++ {
		if !(xs[i] >= xs[i-1]) {
			return false, i
		}
	}
	return true, -1
}

// StrictlyIncreasing reports whether xs[from:] strictly increases.
func StrictlyIncreasing(xs []float64, from int) (ok bool, i int) {
	if from < 0 {
		from = 0
	}
	for i = from + 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return false, i
		}
	}
	return true, -1
}
