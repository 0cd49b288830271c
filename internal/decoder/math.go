package decoder

import "math"

// logZero is the additive identity of the log domain.
var logZero = math.Inf(-1)

// logSumExp returns log(exp(a)+exp(b)) without leaving the log domain.
// Accumulating alignment mass this way avoids underflow over long sequences.
func logSumExp(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	if a < b {
		a, b = b, a
	}
	return a + math.Log1p(math.Exp(b-a))
}

// safeLog maps non-positive probabilities to logZero instead of NaN.
func safeLog(p float64) float64 {
	if p <= 0 {
		return logZero
	}
	return math.Log(p)
}
