// Package testutil provides synthetic probability matrices for tests.
package testutil

// FlattenRows concatenates per-timestep probability rows into the flat
// time-major buffer the decoder consumes.
func FlattenRows(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	out := make([]float64, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}

// UniformMatrix returns timeDim rows where every class has probability
// 1/classDim.
func UniformMatrix(timeDim, classDim int) []float64 {
	out := make([]float64, timeDim*classDim)
	p := 1.0 / float64(classDim)
	for i := range out {
		out[i] = p
	}
	return out
}

// PeakedMatrix returns timeDim rows where the class peaks[t] carries
// probability peak and the remainder is spread evenly over the other
// classes.
func PeakedMatrix(peaks []int, classDim int, peak float64) []float64 {
	rest := (1 - peak) / float64(classDim-1)
	out := make([]float64, len(peaks)*classDim)
	for t, c := range peaks {
		for k := 0; k < classDim; k++ {
			if k == c {
				out[t*classDim+k] = peak
			} else {
				out[t*classDim+k] = rest
			}
		}
	}
	return out
}
