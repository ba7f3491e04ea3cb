package harness

import "gonum.org/v1/gonum/stat"

// standardScaler centers columns to zero mean and unit variance. Constant
// columns keep a scale of one so they pass through unchanged.
type standardScaler struct {
	mean  []float64
	scale []float64
}

func fitScaler(features [][]float64) *standardScaler {
	if len(features) == 0 {
		return &standardScaler{}
	}
	cols := len(features[0])
	sc := &standardScaler{
		mean:  make([]float64, cols),
		scale: make([]float64, cols),
	}
	buf := make([]float64, len(features))
	for j := 0; j < cols; j++ {
		for i := range features {
			buf[i] = features[i][j]
		}
		sc.mean[j] = stat.Mean(buf, nil)
		sc.scale[j] = stat.PopStdDev(buf, nil)
		if sc.scale[j] == 0 {
			sc.scale[j] = 1
		}
	}
	return sc
}

func (s *standardScaler) transform(features [][]float64) [][]float64 {
	out := make([][]float64, len(features))
	for i, row := range features {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.mean[j]) / s.scale[j]
		}
		out[i] = scaled
	}
	return out
}
