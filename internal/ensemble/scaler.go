package ensemble

import (
	"gonum.org/v1/gonum/stat"
)

// scaler standardizes columns to zero mean and unit variance.
type scaler struct {
	mean  []float64
	scale []float64
}

func fitScaler(x [][]float64) scaler {
	if len(x) == 0 {
		return scaler{}
	}
	d := len(x[0])
	s := scaler{mean: make([]float64, d), scale: make([]float64, d)}
	col := make([]float64, len(x))
	for j := 0; j < d; j++ {
		for i, row := range x {
			col[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		s.mean[j] = mean
		if std == 0 {
			std = 1
		}
		s.scale[j] = std
	}
	return s
}

func (s scaler) transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.mean[j]) / s.scale[j]
	}
	return out
}

func (s scaler) transformAll(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = s.transform(row)
	}
	return out
}
