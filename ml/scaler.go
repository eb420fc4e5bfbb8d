package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// StandardScaler standardises each column as (x - mean) / scale.
type StandardScaler struct {
	mean  *mat.VecDense
	scale *mat.VecDense
}

// NewStandardScaler builds a scaler from fitted statistics. Every scale
// must be strictly positive and finite.
func NewStandardScaler(mean, scale [NumericWidth]float64) (*StandardScaler, error) {
	for i, s := range scale {
		if !(s > 0) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("scale for %s must be positive, got %v", NumericColumns[i], s)
		}
		if math.IsNaN(mean[i]) || math.IsInf(mean[i], 0) {
			return nil, fmt.Errorf("mean for %s is not finite", NumericColumns[i])
		}
	}
	return &StandardScaler{
		mean:  mat.NewVecDense(NumericWidth, append([]float64(nil), mean[:]...)),
		scale: mat.NewVecDense(NumericWidth, append([]float64(nil), scale[:]...)),
	}, nil
}

func (s *StandardScaler) Transform(values [NumericWidth]float64) ([NumericWidth]float64, error) {
	x := mat.NewVecDense(NumericWidth, append([]float64(nil), values[:]...))

	var centered, scaled mat.VecDense
	centered.SubVec(x, s.mean)
	scaled.DivElemVec(&centered, s.scale)

	var out [NumericWidth]float64
	for i := range out {
		out[i] = scaled.AtVec(i)
	}
	return out, nil
}

// MinMaxScaler maps each column onto [0, 1] using the fitted range.
type MinMaxScaler struct {
	mins [NumericWidth]float64
	maxs [NumericWidth]float64
}

func NewMinMaxScaler(mins, maxs [NumericWidth]float64) (*MinMaxScaler, error) {
	for i := range mins {
		if maxs[i] < mins[i] {
			return nil, fmt.Errorf("range for %s is inverted: min %v > max %v", NumericColumns[i], mins[i], maxs[i])
		}
	}
	return &MinMaxScaler{mins: mins, maxs: maxs}, nil
}

func (s *MinMaxScaler) Transform(values [NumericWidth]float64) ([NumericWidth]float64, error) {
	normalized, err := NormalizeVector(values[:], s.mins[:], s.maxs[:])
	if err != nil {
		return [NumericWidth]float64{}, err
	}
	var out [NumericWidth]float64
	copy(out[:], normalized)
	return out, nil
}

// NormalizeFeature maps value onto [0, 1] given the fitted range. A
// degenerate range maps to 0.
func NormalizeFeature(value, min, max float64) float64 {
	if max == min {
		return 0
	}
	return (value - min) / (max - min)
}

func NormalizeVector(values []float64, mins []float64, maxs []float64) ([]float64, error) {
	if len(values) != len(mins) || len(values) != len(maxs) {
		return nil, errors.New("values/mins/maxs length mismatch")
	}
	result := make([]float64, len(values))
	for i := range values {
		result[i] = NormalizeFeature(values[i], mins[i], maxs[i])
	}
	return result, nil
}
