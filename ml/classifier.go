package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// LogisticRegression is a fitted binary logistic model over the full
// 13-column record.
type LogisticRegression struct {
	coef      []float64
	intercept float64
}

func NewLogisticRegression(coef [RecordWidth]float64, intercept float64) (*LogisticRegression, error) {
	for i, c := range coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("coefficient for %s is not finite", Columns[i])
		}
	}
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return nil, fmt.Errorf("intercept is not finite")
	}
	return &LogisticRegression{
		coef:      append([]float64(nil), coef[:]...),
		intercept: intercept,
	}, nil
}

// DecisionFunction returns the raw logit.
func (m *LogisticRegression) DecisionFunction(features [RecordWidth]float64) float64 {
	return floats.Dot(m.coef, features[:]) + m.intercept
}

func (m *LogisticRegression) PredictProba(features [RecordWidth]float64) ([2]float64, error) {
	z := m.DecisionFunction(features)
	if math.IsNaN(z) {
		return [2]float64{}, fmt.Errorf("decision function is NaN")
	}
	p1 := sigmoid(z)
	return [2]float64{1 - p1, p1}, nil
}

func (m *LogisticRegression) Predict(features [RecordWidth]float64) (int, error) {
	proba, err := m.PredictProba(features)
	if err != nil {
		return 0, err
	}
	return labelFromProba(proba), nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
