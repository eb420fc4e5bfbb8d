package form

import (
	"context"
	"fmt"
	"strconv"

	"heartrisk/ml"
)

const (
	DiagnosisDisease = "heart disease"
	DiagnosisHealthy = "healthy"

	// UnavailableMessage is shown instead of any prediction UI when the
	// artifacts failed to load.
	UnavailableMessage = "Prediction unavailable: the model or scaler could not be loaded."
)

// InputEcho is one row of the submitted-values table.
type InputEcho struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
}

// Result is what every front-end renders after a prediction. It always
// carries both the class and its probability.
type Result struct {
	Label              int         `json:"label"`
	Diagnosis          string      `json:"diagnosis"`
	Message            string      `json:"message"`
	Probability        float64     `json:"probability"`
	ProbabilityPercent string      `json:"probability_percent"`
	Probabilities      [2]float64  `json:"probabilities"`
	Inputs             []InputEcho `json:"inputs"`
}

func NewResult(prediction ml.Prediction, record ml.PatientRecord) Result {
	result := Result{
		Label:              prediction.Label,
		Probability:        prediction.Probability(),
		ProbabilityPercent: FormatPercent(prediction.Probability()),
		Probabilities:      prediction.Probabilities,
		Inputs:             Echo(record),
	}
	if prediction.HasDisease() {
		result.Diagnosis = DiagnosisDisease
		result.Message = "Patient is predicted to HAVE heart disease"
	} else {
		result.Diagnosis = DiagnosisHealthy
		result.Message = "Patient is predicted HEALTHY (no heart disease)"
	}
	return result
}

// FormatPercent renders a probability with two decimals, e.g. "87.25%".
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}

// Echo lists the encoded record next to the value the user picked.
func Echo(record ml.PatientRecord) []InputEcho {
	fields := record.Fields()
	rows := make([]InputEcho, len(fields))
	for i, f := range fields {
		display := strconv.FormatFloat(f.Value, 'f', -1, 64)
		if m := mappingFor(f.Name); m != nil {
			if label, err := m.Label(int(f.Value)); err == nil {
				display = label
			}
		}
		rows[i] = InputEcho{Feature: f.Name, Value: f.Value, Display: display}
	}
	return rows
}

// Evaluate runs one form submission through encoding and inference.
func Evaluate(ctx context.Context, ic *ml.InferenceContext, in Input) (Result, error) {
	if !ic.Available() {
		return Result{}, fmt.Errorf("%w: %v", ml.ErrPredictionUnavailable, ic.Err())
	}
	record, err := Encode(in)
	if err != nil {
		return Result{}, err
	}
	prediction, err := ic.Predict(ctx, record)
	if err != nil {
		return Result{}, err
	}
	return NewResult(prediction, record), nil
}
