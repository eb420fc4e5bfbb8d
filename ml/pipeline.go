package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrPredictionUnavailable is returned by every prediction on a context
	// whose artifacts failed to load.
	ErrPredictionUnavailable = errors.New("prediction unavailable")
	// ErrInconsistentOutput reports a classifier whose probabilities are
	// malformed or disagree with its label.
	ErrInconsistentOutput = errors.New("inconsistent classifier output")
)

// ProbabilityTolerance bounds |P0 + P1 - 1|.
const ProbabilityTolerance = 1e-6

// Prediction is the outcome of one inference.
type Prediction struct {
	Label         int        `json:"label"`
	Probabilities [2]float64 `json:"probabilities"`
}

// Probability returns the probability of the predicted class.
func (p Prediction) Probability() float64 {
	return p.Probabilities[p.Label]
}

// HasDisease reports whether the positive class was predicted.
func (p Prediction) HasDisease() bool {
	return p.Label == LabelDisease
}

// InferenceContext holds the two loaded artifacts, or the reason they are
// absent. It is immutable after construction and safe for concurrent use.
type InferenceContext struct {
	transformer NumericTransformer
	classifier  BinaryClassifier
	loadErr     error
}

// NewInferenceContext builds an available context from loaded artifacts.
func NewInferenceContext(transformer NumericTransformer, classifier BinaryClassifier) *InferenceContext {
	if transformer == nil || classifier == nil {
		return UnavailableContext(errors.New("artifact not provided"))
	}
	return &InferenceContext{transformer: transformer, classifier: classifier}
}

// UnavailableContext builds a context that refuses every prediction.
func UnavailableContext(cause error) *InferenceContext {
	if cause == nil {
		cause = errors.New("artifacts not loaded")
	}
	return &InferenceContext{loadErr: cause}
}

// Available reports whether both artifacts loaded.
func (c *InferenceContext) Available() bool {
	return c != nil && c.loadErr == nil
}

// Err returns the load failure, or nil when the context is available.
func (c *InferenceContext) Err() error {
	if c == nil {
		return ErrPredictionUnavailable
	}
	return c.loadErr
}

// ScaleRecord applies transformer to the numeric subset of record and
// returns the scaled copy.
func ScaleRecord(record PatientRecord, transformer NumericTransformer) (PatientRecord, error) {
	scaled, err := transformer.Transform(record.NumericSubset())
	if err != nil {
		return PatientRecord{}, fmt.Errorf("scale: %w", err)
	}
	return record.WithNumericSubset(scaled), nil
}

// Predict scales record and runs the classifier on it.
func (c *InferenceContext) Predict(ctx context.Context, record PatientRecord) (Prediction, error) {
	if !c.Available() {
		return Prediction{}, fmt.Errorf("%w: %v", ErrPredictionUnavailable, c.Err())
	}
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}

	scaled, err := ScaleRecord(record, c.transformer)
	if err != nil {
		return Prediction{}, err
	}
	features := scaled.Vector()

	label, err := c.classifier.Predict(features)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}
	proba, err := c.classifier.PredictProba(features)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict proba: %w", err)
	}
	if err := checkOutput(label, proba); err != nil {
		return Prediction{}, err
	}
	return Prediction{Label: label, Probabilities: proba}, nil
}

func checkOutput(label int, proba [2]float64) error {
	if label != LabelHealthy && label != LabelDisease {
		return fmt.Errorf("%w: label %d", ErrInconsistentOutput, label)
	}
	for _, p := range proba {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("%w: probability %v outside [0,1]", ErrInconsistentOutput, p)
		}
	}
	if math.Abs(proba[0]+proba[1]-1) > ProbabilityTolerance {
		return fmt.Errorf("%w: probabilities %v do not sum to 1", ErrInconsistentOutput, proba)
	}
	if (label == LabelDisease) != (proba[1] >= proba[0]) {
		return fmt.Errorf("%w: label %d disagrees with probabilities %v", ErrInconsistentOutput, label, proba)
	}
	return nil
}
