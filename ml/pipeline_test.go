package ml

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingClassifier remembers the last feature vector it saw.
type recordingClassifier struct {
	seen  [RecordWidth]float64
	calls int
	label int
	proba [2]float64
	err   error
}

func (c *recordingClassifier) Predict(features [RecordWidth]float64) (int, error) {
	c.seen = features
	c.calls++
	return c.label, c.err
}

func (c *recordingClassifier) PredictProba(features [RecordWidth]float64) ([2]float64, error) {
	c.seen = features
	return c.proba, c.err
}

type offsetTransformer struct{ offset float64 }

func (o offsetTransformer) Transform(values [NumericWidth]float64) ([NumericWidth]float64, error) {
	var out [NumericWidth]float64
	for i, v := range values {
		out[i] = v + o.offset*float64(i+1)
	}
	return out, nil
}

type failingTransformer struct{}

func (failingTransformer) Transform([NumericWidth]float64) ([NumericWidth]float64, error) {
	return [NumericWidth]float64{}, errors.New("boom")
}

func scenarioRecord(t *testing.T) PatientRecord {
	t.Helper()
	record, err := NewPatientRecord(scenarioInputs())
	require.NoError(t, err)
	return record
}

func TestScaleRecordTouchesOnlyNumericSubset(t *testing.T) {
	record := scenarioRecord(t)
	before := record.Vector()

	scaled, err := ScaleRecord(record, offsetTransformer{offset: 1000})
	require.NoError(t, err)
	after := scaled.Vector()

	scaledPositions := map[int]bool{}
	for _, idx := range numericIndex {
		scaledPositions[idx] = true
	}
	for idx := range before {
		if scaledPositions[idx] {
			assert.NotEqual(t, before[idx], after[idx], Columns[idx])
			continue
		}
		assert.Equal(t, math.Float64bits(before[idx]), math.Float64bits(after[idx]), Columns[idx])
	}
	// sub-order is age, trestbps, chol, thalach, oldpeak
	assert.Equal(t, 50.0+1000, scaled.Age)
	assert.Equal(t, 120.0+2000, scaled.Trestbps)
	assert.Equal(t, 240.0+3000, scaled.Chol)
	assert.Equal(t, 150.0+4000, scaled.Thalach)
	assert.Equal(t, 1.0+5000, scaled.Oldpeak)
}

func TestPredictPassesScaledRecordToClassifier(t *testing.T) {
	classifier := &recordingClassifier{label: 1, proba: [2]float64{0.3, 0.7}}
	ic := NewInferenceContext(offsetTransformer{offset: 1}, classifier)

	prediction, err := ic.Predict(context.Background(), scenarioRecord(t))
	require.NoError(t, err)

	assert.Equal(t, [RecordWidth]float64{51, 1, 1, 122, 243, 0, 0, 154, 0, 6, 1, 0, 3}, classifier.seen)
	assert.Equal(t, 1, prediction.Label)
	assert.True(t, prediction.HasDisease())
	assert.InDelta(t, 0.7, prediction.Probability(), 1e-12)
}

func TestPredictProbabilityOfPredictedClass(t *testing.T) {
	classifier := &recordingClassifier{label: 0, proba: [2]float64{0.8, 0.2}}
	ic := NewInferenceContext(offsetTransformer{}, classifier)

	prediction, err := ic.Predict(context.Background(), scenarioRecord(t))
	require.NoError(t, err)
	assert.False(t, prediction.HasDisease())
	assert.InDelta(t, 0.8, prediction.Probability(), 1e-12)
}

func TestPredictRejectsInconsistentClassifier(t *testing.T) {
	cases := map[string]*recordingClassifier{
		"label disagrees": {label: 0, proba: [2]float64{0.4, 0.6}},
		"bad sum":         {label: 1, proba: [2]float64{0.4, 0.7}},
		"negative":        {label: 1, proba: [2]float64{-0.1, 1.1}},
		"bad label":       {label: 2, proba: [2]float64{0.5, 0.5}},
	}
	for name, classifier := range cases {
		ic := NewInferenceContext(offsetTransformer{}, classifier)
		_, err := ic.Predict(context.Background(), scenarioRecord(t))
		assert.ErrorIs(t, err, ErrInconsistentOutput, name)
	}
}

func TestPredictSurfacesArtifactErrors(t *testing.T) {
	ic := NewInferenceContext(failingTransformer{}, &recordingClassifier{})
	_, err := ic.Predict(context.Background(), scenarioRecord(t))
	assert.ErrorContains(t, err, "boom")

	failing := &recordingClassifier{err: errors.New("broken model")}
	ic = NewInferenceContext(offsetTransformer{}, failing)
	_, err = ic.Predict(context.Background(), scenarioRecord(t))
	assert.ErrorContains(t, err, "broken model")
}

func TestUnavailableContextNeverCallsArtifacts(t *testing.T) {
	ic := UnavailableContext(errors.New("scaler file missing"))
	require.False(t, ic.Available())

	for n := 0; n < 3; n++ {
		_, err := ic.Predict(context.Background(), scenarioRecord(t))
		require.ErrorIs(t, err, ErrPredictionUnavailable)
		assert.ErrorContains(t, err, "scaler file missing")
	}

	var nilContext *InferenceContext
	_, err := nilContext.Predict(context.Background(), scenarioRecord(t))
	assert.ErrorIs(t, err, ErrPredictionUnavailable)

	classifier := &recordingClassifier{}
	ic = NewInferenceContext(nil, classifier)
	_, err = ic.Predict(context.Background(), scenarioRecord(t))
	assert.ErrorIs(t, err, ErrPredictionUnavailable)
	assert.Zero(t, classifier.calls)
}

func TestPredictHonoursCancelledContext(t *testing.T) {
	classifier := &recordingClassifier{label: 1, proba: [2]float64{0, 1}}
	ic := NewInferenceContext(offsetTransformer{}, classifier)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ic.Predict(ctx, scenarioRecord(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, classifier.calls)
}

func TestLogisticPipelineProperties(t *testing.T) {
	scaler, err := NewStandardScaler(
		[NumericWidth]float64{54.4, 131.7, 246.7, 149.6, 1.04},
		[NumericWidth]float64{9.0, 17.6, 51.8, 22.9, 1.16},
	)
	require.NoError(t, err)
	model, err := NewLogisticRegression(
		[RecordWidth]float64{0.05, 1.2, 0.6, 0.25, 0.15, -0.3, 0.25, -0.45, 0.8, 0.5, 0.5, 1.1, 0.35},
		-6.5,
	)
	require.NoError(t, err)
	ic := NewInferenceContext(scaler, model)

	records := []PatientRecord{
		scenarioRecord(t),
		RecordFromVector([RecordWidth]float64{67, 1, 4, 160, 286, 0, 2, 108, 1, 1.5, 2, 3, 3}),
		RecordFromVector([RecordWidth]float64{41, 0, 2, 130, 204, 0, 2, 172, 0, 1.4, 1, 0, 3}),
		RecordFromVector([RecordWidth]float64{80, 1, 4, 200, 570, 1, 2, 70, 1, 6.2, 3, 3, 7}),
	}
	for _, record := range records {
		first, err := ic.Predict(context.Background(), record)
		require.NoError(t, err)

		assert.InDelta(t, 1.0, first.Probabilities[0]+first.Probabilities[1], 1e-6)
		assert.Equal(t, first.Label == 1, first.Probabilities[1] >= first.Probabilities[0])

		second, err := ic.Predict(context.Background(), record)
		require.NoError(t, err)
		assert.Equal(t, first.Label, second.Label)
		assert.Equal(t, math.Float64bits(first.Probabilities[0]), math.Float64bits(second.Probabilities[0]))
		assert.Equal(t, math.Float64bits(first.Probabilities[1]), math.Float64bits(second.Probabilities[1]))
	}
}

func TestLogisticBoundaryPredictsDisease(t *testing.T) {
	model, err := NewLogisticRegression([RecordWidth]float64{}, 0)
	require.NoError(t, err)

	proba, err := model.PredictProba([RecordWidth]float64{})
	require.NoError(t, err)
	assert.Equal(t, [2]float64{0.5, 0.5}, proba)

	label, err := model.Predict([RecordWidth]float64{})
	require.NoError(t, err)
	assert.Equal(t, LabelDisease, label)
}
