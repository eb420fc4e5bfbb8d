package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatp(v float64) *float64 { return &v }
func intp(v int) *int { return &v }

func scenarioInputs() FeatureInputs {
	return FeatureInputs{
		Age:      floatp(50),
		Sex:      intp(SexMapping.MustCode("Male")),
		CP:       intp(ChestPainMapping.MustCode("Typical Angina")),
		Trestbps: floatp(120),
		Chol:     floatp(240),
		FBS:      intp(FastingBloodSugarMapping.MustCode("No")),
		Restecg:  intp(RestingECGMapping.MustCode("Normal")),
		Thalach:  floatp(150),
		Exang:    intp(ExerciseAnginaMapping.MustCode("No")),
		Oldpeak:  floatp(1.0),
		Slope:    intp(SlopeMapping.MustCode("Upsloping")),
		CA:       intp(0),
		Thal:     intp(ThalMapping.MustCode("Normal")),
	}
}

func TestNewPatientRecordEncodesScenario(t *testing.T) {
	record, err := NewPatientRecord(scenarioInputs())
	require.NoError(t, err)

	assert.Equal(t,
		[RecordWidth]float64{50, 1, 1, 120, 240, 0, 0, 150, 0, 1.0, 1, 0, 3},
		record.Vector(),
	)
}

func TestFieldsFollowColumnOrder(t *testing.T) {
	record, err := NewPatientRecord(scenarioInputs())
	require.NoError(t, err)

	fields := record.Fields()
	require.Len(t, fields, RecordWidth)

	seen := map[string]int{}
	for idx, field := range fields {
		assert.Equal(t, Columns[idx], field.Name)
		seen[field.Name]++
	}
	for _, name := range []string{"age", "sex", "cp", "trestbps", "chol", "fbs", "restecg", "thalach", "exang", "oldpeak", "slope", "ca", "thal"} {
		assert.Equal(t, 1, seen[name], name)
	}
}

func TestNewPatientRecordFailsOnMissingField(t *testing.T) {
	in := scenarioInputs()
	in.Chol = nil
	in.Thal = nil

	_, err := NewPatientRecord(in)
	require.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "chol")
	assert.Contains(t, err.Error(), "thal")

	_, err = NewPatientRecord(FeatureInputs{})
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestRecordFromVectorRoundTrip(t *testing.T) {
	v := [RecordWidth]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}
	assert.Equal(t, v, RecordFromVector(v).Vector())
}

func TestNumericSubset(t *testing.T) {
	record, err := NewPatientRecord(scenarioInputs())
	require.NoError(t, err)

	assert.Equal(t, [NumericWidth]float64{50, 120, 240, 150, 1.0}, record.NumericSubset())

	for i, idx := range numericIndex {
		assert.Equal(t, NumericColumns[i], Columns[idx])
	}

	replaced := record.WithNumericSubset([NumericWidth]float64{-1, -2, -3, -4, -5})
	assert.Equal(t,
		[RecordWidth]float64{-1, 1, 1, -2, -3, 0, 0, -4, 0, -5, 1, 0, 3},
		replaced.Vector(),
	)
	// original untouched
	assert.Equal(t, 50.0, record.Age)
}
