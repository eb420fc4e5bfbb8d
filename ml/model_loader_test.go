package ml

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	bundledModel  = "../artifacts/heart_disease_model.json"
	bundledScaler = "../artifacts/scaler.json"
)

func writeArtifact(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadBundledArtifacts(t *testing.T) {
	ic := LoadInferenceContext(ArtifactPaths{Model: bundledModel, Scaler: bundledScaler}, zap.NewNop())
	require.True(t, ic.Available(), "load error: %v", ic.Err())

	prediction, err := ic.Predict(context.Background(), scenarioRecord(t))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, prediction.Probabilities[0]+prediction.Probabilities[1], 1e-6)
	assert.Equal(t, LabelHealthy, prediction.Label)
}

func TestLoadMinMaxScaler(t *testing.T) {
	path := writeArtifact(t, "scaler.json", `{
		"kind": "minmax",
		"columns": ["age", "trestbps", "chol", "thalach", "oldpeak"],
		"min": [20, 90, 120, 70, 0],
		"max": [80, 200, 570, 205, 6.2]
	}`)
	scaler, err := LoadScaler(path)
	require.NoError(t, err)

	out, err := scaler.Transform([NumericWidth]float64{80, 90, 120, 70, 0})
	require.NoError(t, err)
	assert.Equal(t, [NumericWidth]float64{1, 0, 0, 0, 0}, out)
}

func TestLoadDecisionTreeClassifier(t *testing.T) {
	path := writeArtifact(t, "tree.json", `{
		"kind": "decision_tree",
		"columns": ["age", "sex", "cp", "trestbps", "chol", "fbs", "restecg", "thalach", "exang", "oldpeak", "slope", "ca", "thal"],
		"nodes": [
			{"feature_idx": 12, "threshold": 4.5, "left_child": 1, "right_child": 2, "is_leaf": false},
			{"is_leaf": true, "value": [120, 40]},
			{"is_leaf": true, "value": [30, 90]}
		]
	}`)
	classifier, err := LoadClassifier(path)
	require.NoError(t, err)

	var features [RecordWidth]float64
	features[12] = 7
	label, err := classifier.Predict(features)
	require.NoError(t, err)
	assert.Equal(t, LabelDisease, label)

	proba, err := classifier.PredictProba(features)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, proba[1], 1e-12)
}

func TestLoadRejectsInvalidArtifacts(t *testing.T) {
	cases := map[string]struct {
		scaler bool
		body   string
	}{
		"not json":        {scaler: true, body: `{"kind":`},
		"unknown kind":    {scaler: true, body: `{"kind":"robust","columns":["age","trestbps","chol","thalach","oldpeak"]}`},
		"missing scale":   {scaler: true, body: `{"kind":"standard","columns":["age","trestbps","chol","thalach","oldpeak"],"mean":[1,2,3,4,5]}`},
		"zero scale":      {scaler: true, body: `{"kind":"standard","columns":["age","trestbps","chol","thalach","oldpeak"],"mean":[1,2,3,4,5],"scale":[1,1,0,1,1]}`},
		"short mean":      {scaler: true, body: `{"kind":"standard","columns":["age","trestbps","chol","thalach","oldpeak"],"mean":[1,2,3,4],"scale":[1,1,1,1,1]}`},
		"reordered cols":  {scaler: true, body: `{"kind":"standard","columns":["age","chol","trestbps","thalach","oldpeak"],"mean":[1,2,3,4,5],"scale":[1,1,1,1,1]}`},
		"short coef":      {body: `{"kind":"logistic_regression","columns":["age","sex","cp","trestbps","chol","fbs","restecg","thalach","exang","oldpeak","slope","ca","thal"],"coef":[1],"intercept":0}`},
		"missing columns": {body: `{"kind":"logistic_regression","coef":[0,0,0,0,0,0,0,0,0,0,0,0,0],"intercept":0}`},
		"swapped columns": {body: `{"kind":"logistic_regression","columns":["sex","age","cp","trestbps","chol","fbs","restecg","thalach","exang","oldpeak","slope","ca","thal"],"coef":[0,0,0,0,0,0,0,0,0,0,0,0,0],"intercept":0}`},
		"bad tree":        {body: `{"kind":"decision_tree","columns":["age","sex","cp","trestbps","chol","fbs","restecg","thalach","exang","oldpeak","slope","ca","thal"],"nodes":[{"is_leaf":true,"value":[0,0]}]}`},
	}

	for name, tc := range cases {
		path := writeArtifact(t, "artifact.json", tc.body)
		var err error
		if tc.scaler {
			_, err = LoadScaler(path)
		} else {
			_, err = LoadClassifier(path)
		}
		assert.ErrorIs(t, err, ErrInvalidArtifact, name)
	}
}

func TestLoadInferenceContextMissingFile(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]ArtifactPaths{
		"model missing":  {Model: filepath.Join(dir, "nope.json"), Scaler: bundledScaler},
		"scaler missing": {Model: bundledModel, Scaler: filepath.Join(dir, "nope.json")},
		"both missing":   {Model: filepath.Join(dir, "a.json"), Scaler: filepath.Join(dir, "b.json")},
	}
	for name, paths := range cases {
		ic := LoadInferenceContext(paths, nil)
		require.NotNil(t, ic, name)
		assert.False(t, ic.Available(), name)
		assert.ErrorIs(t, ic.Err(), os.ErrNotExist, name)

		for n := 0; n < 2; n++ {
			_, err := ic.Predict(context.Background(), scenarioRecord(t))
			assert.ErrorIs(t, err, ErrPredictionUnavailable, name)
		}
	}
}
