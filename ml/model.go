package ml

// NumericTransformer is the fitted scaler applied to the numeric subset.
type NumericTransformer interface {
	Transform(values [NumericWidth]float64) ([NumericWidth]float64, error)
}

// BinaryClassifier is the fitted disease classifier. PredictProba returns
// [P(class=0), P(class=1)].
type BinaryClassifier interface {
	Predict(features [RecordWidth]float64) (int, error)
	PredictProba(features [RecordWidth]float64) ([2]float64, error)
}

const (
	LabelHealthy = 0
	LabelDisease = 1
)

// labelFromProba is the decision rule shared by the bundled classifiers.
func labelFromProba(proba [2]float64) int {
	if proba[1] >= proba[0] {
		return LabelDisease
	}
	return LabelHealthy
}
