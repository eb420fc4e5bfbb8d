package ml

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingField is returned when a patient record is assembled without
// one of its 13 inputs.
var ErrMissingField = errors.New("missing record field")

// Columns is the column order the classifier and scaler were fit on.
// Neither artifact carries column names at prediction time, so every
// vector conversion goes through this array.
var Columns = [RecordWidth]string{
	"age",
	"sex",
	"cp",
	"trestbps",
	"chol",
	"fbs",
	"restecg",
	"thalach",
	"exang",
	"oldpeak",
	"slope",
	"ca",
	"thal",
}

// NumericColumns is the subset passed through the scaler, in fit order.
var NumericColumns = [NumericWidth]string{"age", "trestbps", "chol", "thalach", "oldpeak"}

// numericIndex holds the positions of NumericColumns inside Columns.
var numericIndex = [NumericWidth]int{0, 3, 4, 7, 9}

const (
	RecordWidth  = 13
	NumericWidth = 5
)

// PatientRecord is one patient's fully encoded input. Field order matches
// Columns.
type PatientRecord struct {
	Age      float64
	Sex      float64
	CP       float64
	Trestbps float64
	Chol     float64
	FBS      float64
	Restecg  float64
	Thalach  float64
	Exang    float64
	Oldpeak  float64
	Slope    float64
	CA       float64
	Thal     float64
}

// FeatureInputs carries the raw values handed to NewPatientRecord. A nil
// pointer means the caller never supplied the value.
type FeatureInputs struct {
	Age      *float64
	Sex      *int
	CP       *int
	Trestbps *float64
	Chol     *float64
	FBS      *int
	Restecg  *int
	Thalach  *float64
	Exang    *int
	Oldpeak  *float64
	Slope    *int
	CA       *int
	Thal     *int
}

// Field is a named record value.
type Field struct {
	Name  string  `json:"feature"`
	Value float64 `json:"value"`
}

// NewPatientRecord assembles a record from all 13 inputs. It never
// substitutes defaults: any nil input fails the whole assembly.
func NewPatientRecord(in FeatureInputs) (PatientRecord, error) {
	var missing []string
	num := func(name string, v *float64) float64 {
		if v == nil {
			missing = append(missing, name)
			return 0
		}
		return *v
	}
	code := func(name string, v *int) float64 {
		if v == nil {
			missing = append(missing, name)
			return 0
		}
		return float64(*v)
	}

	record := PatientRecord{
		Age:      num("age", in.Age),
		Sex:      code("sex", in.Sex),
		CP:       code("cp", in.CP),
		Trestbps: num("trestbps", in.Trestbps),
		Chol:     num("chol", in.Chol),
		FBS:      code("fbs", in.FBS),
		Restecg:  code("restecg", in.Restecg),
		Thalach:  num("thalach", in.Thalach),
		Exang:    code("exang", in.Exang),
		Oldpeak:  num("oldpeak", in.Oldpeak),
		Slope:    code("slope", in.Slope),
		CA:       code("ca", in.CA),
		Thal:     code("thal", in.Thal),
	}
	if len(missing) > 0 {
		return PatientRecord{}, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return record, nil
}

// Vector returns the record values in Columns order.
func (r PatientRecord) Vector() [RecordWidth]float64 {
	return [RecordWidth]float64{
		r.Age,
		r.Sex,
		r.CP,
		r.Trestbps,
		r.Chol,
		r.FBS,
		r.Restecg,
		r.Thalach,
		r.Exang,
		r.Oldpeak,
		r.Slope,
		r.CA,
		r.Thal,
	}
}

// RecordFromVector is the inverse of Vector.
func RecordFromVector(v [RecordWidth]float64) PatientRecord {
	return PatientRecord{
		Age:      v[0],
		Sex:      v[1],
		CP:       v[2],
		Trestbps: v[3],
		Chol:     v[4],
		FBS:      v[5],
		Restecg:  v[6],
		Thalach:  v[7],
		Exang:    v[8],
		Oldpeak:  v[9],
		Slope:    v[10],
		CA:       v[11],
		Thal:     v[12],
	}
}

// Fields returns the record as name/value pairs in column order.
func (r PatientRecord) Fields() []Field {
	vector := r.Vector()
	fields := make([]Field, RecordWidth)
	for i, name := range Columns {
		fields[i] = Field{Name: name, Value: vector[i]}
	}
	return fields
}

// NumericSubset extracts the scaled columns in NumericColumns order.
func (r PatientRecord) NumericSubset() [NumericWidth]float64 {
	vector := r.Vector()
	var subset [NumericWidth]float64
	for i, idx := range numericIndex {
		subset[i] = vector[idx]
	}
	return subset
}

// WithNumericSubset returns a copy of r with the numeric columns replaced.
// The other 8 columns are carried over untouched.
func (r PatientRecord) WithNumericSubset(subset [NumericWidth]float64) PatientRecord {
	vector := r.Vector()
	for i, idx := range numericIndex {
		vector[idx] = subset[i]
	}
	return RecordFromVector(vector)
}
