package form

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/text/unicode/norm"

	"heartrisk/ml"
)

// ErrOutOfRange is returned for a value no widget could have produced.
var ErrOutOfRange = errors.New("value outside widget range")

// Input is one submitted form. Numeric fields carry slider values;
// categorical fields carry the option label shown to the user.
type Input struct {
	Age      *float64 `json:"age"`
	Sex      *string  `json:"sex"`
	CP       *string  `json:"cp"`
	Trestbps *float64 `json:"trestbps"`
	Chol     *float64 `json:"chol"`
	FBS      *string  `json:"fbs"`
	Restecg  *string  `json:"restecg"`
	Thalach  *float64 `json:"thalach"`
	Exang    *string  `json:"exang"`
	Oldpeak  *float64 `json:"oldpeak"`
	Slope    *string  `json:"slope"`
	CA       *int     `json:"ca"`
	Thal     *string  `json:"thal"`
}

// DefaultInput returns the values the widgets start at.
func DefaultInput() Input {
	num := func(name string) *float64 {
		v := sliderFor(name).Default
		return &v
	}
	opt := func(name string) *string {
		v := mappingFor(name).Labels()[0]
		return &v
	}
	ca := int(sliderFor("ca").Default)
	return Input{
		Age:      num("age"),
		Sex:      opt("sex"),
		CP:       opt("cp"),
		Trestbps: num("trestbps"),
		Chol:     num("chol"),
		FBS:      opt("fbs"),
		Restecg:  opt("restecg"),
		Thalach:  num("thalach"),
		Exang:    opt("exang"),
		Oldpeak:  num("oldpeak"),
		Slope:    opt("slope"),
		CA:       &ca,
		Thal:     opt("thal"),
	}
}

type decoder struct {
	errs []error
}

func (d *decoder) number(name string, v *float64) *float64 {
	if v == nil {
		return nil
	}
	if err := checkSlider(sliderFor(name), *v); err != nil {
		d.errs = append(d.errs, err)
	}
	return v
}

func (d *decoder) label(name string, v *string) *int {
	if v == nil {
		return nil
	}
	code, err := mappingFor(name).Code(norm.NFKC.String(*v))
	if err != nil {
		d.errs = append(d.errs, err)
		return nil
	}
	return &code
}

func (d *decoder) count(name string, v *int) *int {
	if v == nil {
		return nil
	}
	if err := checkSlider(sliderFor(name), float64(*v)); err != nil {
		d.errs = append(d.errs, err)
	}
	return v
}

// Encode maps labels to codes, checks slider bounds and assembles the
// record. Unknown labels, out-of-range values and missing fields all abort
// the encoding.
func Encode(in Input) (ml.PatientRecord, error) {
	d := &decoder{}
	inputs := ml.FeatureInputs{
		Age:      d.number("age", in.Age),
		Sex:      d.label("sex", in.Sex),
		CP:       d.label("cp", in.CP),
		Trestbps: d.number("trestbps", in.Trestbps),
		Chol:     d.number("chol", in.Chol),
		FBS:      d.label("fbs", in.FBS),
		Restecg:  d.label("restecg", in.Restecg),
		Thalach:  d.number("thalach", in.Thalach),
		Exang:    d.label("exang", in.Exang),
		Oldpeak:  d.number("oldpeak", in.Oldpeak),
		Slope:    d.label("slope", in.Slope),
		CA:       d.count("ca", in.CA),
		Thal:     d.label("thal", in.Thal),
	}
	if len(d.errs) > 0 {
		return ml.PatientRecord{}, errors.Join(d.errs...)
	}
	return ml.NewPatientRecord(inputs)
}

func checkSlider(s Slider, v float64) error {
	if math.IsNaN(v) || v < s.Min || v > s.Max {
		return fmt.Errorf("%w: %s=%v not in [%v, %v]", ErrOutOfRange, s.Name, v, s.Min, s.Max)
	}
	steps := (v - s.Min) / s.Step
	if math.Abs(steps-math.Round(steps)) > 1e-6 {
		return fmt.Errorf("%w: %s=%v is not a multiple of %v", ErrOutOfRange, s.Name, v, s.Step)
	}
	return nil
}
