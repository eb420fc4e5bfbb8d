// Package form describes the input widgets offered to users and converts
// submitted values into encoded patient records.
package form

import "heartrisk/ml"

// Slider is a numeric input with a fixed range.
type Slider struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Step    float64 `json:"step"`
}

// Select is a dropdown over one closed category mapping.
type Select struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Options []string `json:"options"`
	Default string   `json:"default"`

	mapping *ml.CategoryMapping
}

// Catalogue is the full widget set, in record column order.
type Catalogue struct {
	Sliders []Slider `json:"sliders"`
	Selects []Select `json:"selects"`
	Order   []string `json:"order"`
}

var sliders = []Slider{
	{Name: "age", Label: "Age", Min: 20, Max: 80, Default: 50, Step: 1},
	{Name: "trestbps", Label: "Resting Blood Pressure (mm Hg)", Min: 90, Max: 200, Default: 120, Step: 1},
	{Name: "chol", Label: "Serum Cholesterol (mg/dl)", Min: 120, Max: 570, Default: 240, Step: 1},
	{Name: "thalach", Label: "Maximum Heart Rate", Min: 70, Max: 205, Default: 150, Step: 1},
	{Name: "oldpeak", Label: "Exercise-Induced ST Depression", Min: 0, Max: 6.2, Default: 1.0, Step: 0.1},
	{Name: "ca", Label: "Major Vessels Colored by Fluoroscopy", Min: 0, Max: 3, Default: 0, Step: 1},
}

var selects = []Select{
	newSelect("Sex", ml.SexMapping),
	newSelect("Chest Pain Type", ml.ChestPainMapping),
	newSelect("Fasting Blood Sugar > 120 mg/dl", ml.FastingBloodSugarMapping),
	newSelect("Resting Electrocardiogram", ml.RestingECGMapping),
	newSelect("Exercise-Induced Angina", ml.ExerciseAnginaMapping),
	newSelect("Slope of Peak Exercise ST Segment", ml.SlopeMapping),
	newSelect("Thalassemia", ml.ThalMapping),
}

func newSelect(label string, mapping *ml.CategoryMapping) Select {
	options := mapping.Labels()
	return Select{
		Name:    mapping.Field(),
		Label:   label,
		Options: options,
		Default: options[0],
		mapping: mapping,
	}
}

// Widgets returns a copy of the catalogue.
func Widgets() Catalogue {
	c := Catalogue{
		Sliders: append([]Slider(nil), sliders...),
		Selects: make([]Select, len(selects)),
		Order:   append([]string(nil), ml.Columns[:]...),
	}
	for i, s := range selects {
		s.Options = append([]string(nil), s.Options...)
		c.Selects[i] = s
	}
	return c
}

func sliderFor(name string) Slider {
	for _, s := range sliders {
		if s.Name == name {
			return s
		}
	}
	panic("form: no slider named " + name)
}

func mappingFor(name string) *ml.CategoryMapping {
	for _, s := range selects {
		if s.Name == name {
			return s.mapping
		}
	}
	return nil
}
