package ml

import (
	"errors"
	"fmt"
)

// ErrUnknownLabel is returned when a label is not part of a closed mapping.
var ErrUnknownLabel = errors.New("unknown category label")

// ErrUnknownCode is returned by the reverse lookup.
var ErrUnknownCode = errors.New("unknown category code")

// Category is one label/code pair.
type Category struct {
	Label string `json:"label"`
	Code  int    `json:"code"`
}

// CategoryMapping is a closed, immutable label<->code table for one
// categorical column.
type CategoryMapping struct {
	field   string
	entries []Category
	byLabel map[string]int
	byCode  map[int]string
}

func newCategoryMapping(field string, entries ...Category) *CategoryMapping {
	m := &CategoryMapping{
		field:   field,
		entries: entries,
		byLabel: make(map[string]int, len(entries)),
		byCode:  make(map[int]string, len(entries)),
	}
	for _, e := range entries {
		if _, dup := m.byLabel[e.Label]; dup {
			panic(fmt.Sprintf("ml: duplicate label %q in %s mapping", e.Label, field))
		}
		if _, dup := m.byCode[e.Code]; dup {
			panic(fmt.Sprintf("ml: duplicate code %d in %s mapping", e.Code, field))
		}
		m.byLabel[e.Label] = e.Code
		m.byCode[e.Code] = e.Label
	}
	return m
}

// Field returns the record column this mapping encodes.
func (m *CategoryMapping) Field() string { return m.field }

// Code returns the training-time code for label.
func (m *CategoryMapping) Code(label string) (int, error) {
	code, ok := m.byLabel[label]
	if !ok {
		return 0, fmt.Errorf("%w: %s=%q", ErrUnknownLabel, m.field, label)
	}
	return code, nil
}

// MustCode is Code for labels taken from the mapping itself.
func (m *CategoryMapping) MustCode(label string) int {
	code, err := m.Code(label)
	if err != nil {
		panic(err)
	}
	return code
}

// Label is the reverse lookup of Code.
func (m *CategoryMapping) Label(code int) (string, error) {
	label, ok := m.byCode[code]
	if !ok {
		return "", fmt.Errorf("%w: %s=%d", ErrUnknownCode, m.field, code)
	}
	return label, nil
}

// Labels returns the labels in display order.
func (m *CategoryMapping) Labels() []string {
	labels := make([]string, len(m.entries))
	for i, e := range m.entries {
		labels[i] = e.Label
	}
	return labels
}

// Entries returns a copy of the pairs in display order.
func (m *CategoryMapping) Entries() []Category {
	return append([]Category(nil), m.entries...)
}

var (
	SexMapping = newCategoryMapping("sex",
		Category{"Male", 1},
		Category{"Female", 0},
	)
	ChestPainMapping = newCategoryMapping("cp",
		Category{"Typical Angina", 1},
		Category{"Atypical Angina", 2},
		Category{"Non-anginal Pain", 3},
		Category{"Asymptomatic", 4},
	)
	FastingBloodSugarMapping = newCategoryMapping("fbs",
		Category{"Yes", 1},
		Category{"No", 0},
	)
	RestingECGMapping = newCategoryMapping("restecg",
		Category{"Normal", 0},
		Category{"ST-T abnormality", 1},
		Category{"Left-ventricular hypertrophy", 2},
	)
	ExerciseAnginaMapping = newCategoryMapping("exang",
		Category{"Yes", 1},
		Category{"No", 0},
	)
	SlopeMapping = newCategoryMapping("slope",
		Category{"Upsloping", 1},
		Category{"Flat", 2},
		Category{"Downsloping", 3},
	)
	// thal codes are not contiguous; they match the training data.
	ThalMapping = newCategoryMapping("thal",
		Category{"Normal", 3},
		Category{"Fixed Defect", 6},
		Category{"Reversable Defect", 7},
	)
)

// CategoryMappings lists every categorical mapping in column order.
func CategoryMappings() []*CategoryMapping {
	return []*CategoryMapping{
		SexMapping,
		ChestPainMapping,
		FastingBloodSugarMapping,
		RestingECGMapping,
		ExerciseAnginaMapping,
		SlopeMapping,
		ThalMapping,
	}
}
