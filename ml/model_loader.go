package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
)

// ErrInvalidArtifact wraps every schema, kind or column mismatch found
// while loading an artifact.
var ErrInvalidArtifact = errors.New("invalid artifact")

// ArtifactPaths locates the two serialized artifacts.
type ArtifactPaths struct {
	Model  string
	Scaler string
}

type scalerArtifact struct {
	Kind    string    `json:"kind"`
	Columns []string  `json:"columns"`
	Mean    []float64 `json:"mean"`
	Scale   []float64 `json:"scale"`
	Min     []float64 `json:"min"`
	Max     []float64 `json:"max"`
}

type classifierArtifact struct {
	Kind      string     `json:"kind"`
	Columns   []string   `json:"columns"`
	Coef      []float64  `json:"coef"`
	Intercept float64    `json:"intercept"`
	Nodes     []TreeNode `json:"nodes"`
}

const scalerSchema = `{
  "type": "object",
  "required": ["kind", "columns"],
  "properties": {
    "kind": {"enum": ["standard", "minmax"]},
    "columns": {"type": "array", "items": {"type": "string"}, "minItems": 5, "maxItems": 5}
  },
  "allOf": [
    {
      "if": {"properties": {"kind": {"const": "standard"}}},
      "then": {
        "required": ["mean", "scale"],
        "properties": {
          "mean": {"type": "array", "items": {"type": "number"}, "minItems": 5, "maxItems": 5},
          "scale": {"type": "array", "items": {"type": "number", "exclusiveMinimum": 0}, "minItems": 5, "maxItems": 5}
        }
      }
    },
    {
      "if": {"properties": {"kind": {"const": "minmax"}}},
      "then": {
        "required": ["min", "max"],
        "properties": {
          "min": {"type": "array", "items": {"type": "number"}, "minItems": 5, "maxItems": 5},
          "max": {"type": "array", "items": {"type": "number"}, "minItems": 5, "maxItems": 5}
        }
      }
    }
  ]
}`

const classifierSchema = `{
  "type": "object",
  "required": ["kind", "columns"],
  "properties": {
    "kind": {"enum": ["logistic_regression", "decision_tree"]},
    "columns": {"type": "array", "items": {"type": "string"}, "minItems": 13, "maxItems": 13}
  },
  "allOf": [
    {
      "if": {"properties": {"kind": {"const": "logistic_regression"}}},
      "then": {
        "required": ["coef", "intercept"],
        "properties": {
          "coef": {"type": "array", "items": {"type": "number"}, "minItems": 13, "maxItems": 13},
          "intercept": {"type": "number"}
        }
      }
    },
    {
      "if": {"properties": {"kind": {"const": "decision_tree"}}},
      "then": {
        "required": ["nodes"],
        "properties": {
          "nodes": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["is_leaf"],
              "properties": {
                "feature_idx": {"type": "integer"},
                "threshold": {"type": "number"},
                "left_child": {"type": "integer"},
                "right_child": {"type": "integer"},
                "is_leaf": {"type": "boolean"},
                "value": {"type": "array", "items": {"type": "number", "minimum": 0}, "minItems": 2, "maxItems": 2}
              }
            }
          }
        }
      }
    }
  ]
}`

var (
	schemaOnce     sync.Once
	schemaErr      error
	compiledScaler *jsonschema.Schema
	compiledModel  *jsonschema.Schema
)

func compileSchemas() error {
	schemaOnce.Do(func() {
		compiledScaler, schemaErr = compileSchema("scaler", scalerSchema)
		if schemaErr != nil {
			return
		}
		compiledModel, schemaErr = compileSchema("classifier", classifierSchema)
	})
	return schemaErr
}

func compileSchema(name, definition string) (*jsonschema.Schema, error) {
	var doc any
	if err := json.Unmarshal([]byte(definition), &doc); err != nil {
		return nil, fmt.Errorf("parse %s schema: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add %s schema: %w", name, err)
	}
	return c.Compile(url)
}

// readArtifact reads path, validates it against schema and decodes it into v.
func readArtifact(path string, schema *jsonschema.Schema, v any) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("%w: %s is not valid JSON: %v", ErrInvalidArtifact, path, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, path, err)
	}
	return json.Unmarshal(payload, v)
}

func checkColumns(got []string, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("%w: expected %d columns, got %d", ErrInvalidArtifact, len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("%w: column %d is %q, expected %q", ErrInvalidArtifact, i, got[i], want[i])
		}
	}
	return nil
}

// LoadScaler reads a scaler artifact.
func LoadScaler(path string) (NumericTransformer, error) {
	if err := compileSchemas(); err != nil {
		return nil, err
	}
	var artifact scalerArtifact
	if err := readArtifact(path, compiledScaler, &artifact); err != nil {
		return nil, err
	}
	if err := checkColumns(artifact.Columns, NumericColumns[:]); err != nil {
		return nil, err
	}

	switch artifact.Kind {
	case "standard":
		var mean, scale [NumericWidth]float64
		copy(mean[:], artifact.Mean)
		copy(scale[:], artifact.Scale)
		scaler, err := NewStandardScaler(mean, scale)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		return scaler, nil
	case "minmax":
		var mins, maxs [NumericWidth]float64
		copy(mins[:], artifact.Min)
		copy(maxs[:], artifact.Max)
		scaler, err := NewMinMaxScaler(mins, maxs)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		return scaler, nil
	default:
		return nil, fmt.Errorf("%w: unsupported scaler kind %q", ErrInvalidArtifact, artifact.Kind)
	}
}

// LoadClassifier reads a classifier artifact.
func LoadClassifier(path string) (BinaryClassifier, error) {
	if err := compileSchemas(); err != nil {
		return nil, err
	}
	var artifact classifierArtifact
	if err := readArtifact(path, compiledModel, &artifact); err != nil {
		return nil, err
	}
	if err := checkColumns(artifact.Columns, Columns[:]); err != nil {
		return nil, err
	}

	switch artifact.Kind {
	case "logistic_regression":
		var coef [RecordWidth]float64
		copy(coef[:], artifact.Coef)
		model, err := NewLogisticRegression(coef, artifact.Intercept)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		return model, nil
	case "decision_tree":
		tree, err := NewDecisionTree(artifact.Nodes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		return tree, nil
	default:
		return nil, fmt.Errorf("%w: unsupported model type %q", ErrInvalidArtifact, artifact.Kind)
	}
}

// LoadInferenceContext loads both artifacts once. It never returns nil: a
// failed load yields an unavailable context that reports the cause on
// every prediction.
func LoadInferenceContext(paths ArtifactPaths, logger *zap.Logger) *InferenceContext {
	if logger == nil {
		logger = zap.NewNop()
	}

	var loadErrs []error
	classifier, err := LoadClassifier(paths.Model)
	if err != nil {
		logger.Error("model artifact could not be loaded", zap.String("path", paths.Model), zap.Error(err))
		loadErrs = append(loadErrs, fmt.Errorf("model file %q: %w", paths.Model, err))
	}
	transformer, err := LoadScaler(paths.Scaler)
	if err != nil {
		logger.Error("scaler artifact could not be loaded", zap.String("path", paths.Scaler), zap.Error(err))
		loadErrs = append(loadErrs, fmt.Errorf("scaler file %q: %w", paths.Scaler, err))
	}
	if len(loadErrs) > 0 {
		return &InferenceContext{loadErr: errors.Join(loadErrs...)}
	}

	logger.Info("artifacts loaded",
		zap.String("model", paths.Model),
		zap.String("scaler", paths.Scaler),
	)
	return NewInferenceContext(transformer, classifier)
}
