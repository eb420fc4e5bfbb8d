package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"heartrisk/form"
	"heartrisk/ml"
)

type predictOptions struct {
	input  form.Input
	model  string
	scaler string
	json   bool
}

func newPredictCmd() *cobra.Command {
	opts := &predictOptions{input: form.DefaultInput()}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict heart disease for one patient",
		Long: "Predict heart disease for one patient. Every field defaults to the value the\n" +
			"form widget starts at; categorical fields take the option label.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, opts)
		},
	}

	in := &opts.input
	f := cmd.Flags()
	f.Float64Var(in.Age, "age", *in.Age, "Age in years")
	f.StringVar(in.Sex, "sex", *in.Sex, "Sex")
	f.StringVar(in.CP, "cp", *in.CP, "Chest pain type")
	f.Float64Var(in.Trestbps, "trestbps", *in.Trestbps, "Resting blood pressure (mm Hg)")
	f.Float64Var(in.Chol, "chol", *in.Chol, "Serum cholesterol (mg/dl)")
	f.StringVar(in.FBS, "fbs", *in.FBS, "Fasting blood sugar > 120 mg/dl")
	f.StringVar(in.Restecg, "restecg", *in.Restecg, "Resting electrocardiogram")
	f.Float64Var(in.Thalach, "thalach", *in.Thalach, "Maximum heart rate")
	f.StringVar(in.Exang, "exang", *in.Exang, "Exercise-induced angina")
	f.Float64Var(in.Oldpeak, "oldpeak", *in.Oldpeak, "Exercise-induced ST depression")
	f.StringVar(in.Slope, "slope", *in.Slope, "Slope of the peak exercise ST segment")
	f.IntVar(in.CA, "ca", *in.CA, "Major vessels colored by fluoroscopy (0-3)")
	f.StringVar(in.Thal, "thal", *in.Thal, "Thalassemia")

	f.StringVar(&opts.model, "model", "", "Model artifact (overrides artifacts.model_path)")
	f.StringVar(&opts.scaler, "scaler", "", "Scaler artifact (overrides artifacts.scaler_path)")
	f.BoolVar(&opts.json, "json", false, "Print the result as JSON")
	return cmd
}

func runPredict(cmd *cobra.Command, opts *predictOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	paths := ml.ArtifactPaths{Model: cfg.Artifacts.ModelPath, Scaler: cfg.Artifacts.ScalerPath}
	if opts.model != "" {
		paths.Model = opts.model
	}
	if opts.scaler != "" {
		paths.Scaler = opts.scaler
	}

	out := cmd.OutOrStdout()
	inference := ml.LoadInferenceContext(paths, zap.NewNop())
	if !inference.Available() {
		fmt.Fprintln(out, form.UnavailableMessage)
		for _, err := range unwrapAll(inference.Err()) {
			fmt.Fprintln(out, "  -", err)
		}
		return ml.ErrPredictionUnavailable
	}

	result, err := form.Evaluate(cmd.Context(), inference, opts.input)
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return printResult(out, result)
}

func printResult(w io.Writer, result form.Result) error {
	fmt.Fprintln(w, result.Message)
	fmt.Fprintf(w, "Probability: %s\n\n", result.ProbabilityPercent)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FEATURE\tINPUT\tENCODED")
	for _, row := range result.Inputs {
		fmt.Fprintf(tw, "%s\t%s\t%g\n", row.Feature, row.Display, row.Value)
	}
	return tw.Flush()
}

// unwrapAll lists the individual failures behind a joined error.
func unwrapAll(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	if err == nil {
		return nil
	}
	return []error{err}
}
