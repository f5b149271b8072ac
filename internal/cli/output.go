package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// printJSON writes data as indented JSON.
func printJSON(w io.Writer, data any) {
	jsonData, err := jsonit.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(jsonData))
}

// toYAML renders value the way it serializes to JSON, so field names match the API.
func toYAML(value any) (string, error) {
	raw, err := jsonit.Marshal(value)
	if err != nil {
		return "", err
	}
	var generic any
	if err := jsonit.Unmarshal(raw, &generic); err != nil {
		return "", err
	}
	if generic == nil {
		return "", nil
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// printResult reports the outcome of a call. In JSON mode the outcome and value are
// wrapped in one object; otherwise a colored outcome line is followed by YAML.
func (o *options) printResult(cmd *cobra.Command, outcome string, value any) error {
	w := cmd.OutOrStdout()
	if o.jsonOutput {
		output := map[string]any{"result": outcome}
		if value != nil {
			output["value"] = value
		}
		printJSON(w, output)
		return nil
	}

	label := okLabel
	switch outcome {
	case "error":
		label = errorLabel
	case "taken_over", "not_fully_paid_order", "refused_partial_payment":
		label = warnLabel
	}
	label.Fprintf(w, "%s\n", outcome)
	if value == nil {
		return nil
	}
	body, err := toYAML(value)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Fprint(w, body)
	return nil
}

// printError reports a failed call and marks the error as already printed.
func (o *options) printError(cmd *cobra.Command, err error) error {
	if o.jsonOutput {
		printJSON(cmd.OutOrStdout(), map[string]string{"result": "error", "error": err.Error()})
	} else {
		errorLabel.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return ErrAlreadyHandled
}
