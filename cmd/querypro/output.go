package main

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// emit writes v in the selected structured format. It reports false for the
// table format so the caller renders its own view.
func (a *app) emit(v any) (bool, error) {
	switch a.output {
	case "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		// round-trip through JSON so YAML keys match the wire names
		raw, err := json.Marshal(v)
		if err != nil {
			return true, err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return true, err
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return true, fmt.Errorf("encode yaml: %w", err)
		}
		_, err = a.out.Write(out)
		return true, err
	}
	return false, nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
