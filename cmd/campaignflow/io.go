package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// readFlow loads a flow document from path ("-" for stdin). JSON and YAML
// are both accepted; YAML is re-encoded through JSON so numbers and maps
// have the same shapes the MCP surface sees.
func readFlow(path string, stdin io.Reader) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read flow: %w", err)
	}
	return decodeFlow(data)
}

func decodeFlow(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("flow document is empty")
	}

	if trimmed[0] == '{' {
		var flow map[string]any
		if err := json.Unmarshal(trimmed, &flow); err == nil {
			return flow, nil
		}
	}

	var doc any
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("parse flow: %w", err)
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, fmt.Errorf("flow must be an object, got %T", doc)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert flow: %w", err)
	}
	var flow map[string]any
	if err := json.Unmarshal(asJSON, &flow); err != nil {
		return nil, fmt.Errorf("convert flow: %w", err)
	}
	return flow, nil
}

// writeResult encodes v as indented JSON or YAML.
func writeResult(w io.Writer, v any, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
