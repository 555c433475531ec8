package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// --- Input ---

func TestDecodeFlowJSON(t *testing.T) {
	flow, err := decodeFlow([]byte(`{"initialStepID":"s1","steps":[{"id":"s1","type":"delay","time":5}]}`))
	require.NoError(t, err)
	assert.Equal(t, "s1", flow["initialStepID"])

	steps := flow["steps"].([]any)
	assert.Equal(t, 5.0, steps[0].(map[string]any)["time"])
}

func TestDecodeFlowYAMLMatchesJSON(t *testing.T) {
	fromYAML, err := decodeFlow([]byte("initialStepID: s1\nsteps:\n  - id: s1\n    type: delay\n    time: 5\n"))
	require.NoError(t, err)
	fromJSON, err := decodeFlow([]byte(`{"initialStepID":"s1","steps":[{"id":"s1","type":"delay","time":5}]}`))
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
}

func TestDecodeFlowErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"empty":     "   ",
		"list":      "- a\n- b\n",
		"scalar":    "hello",
		"malformed": "steps: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decodeFlow([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestReadFlowStdin(t *testing.T) {
	flow, err := readFlow("-", strings.NewReader(`{"steps":[]}`))
	require.NoError(t, err)
	assert.Equal(t, []any{}, flow["steps"])
}

// --- Output ---

func TestWriteResult(t *testing.T) {
	v := map[string]any{"mode": "normalized"}

	var jb bytes.Buffer
	require.NoError(t, writeResult(&jb, v, "json"))
	var fromJSON map[string]any
	require.NoError(t, json.Unmarshal(jb.Bytes(), &fromJSON))
	assert.Equal(t, "normalized", fromJSON["mode"])

	var yb bytes.Buffer
	require.NoError(t, writeResult(&yb, v, "yaml"))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(yb.Bytes(), &fromYAML))
	assert.Equal(t, "normalized", fromYAML["mode"])

	assert.Error(t, writeResult(&bytes.Buffer{}, v, "xml"))
}
