package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		runJSONFlag, runStrictFlag, runVerboseFlag = false, false, false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRunPrintsSettlement(t *testing.T) {
	out, err := execute(t, "run", "../../internal/scenario/testdata/terminate.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "Total: refund(120)")
	assert.Contains(t, out, "bob refund(120) (terminated)")
	assert.Contains(t, out, "alice: free=220 reserved=0")
}

func TestRunJSON(t *testing.T) {
	out, err := execute(t, "run", "--json", "../../internal/scenario/testdata/nested.yaml")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Contains(t, decoded, "Settlement")
	assert.Equal(t, []any{"dave"}, decoded["Reverted"])
}

func TestRunMissingFile(t *testing.T) {
	_, err := execute(t, "run", "does-not-exist.yaml")
	assert.Error(t, err)
}
