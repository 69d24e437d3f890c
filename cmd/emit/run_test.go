package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFlagsRegistered(t *testing.T) {
	for _, name := range []string{"port-name", "baud-rate", "preset", "open-delay", "message-count", "template", "log-level"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), "run is missing --%s", name)
		assert.NotNil(t, rootCmd.Flags().Lookup(name), "root is missing --%s", name)
	}
}

func TestRunRejectsUnknownPreset(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Cleanup(func() { runOpts.preset = "" })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"run", "--preset", "fire"})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown preset")
}
