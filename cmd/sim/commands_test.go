package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentsim/internal/types"
)

const cliConfig = `
seed: 3
ticks: 4
instruments:
  - {name: X, price: 10, volatility: 0.01}
agents:
  generate: {count: 3}
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cliConfig), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCmd_PrintsOneResultPerTick(t *testing.T) {
	out, err := execute(t, "run", "--config", writeConfig(t), "--ticks", "2", "--path", "batch")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	var res types.TickResult
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &res))
	assert.Equal(t, 2, res.Tick)
	assert.Contains(t, res.Prices, "X")
}

func TestRunCmd_StdoutCarriesOnlyTickResults(t *testing.T) {
	cfgPath := writeConfig(t)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	t.Cleanup(func() { os.Stdout = stdout })

	captured := make(chan []byte)
	go func() {
		b, _ := io.ReadAll(r)
		captured <- b
	}()

	cmd := newRootCmd()
	cmd.SetArgs([]string{"run", "--config", cfgPath, "--ticks", "2"})
	runErr := cmd.Execute()

	os.Stdout = stdout
	require.NoError(t, w.Close())
	out := <-captured
	require.NoError(t, r.Close())
	require.NoError(t, runErr)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2, "stdout: %s", out)
	for i, line := range lines {
		var res types.TickResult
		dec := json.NewDecoder(strings.NewReader(line))
		dec.DisallowUnknownFields()
		require.NoError(t, dec.Decode(&res), line)
		assert.Equal(t, i+1, res.Tick)
	}
}

func TestRunCmd_RejectsUnknownPath(t *testing.T) {
	_, err := execute(t, "run", "--config", writeConfig(t), "--path", "sideways")
	assert.Error(t, err)
}

func TestConfigValidateCmd(t *testing.T) {
	out, err := execute(t, "config", "validate", "--config", writeConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "ok (1 instruments, 0 funds, 3 agents, path single)")
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "agentsim v")
}
