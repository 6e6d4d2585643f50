package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outofforest/parcel/dispatch"
)

func execute(t *testing.T, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd := newRootCommand(out)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDemo(t *testing.T) {
	requireT := require.New(t)

	path := filepath.Join(t.TempDir(), "parcel.yaml")
	requireT.NoError(os.WriteFile(path, []byte(`
pool:
  slots: 16
  slot_size: 128
demo:
  blocks: 3
  runs: 2
  workspace: 8
log_level: error
`), 0o600))

	out, err := execute(t, "--config", path, "demo")
	requireT.NoError(err)
	requireT.Equal(strings.Join([]string{
		"block 0: value=3 runs=3",
		"block 1: value=3 runs=3",
		"block 2: value=3 runs=3",
		"",
	}, "\n"), out)
}

func TestDemoFullQueue(t *testing.T) {
	requireT := require.New(t)

	path := filepath.Join(t.TempDir(), "parcel.yaml")
	requireT.NoError(os.WriteFile(path, []byte(`
dispatch:
  capacity: 1
demo:
  blocks: 2
log_level: error
`), 0o600))

	out, err := execute(t, "--config", path, "demo")
	requireT.ErrorIs(err, dispatch.ErrQueueFull)
	requireT.NotContains(out, "block 0:")
}

func TestDemoRerunsBlocks(t *testing.T) {
	requireT := require.New(t)

	path := filepath.Join(t.TempDir(), "parcel.yaml")
	requireT.NoError(os.WriteFile(path, []byte(`
demo:
  blocks: 1
  runs: 5
log_level: error
`), 0o600))

	out, err := execute(t, "--config", path, "demo")
	requireT.NoError(err)
	requireT.Equal("block 0: value=6 runs=6\n", out)
}

func TestStats(t *testing.T) {
	requireT := require.New(t)

	path := filepath.Join(t.TempDir(), "parcel.yaml")
	requireT.NoError(os.WriteFile(path, []byte(`
pool:
  slots: 64
  slot_size: 256
`), 0o600))

	out, err := execute(t, "--config", path, "stats")
	requireT.NoError(err)
	requireT.Contains(out, "slots:       64\n")
	requireT.Contains(out, "capacity:    16384\n")
	requireT.Contains(out, "header size: 40\n")
}
