package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boxOBJ = `v 0 0 0
v 100 0 0
v 100 50 20
v 0 50 20
f 1 2 3 4
`

func writeFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"oxy-amp"}, args...))
	return out.String(), err
}

func TestInspectPrintsSummary(t *testing.T) {
	dir := t.TempDir()
	model := writeFile(t, dir, "box.obj", boxOBJ)
	cfg := writeFile(t, dir, "amp.toml", "[model]\nflip_y = false\n[amplitude]\ncell_size = 5\n")

	out, err := runApp(t, "-c", cfg, "inspect", model)
	require.NoError(t, err)
	assert.Contains(t, out, "20x10x4 cells of 5 (800 total)")
	assert.Contains(t, out, "replication:")
	assert.Contains(t, out, "midpoints x: [0 12.5 25 37.5 50 62.5 75 87.5 100]")
}

func TestInspectRequiresOneModel(t *testing.T) {
	_, err := runApp(t, "inspect")
	assert.ErrorContains(t, err, "exactly one model file")
}

func TestInspectRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "amp.ini", "")
	_, err := runApp(t, "-c", cfg, "inspect", writeFile(t, dir, "box.obj", boxOBJ))
	assert.Error(t, err)
}

func TestWatchInterruptIgnoresNormalExit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan struct{})
	watched := watchInterrupt(ctx, done, func() { calls++ })

	close(done)
	<-watched
	cancel()
	assert.Zero(t, calls)
}

func TestWatchInterruptRequestsClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan struct{})
	watched := watchInterrupt(ctx, done, func() { calls++ })

	cancel()
	<-watched
	close(done)
	assert.Equal(t, 1, calls)
}
