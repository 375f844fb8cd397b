package phaser

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakePhaser writes a shell script standing in for the phaser binary.
func fakePhaser(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "phaser.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func fastaInputs(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"m1.fa", "m2.fa", "f1.fa", "f2.fa", "c1.fa", "c2.fa"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(">x\nACGT\n"), 0o644))
		paths = append(paths, p)
	}
	return paths
}

func TestArgs(t *testing.T) {
	r := NewRunner("phaser")
	in := []string{"a", "b", "c", "d", "e", "f"}

	args, err := r.Args(in)
	require.NoError(t, err)
	assert.Equal(t, in, args)

	r.Mode = "1"
	args, err = r.Args(in)
	require.NoError(t, err)
	assert.Equal(t, append([]string{"1"}, in...), args)

	_, err = r.Args(in[:5])
	assert.Error(t, err)
}

func TestRun_CapturesStdout(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args.txt")
	bin := fakePhaser(t, `echo "$@" > `+argsFile+`
echo "working" >&2
echo "0011?0"`)

	out := filepath.Join(t.TempDir(), "phase", "phase.txt")
	r := NewRunner(bin)
	r.Mode = "2"
	r.Output = out
	inputs := fastaInputs(t)

	require.NoError(t, r.Run(context.Background(), inputs))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "0011?0\n", string(data))

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	fields := strings.Fields(string(args))
	require.Len(t, fields, 7)
	assert.Equal(t, "2", fields[0])
	assert.Equal(t, inputs, fields[1:])

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary file left behind")
}

func TestRun_BinaryWritesOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "phase.txt")
	t.Setenv("PHASE_OUT", out)
	bin := fakePhaser(t, `echo "Similarity score: 3"
echo "1?0" > "$PHASE_OUT"`)

	r := NewRunner(bin)
	r.Output = out
	r.CaptureStdout = false

	require.NoError(t, r.Run(context.Background(), fastaInputs(t)))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "1?0\n", string(data))
}

func TestRun_MissingOutputWithoutCapture(t *testing.T) {
	bin := fakePhaser(t, "exit 0")
	r := NewRunner(bin)
	r.Output = filepath.Join(t.TempDir(), "never.txt")
	r.CaptureStdout = false

	err := r.Run(context.Background(), fastaInputs(t))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_Failure(t *testing.T) {
	bin := fakePhaser(t, `echo "first" >&2
echo "cannot read fasta" >&2
exit 3`)

	out := filepath.Join(t.TempDir(), "phase.txt")
	r := NewRunner(bin)
	r.Output = out

	err := r.Run(context.Background(), fastaInputs(t))
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode)
	assert.Equal(t, "first; cannot read fasta", exitErr.Stderr)
	assert.NoFileExists(t, out)
}

func TestRun_MissingInput(t *testing.T) {
	r := NewRunner("does-not-matter")
	r.Output = filepath.Join(t.TempDir(), "phase.txt")
	inputs := fastaInputs(t)
	inputs[4] = filepath.Join(t.TempDir(), "missing.fa")

	err := r.Run(context.Background(), inputs)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_Cancelled(t *testing.T) {
	bin := fakePhaser(t, "exec sleep 10")
	r := NewRunner(bin)
	r.Output = filepath.Join(t.TempDir(), "phase.txt")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.Error(t, r.Run(ctx, fastaInputs(t)))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestTailWriter(t *testing.T) {
	w := &tailWriter{logger: zap.NewNop(), max: 2}

	_, err := w.Write([]byte("one\ntw"))
	require.NoError(t, err)
	_, err = w.Write([]byte("o\r\nthree\nfour"))
	require.NoError(t, err)
	assert.Equal(t, "two; three", w.tail())

	w.flush()
	assert.Equal(t, "three; four", w.tail())
}
