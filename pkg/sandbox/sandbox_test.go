package sandbox

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeEngine writes fixed output bytes to the last argument path, mimicking
// a kernel run.
type fakeEngine struct {
	output []byte
	err    error

	gotScript string
	gotModule string
	gotArgs   []string
}

func (f *fakeEngine) Execute(script, module string, args []string) error {
	f.gotScript = script
	f.gotModule = module
	f.gotArgs = args
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(args[len(args)-1], f.output, 0o644)
}

func preparedInputs(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
	return dir
}

func TestSandboxChain(t *testing.T) {
	engine := &fakeEngine{output: []byte("kernel output")}
	inDir := preparedInputs(t, "in")
	outDir := t.TempDir()

	sb := New(engine)
	sb.SetExecArgs("in", "out")
	sb.LoadInputFiles(inDir)
	sb.Run("/out/bin/f.go", "/out/bin/f.wasm")
	sb.SaveOutputFiles(outDir, "out")
	require.NoError(t, sb.Err())

	data, err := os.ReadFile(filepath.Join(outDir, "out"))
	require.NoError(t, err)
	assert.Equal(t, []byte("kernel output"), data)

	assert.Equal(t, "/out/bin/f.go", engine.gotScript)
	assert.Equal(t, "/out/bin/f.wasm", engine.gotModule)

	// Input paths in exec-arg order, then the scratch output path.
	require.Len(t, engine.gotArgs, 2)
	assert.Equal(t, filepath.Join(inDir, "in"), engine.gotArgs[0])
	assert.Equal(t, "out", filepath.Base(engine.gotArgs[1]))
}

func TestSandboxChain_MultipleInputs(t *testing.T) {
	engine := &fakeEngine{output: []byte("ok")}
	inDir := preparedInputs(t, "a", "b", "c")

	sb := New(engine).
		SetExecArgs("a", "b", "c", "out").
		LoadInputFiles(inDir).
		Run("s", "m")
	require.NoError(t, sb.Err())

	require.Len(t, engine.gotArgs, 4)
	assert.Equal(t, filepath.Join(inDir, "a"), engine.gotArgs[0])
	assert.Equal(t, filepath.Join(inDir, "b"), engine.gotArgs[1])
	assert.Equal(t, filepath.Join(inDir, "c"), engine.gotArgs[2])
}

func TestSandbox_StickyError(t *testing.T) {
	engine := &fakeEngine{err: errors.New("boom")}
	inDir := preparedInputs(t, "in")

	sb := New(engine).
		SetExecArgs("in", "out").
		LoadInputFiles(inDir).
		Run("s", "m")
	first := sb.Err()
	require.Error(t, first)

	// Subsequent steps are no-ops and the first failure is preserved.
	sb.SaveOutputFiles(t.TempDir(), "out")
	sb.Run("s", "m")
	assert.Same(t, first, sb.Err())
}

func TestSandbox_NilEngine(t *testing.T) {
	sb := New(nil).SetExecArgs("in", "out").Run("s", "m")
	assert.ErrorIs(t, sb.Err(), ErrNoEngine)
}

func TestSandbox_RunBeforeSetExecArgs(t *testing.T) {
	sb := New(&fakeEngine{}).Run("s", "m")
	assert.ErrorIs(t, sb.Err(), ErrNoExecArgs)
}

func TestSandbox_TooFewExecArgs(t *testing.T) {
	sb := New(&fakeEngine{}).SetExecArgs("only-output")
	assert.Error(t, sb.Err())
}

func TestSandbox_MissingInputFile(t *testing.T) {
	sb := New(&fakeEngine{output: []byte("x")}).
		SetExecArgs("absent", "out").
		LoadInputFiles(t.TempDir()).
		Run("s", "m")
	assert.Error(t, sb.Err())
}

func TestSandbox_LoadInputFilesBadDir(t *testing.T) {
	t.Run("nonexistent", func(t *testing.T) {
		sb := New(&fakeEngine{}).SetExecArgs("in", "out").LoadInputFiles("/does/not/exist")
		assert.Error(t, sb.Err())
	})
	t.Run("not a directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "f")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
		sb := New(&fakeEngine{}).SetExecArgs("in", "out").LoadInputFiles(file)
		assert.Error(t, sb.Err())
	})
}

func TestSandbox_SaveUnknownOutput(t *testing.T) {
	engine := &fakeEngine{output: []byte("x")}
	sb := New(engine).
		SetExecArgs("in", "out").
		LoadInputFiles(preparedInputs(t, "in")).
		Run("s", "m").
		SaveOutputFiles(t.TempDir(), "other")
	assert.Error(t, sb.Err())
}
