package transform

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remotable/internal/buildenv"
)

const annotatedFile = `//go:build remotable_kernel

package imaging

//remotable:fn rpc_port=61001
func Invert(pixels []byte) []byte {
	out := make([]byte, len(pixels))
	for i, p := range pixels {
		out[i] = ^p
	}
	return out
}

//remotable:fn net="mainnet"
func Mix(a []byte, b []byte) []byte {
	return append(a, b...)
}

func helper() {}
`

func TestFile_Distributed(t *testing.T) {
	outDir := t.TempDir()
	out, err := File("imaging.go", []byte(annotatedFile), Options{
		Env: buildenv.Env{OutDir: outDir},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Invert", "Mix"}, out.Funcs)
	assert.True(t, out.KernelConstrained)
	require.Len(t, out.Kernels, 2)
	for _, kernel := range out.Kernels {
		_, err := os.Stat(kernel)
		assert.NoError(t, err, kernel)
	}
	assert.Equal(t, filepath.Join(outDir, "kernel_modules", "Invert", "main.go"), out.Kernels[0])

	file, err := parser.ParseFile(token.NewFileSet(), "imaging_remotable.go", out.Code, 0)
	require.NoError(t, err)
	assert.Equal(t, "imaging", file.Name.Name)

	code := string(out.Code)
	assert.Contains(t, code, "// Code generated by remotable gen. DO NOT EDIT.")
	assert.Contains(t, code, "func Invert(pixels []byte) []byte")
	assert.Contains(t, code, "func Mix(a []byte, b []byte) []byte")
	assert.Contains(t, code, "61001")
	assert.Contains(t, code, "compute.MainNet")
	assert.NotContains(t, code, "sandbox.")
}

func TestFile_Local(t *testing.T) {
	out, err := File("imaging.go", []byte(annotatedFile), Options{
		Env: buildenv.Env{OutDir: t.TempDir(), Local: true},
	})
	require.NoError(t, err)

	code := string(out.Code)
	assert.Contains(t, code, "sandbox.Default()")
	assert.NotContains(t, code, "compute.NewTaskBuilder")

	_, err = parser.ParseFile(token.NewFileSet(), "imaging_remotable.go", out.Code, 0)
	require.NoError(t, err)
}

func TestFile_ProjectDefaults(t *testing.T) {
	port := uint16(5555)
	addr := "10.1.1.1"
	out, err := File("imaging.go", []byte(annotatedFile), Options{
		Env:      buildenv.Env{OutDir: t.TempDir()},
		Defaults: &Attributes{RPCPort: &port, RPCAddress: &addr},
	})
	require.NoError(t, err)

	// Invert sets rpc_port itself; the project default applies to Mix only.
	code := string(out.Code)
	assert.Contains(t, code, "61001")
	assert.Contains(t, code, "5555")
	assert.Contains(t, code, `"10.1.1.1"`)
}

func TestFile_NoAnnotations(t *testing.T) {
	out, err := File("plain.go", []byte("package plain\n\nfunc f() {}\n"), Options{
		Env: buildenv.Env{OutDir: t.TempDir()},
	})
	require.NoError(t, err)
	assert.Empty(t, out.Code)
	assert.Empty(t, out.Funcs)
	assert.Empty(t, out.Kernels)
	assert.False(t, out.KernelConstrained)
}

func TestFile_ValidationFailureStopsEmission(t *testing.T) {
	src := `package p

//remotable:fn
func bad(n int) []byte { return nil }
`
	outDir := t.TempDir()
	_, err := File("bad.go", []byte(src), Options{Env: buildenv.Env{OutDir: outDir}})
	var typeErr *UnsupportedTypeError
	require.ErrorAs(t, err, &typeErr)

	// Nothing was emitted for the failed file.
	_, statErr := os.Stat(filepath.Join(outDir, "kernel_modules"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFile_BadAttributes(t *testing.T) {
	src := `package p

//remotable:fn concurrency=4
func f(in []byte) []byte { return in }
`
	_, err := File("bad.go", []byte(src), Options{Env: buildenv.Env{OutDir: t.TempDir()}})
	var unknown *UnknownAttributeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "concurrency", unknown.Key)
}
