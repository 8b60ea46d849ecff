package sandbox

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wasmerio/wasmer-go/wasmer"

	"remotable/internal/logging"
)

// WasmEngine runs the compiled portable binary module with wasmer. Kernels
// are built for WASI; file arguments are made visible by preopening their
// parent directories.
type WasmEngine struct {
	engine *wasmer.Engine
	store  *wasmer.Store
}

// NewWasmEngine creates a wasmer-backed engine.
func NewWasmEngine() *WasmEngine {
	engine := wasmer.NewEngine()
	return &WasmEngine{
		engine: engine,
		store:  wasmer.NewStore(engine),
	}
}

// Execute instantiates the module and runs its WASI entry point with the
// given program args.
func (e *WasmEngine) Execute(script, module string, args []string) error {
	wasmBytes, err := os.ReadFile(module)
	if err != nil {
		return fmt.Errorf("reading binary module: %w", err)
	}

	mod, err := wasmer.NewModule(e.store, wasmBytes)
	if err != nil {
		return fmt.Errorf("compiling binary module: %w", err)
	}

	builder := wasmer.NewWasiStateBuilder(filepath.Base(module))
	for _, arg := range args {
		builder = builder.Argument(arg)
	}
	for _, dir := range argDirs(args) {
		builder = builder.PreopenDirectory(dir)
	}
	wasiEnv, err := builder.Finalize()
	if err != nil {
		return fmt.Errorf("building WASI state: %w", err)
	}

	importObject, err := wasiEnv.GenerateImportObject(e.store, mod)
	if err != nil {
		return fmt.Errorf("generating import object: %w", err)
	}
	instance, err := wasmer.NewInstance(mod, importObject)
	if err != nil {
		return fmt.Errorf("instantiating binary module: %w", err)
	}

	start, err := instance.Exports.GetWasiStartFunction()
	if err != nil {
		return fmt.Errorf("resolving WASI entry point: %w", err)
	}
	logging.SandboxDebug("wasm kernel start: %s", module)
	if _, err := start(); err != nil {
		return fmt.Errorf("running binary module: %w", err)
	}
	return nil
}

// argDirs returns the unique parent directories of the program args.
func argDirs(args []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, arg := range args {
		dir := filepath.Dir(arg)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}
