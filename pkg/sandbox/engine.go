package sandbox

import (
	"fmt"
	"os"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"remotable/internal/logging"
)

// EnvEngine selects the default engine implementation: "wasm" runs the
// compiled portable binary module under wasmer, anything else (or unset)
// interprets the companion script.
const EnvEngine = "REMOTABLE_ENGINE"

var (
	defaultOnce   sync.Once
	defaultEngine Engine
)

// Default returns the process-wide engine handle. It is created at most
// once no matter how many dispatch calls race here, is safe for concurrent
// use afterwards, and is never torn down for the lifetime of the process.
func Default() Engine {
	defaultOnce.Do(func() {
		defaultEngine = newDefaultEngine()
		logging.Sandbox("default sandbox engine: %T", defaultEngine)
	})
	return defaultEngine
}

func newDefaultEngine() Engine {
	if os.Getenv(EnvEngine) == "wasm" {
		return NewWasmEngine()
	}
	return NewInterpEngine()
}

// InterpEngine runs a kernel by interpreting its companion script with
// yaegi. Kernels are emitted stdlib-only, which is exactly the surface the
// interpreter provides. One execution runs at a time per engine.
type InterpEngine struct {
	mu sync.Mutex
}

// NewInterpEngine creates an interpreter-backed engine.
func NewInterpEngine() *InterpEngine {
	return &InterpEngine{}
}

// Execute interprets the companion script with the given program args. The
// portable binary module is not needed on this path; the script is the
// kernel source itself.
func (e *InterpEngine) Execute(script, module string, args []string) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, err := os.ReadFile(script)
	if err != nil {
		return fmt.Errorf("reading companion script: %w", err)
	}

	// Kernels signal failure by panicking; surface that as a step error.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("kernel failed: %v", r)
		}
	}()

	i := interp.New(interp.Options{Args: append([]string{script}, args...)})
	if err := i.Use(stdlib.Symbols); err != nil {
		return fmt.Errorf("loading stdlib symbols: %w", err)
	}
	if _, err := i.Eval(string(src)); err != nil {
		return fmt.Errorf("evaluating companion script: %w", err)
	}

	v, err := i.Eval("main.main")
	if err != nil {
		return fmt.Errorf("kernel entry point not found: %w", err)
	}
	entry, ok := v.Interface().(func())
	if !ok {
		return fmt.Errorf("kernel entry point has unexpected shape")
	}
	entry()
	return nil
}
