// Package sandbox provides the local execution backend consumed by
// generated dispatchers: a process-wide, initialize-once engine handle and
// a fallible step chain that prepares inputs, runs a kernel's companion
// script and portable binary module, and persists outputs.
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"remotable/internal/logging"
)

var (
	// ErrNoEngine is returned when a sandbox is created without an engine.
	ErrNoEngine = errors.New("sandbox engine is nil")

	// ErrNoExecArgs is returned when Run is reached before SetExecArgs.
	ErrNoExecArgs = errors.New("exec args not set")
)

// Engine executes a kernel given its companion script, its portable binary
// module and the program argument list (input paths in declaration order,
// output path last).
type Engine interface {
	Execute(script, module string, args []string) error
}

// Sandbox is a sticky-error step chain. Every step is fallible; once a
// step fails, all subsequent steps are no-ops and Err reports the first
// failure.
type Sandbox struct {
	engine   Engine
	execArgs []string
	inputDir string
	outputs  map[string][]byte
	err      error
}

// New creates a sandbox bound to an engine.
func New(engine Engine) *Sandbox {
	s := &Sandbox{engine: engine, outputs: make(map[string][]byte)}
	if engine == nil {
		s.err = ErrNoEngine
	}
	return s
}

// SetExecArgs names the kernel's files: input file names first, the
// intended output file name last.
func (s *Sandbox) SetExecArgs(args ...string) *Sandbox {
	if s.err != nil {
		return s
	}
	if len(args) < 2 {
		s.err = fmt.Errorf("exec args need at least one input and one output name, got %d", len(args))
		return s
	}
	s.execArgs = args
	return s
}

// LoadInputFiles points the sandbox at the directory holding the input
// files named by the exec args.
func (s *Sandbox) LoadInputFiles(dir string) *Sandbox {
	if s.err != nil {
		return s
	}
	info, err := os.Stat(dir)
	if err != nil {
		s.err = fmt.Errorf("loading input files: %w", err)
		return s
	}
	if !info.IsDir() {
		s.err = fmt.Errorf("loading input files: %s is not a directory", dir)
		return s
	}
	s.inputDir = dir
	return s
}

// Run executes the kernel. Input paths are resolved from the exec args
// against the input directory, in order; the output is captured in memory
// for a later SaveOutputFiles.
func (s *Sandbox) Run(script, module string) *Sandbox {
	if s.err != nil {
		return s
	}
	if len(s.execArgs) == 0 {
		s.err = ErrNoExecArgs
		return s
	}

	inputNames := s.execArgs[:len(s.execArgs)-1]
	outputName := s.execArgs[len(s.execArgs)-1]

	args := make([]string, 0, len(s.execArgs))
	for _, name := range inputNames {
		path := filepath.Join(s.inputDir, name)
		if _, err := os.Stat(path); err != nil {
			s.err = fmt.Errorf("input file %s: %w", name, err)
			return s
		}
		args = append(args, path)
	}

	scratch, err := os.MkdirTemp("", "remotable-sandbox-")
	if err != nil {
		s.err = fmt.Errorf("creating scratch directory: %w", err)
		return s
	}
	defer os.RemoveAll(scratch)

	outPath := filepath.Join(scratch, outputName)
	args = append(args, outPath)

	logging.Sandbox("running kernel: script=%s module=%s inputs=%d", script, module, len(inputNames))
	if err := s.engine.Execute(script, module, args); err != nil {
		s.err = fmt.Errorf("sandbox run: %w", err)
		return s
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		s.err = fmt.Errorf("reading kernel output: %w", err)
		return s
	}
	s.outputs[outputName] = data
	return s
}

// SaveOutputFiles persists the named captured outputs into dir.
func (s *Sandbox) SaveOutputFiles(dir string, names ...string) *Sandbox {
	if s.err != nil {
		return s
	}
	for _, name := range names {
		data, ok := s.outputs[name]
		if !ok {
			s.err = fmt.Errorf("no captured output named %q", name)
			return s
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			s.err = fmt.Errorf("saving output %q: %w", name, err)
			return s
		}
	}
	return s
}

// Err reports the first failure of the chain, nil if every step succeeded.
func (s *Sandbox) Err() error { return s.err }
