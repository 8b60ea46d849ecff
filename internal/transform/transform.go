// Package transform implements the remotable build-time transformation:
// signature parsing, byte-shape validation, attribute resolution, dual
// strategy dispatcher generation and kernel program emission.
//
// One call to File handles one source file, synchronously and without
// shared mutable state; the build-output directory is read-only during the
// transformation and the emitted kernel files are its only side effect.
package transform

import (
	"fmt"
	"go/format"
	"strings"

	"remotable/internal/buildenv"
	"remotable/internal/logging"
)

// Options configures one transformation run.
type Options struct {
	Env buildenv.Env

	// Defaults are project-level attributes applied beneath per-function
	// attribute lists.
	Defaults *Attributes
}

// Output is the result of transforming one source file.
type Output struct {
	// Code is the assembled dispatcher file replacing the annotated
	// functions in normal builds.
	Code []byte

	// Funcs lists the transformed function names, declaration order.
	Funcs []string

	// Kernels lists the emitted kernel source paths, one per function.
	Kernels []string

	// KernelConstrained mirrors SourceFile: false means the input file
	// will collide with the generated dispatchers unless the caller
	// excludes it from normal builds.
	KernelConstrained bool
}

// File transforms one annotated source file: every function carrying the
// remotable directive is validated, planned and rendered, and its kernel
// program is emitted under the build-output directory. A file with no
// annotated functions produces an Output with empty Code.
func File(filename string, src []byte, opts Options) (*Output, error) {
	timer := logging.StartTimer(logging.CategoryGen, "transform "+filename)
	defer timer.Stop()

	parsed, err := ParseAnnotated(filename, src)
	if err != nil {
		return nil, err
	}
	out := &Output{KernelConstrained: parsed.KernelConstrained}
	if len(parsed.Funcs) == 0 {
		return out, nil
	}

	strategy := StrategyDistributed
	if opts.Env.Local {
		strategy = StrategyLocal
	}
	logging.Gen("transforming %s: %d function(s), strategy=%s", filename, len(parsed.Funcs), strategy)

	var bodies []string
	for _, fn := range parsed.Funcs {
		if err := validateParams(fn.Sig); err != nil {
			return nil, err
		}

		attrs, err := ResolveAttributes(fn.Attrs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn.Sig.Name, err)
		}
		merged := Attributes{}.Merge(opts.Defaults).Merge(attrs)
		cfg, err := merged.Config()
		if err != nil {
			return nil, fmt.Errorf("%s: resolving defaults: %w", fn.Sig.Name, err)
		}

		plan := &DispatchPlan{
			Package:  parsed.Package,
			Func:     fn.Sig,
			Config:   cfg,
			Strategy: strategy,
			OutDir:   opts.Env.OutDir,
		}

		body, err := renderDispatcher(plan)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, body)

		kernelPath, err := emitKernel(plan)
		if err != nil {
			return nil, err
		}
		out.Funcs = append(out.Funcs, fn.Sig.Name)
		out.Kernels = append(out.Kernels, kernelPath)
	}

	code, err := assembleFile(parsed.Package, strategy, bodies)
	if err != nil {
		return nil, err
	}
	out.Code = code
	return out, nil
}

// assembleFile wraps rendered dispatcher functions in a complete generated
// file and gofmt-formats it.
func assembleFile(pkg string, strategy Strategy, bodies []string) ([]byte, error) {
	imports := distributedImports
	if strategy == StrategyLocal {
		imports = localImports
	}

	var b strings.Builder
	b.WriteString("// Code generated by remotable gen. DO NOT EDIT.\n\n")
	b.WriteString("package " + pkg + "\n\n")
	b.WriteString("import (\n")
	for _, imp := range imports {
		if imp == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString("\t" + imp + "\n")
	}
	b.WriteString(")\n")
	for _, body := range bodies {
		b.WriteString(body)
	}

	code, err := format.Source([]byte(b.String()))
	if err != nil {
		return nil, fmt.Errorf("formatting generated dispatchers: %w", err)
	}
	return code, nil
}
