package transform

import (
	"fmt"
	"go/ast"
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"remotable/internal/logging"
)

// kernelTemplate is the standalone companion program. Its entry point pops
// the output path from the end of the argument list, then pops one input
// path per parameter. Popping walks the list back to front, so the first
// declared parameter is reconstructed from the last-popped input: callers
// pass input paths in declaration order followed by the output path. Both
// backends build their invocations against this exact order.
var kernelTemplate = template.Must(template.New("kernel").Parse(`// Code generated by remotable gen. DO NOT EDIT.

package main

import (
	"os"
)

{{.Source}}

func main() {
	args := os.Args[1:]
	if len(args) != {{.ArgCount}} {
		panic("expected {{.ArgCount}} arguments: {{.ParamCount}} input paths and one output path")
	}

	outPath := pop(&args)
{{- range .Inputs}}
	{{.Var}} := readInput(&args)
{{- end}}

	res := {{.Name}}({{.CallArgs}})

	if err := os.WriteFile(outPath, res, 0o644); err != nil {
		panic(err)
	}
}

func pop(args *[]string) string {
	a := *args
	last := a[len(a)-1]
	*args = a[:len(a)-1]
	return last
}

func readInput(args *[]string) []byte {
	data, err := os.ReadFile(pop(args))
	if err != nil {
		panic(err)
	}
	return data
}
`))

type kernelInput struct {
	Var string
}

type kernelData struct {
	Source     string
	Name       string
	ParamCount int
	ArgCount   int
	Inputs     []kernelInput
	CallArgs   string
}

// renderKernel emits the companion program source for one plan.
func renderKernel(plan *DispatchPlan) (string, error) {
	sig := plan.Func
	n := len(sig.Params)

	// Inputs are popped in reverse declaration order; the call site restores
	// declaration order.
	inputs := make([]kernelInput, 0, n)
	for i := n - 1; i >= 0; i-- {
		inputs = append(inputs, kernelInput{Var: fmt.Sprintf("in%d", i)})
	}
	callArgs := make([]string, n)
	for i, p := range sig.Params {
		callArgs[i] = argExpr(fmt.Sprintf("in%d", i), p.Type)
	}

	data := kernelData{
		Source:     sig.Source,
		Name:       sig.Name,
		ParamCount: n,
		ArgCount:   n + 1,
		Inputs:     inputs,
		CallArgs:   strings.Join(callArgs, ", "),
	}

	var buf strings.Builder
	if err := kernelTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering kernel for %s: %w", sig.Name, err)
	}
	src, err := format.Source([]byte(buf.String()))
	if err != nil {
		return "", fmt.Errorf("formatting kernel for %s: %w", sig.Name, err)
	}
	return string(src), nil
}

// argExpr adapts a read byte buffer to the declared parameter type. Shapes
// beyond plain slices, fixed arrays and one level of pointer are passed
// through unchanged; the separate kernel build rejects them, as the
// original toolchain did.
func argExpr(name string, typ ast.Expr) string {
	switch t := typ.(type) {
	case *ast.ArrayType:
		if t.Len == nil {
			return name
		}
		return fmt.Sprintf("%s(%s)", renderArray(t), name)
	case *ast.StarExpr:
		if arr, ok := t.X.(*ast.ArrayType); ok && arr.Len == nil {
			return "&" + name
		}
		return name
	case *ast.ParenExpr:
		return argExpr(name, t.X)
	default:
		return name
	}
}

func renderArray(t *ast.ArrayType) string {
	if lit, ok := t.Len.(*ast.BasicLit); ok {
		if elt, ok := t.Elt.(*ast.Ident); ok {
			return fmt.Sprintf("[%s]%s", lit.Value, elt.Name)
		}
	}
	return "[]byte"
}

// KernelSourcePath is the fixed emission location for a function's kernel
// program under the build-output directory.
func KernelSourcePath(outDir, fnName string) string {
	return filepath.Join(outDir, "kernel_modules", fnName, "main.go")
}

func binArtifact(outDir, fnName, ext string) string {
	return filepath.Join(outDir, "bin", fnName+ext)
}

// emitKernel writes the companion program source, overwriting any previous
// emission for the same function.
func emitKernel(plan *DispatchPlan) (string, error) {
	src, err := renderKernel(plan)
	if err != nil {
		return "", err
	}

	path := KernelSourcePath(plan.OutDir, plan.Func.Name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", &EmissionIOError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		return "", &EmissionIOError{Path: path, Err: err}
	}
	logging.Emit("kernel source written: %s", path)
	return path, nil
}
