package transform

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"strings"

	"remotable/internal/logging"
)

// Directive marks a function for transformation. The remainder of the
// comment line is the attribute list, e.g.
//
//	//remotable:fn rpc_address="192.168.1.1", rpc_port=61001
const Directive = "//remotable:fn"

// KernelConstraint is the build constraint expected on files holding the
// original function bodies, so that generated dispatchers can define the
// same symbols in normal builds.
const KernelConstraint = "remotable_kernel"

// Parameter is one binding in a remotable function's parameter list.
type Parameter struct {
	Name string
	Type ast.Expr

	// TypeSrc is the rendered source of Type, used verbatim when the
	// dispatcher reproduces the original parameter list.
	TypeSrc string
}

// FunctionSignature is the parsed surface of one annotated function. It is
// immutable after parsing and exists only for the duration of the
// transformation.
type FunctionSignature struct {
	Exported bool
	Name     string
	Params   []Parameter

	// Result is the rendered return type, empty for none.
	Result string

	// Source is the preserved function declaration, without its directive
	// comment. The kernel emitter carries it into the companion program.
	Source string
}

// ParamList renders the parameter list exactly as the dispatcher must
// declare it.
func (s *FunctionSignature) ParamList() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.Name + " " + p.TypeSrc
	}
	return strings.Join(parts, ", ")
}

// AnnotatedFunc pairs a parsed signature with its raw attribute text.
type AnnotatedFunc struct {
	Sig   *FunctionSignature
	Attrs string
}

// SourceFile is the parsed view of one input file.
type SourceFile struct {
	Package string
	Funcs   []AnnotatedFunc

	// KernelConstrained reports whether the file carries the
	// remotable_kernel build constraint. Files without it will define the
	// original symbol alongside the generated dispatcher.
	KernelConstrained bool
}

// ParseAnnotated parses a source file and extracts every function carrying
// the remotable directive. A file with no annotated functions yields an
// empty Funcs slice, not an error.
func ParseAnnotated(filename string, src []byte) (*SourceFile, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, &SyntaxError{Reason: err.Error()}
	}

	out := &SourceFile{
		Package:           file.Name.Name,
		KernelConstrained: hasKernelConstraint(src),
	}

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Doc == nil {
			continue
		}
		attrs, ok := directiveAttrs(fn.Doc)
		if !ok {
			continue
		}
		logging.Parse("found annotated function %s in %s", fn.Name.Name, filename)

		sig, err := parseSignature(fset, fn)
		if err != nil {
			return nil, err
		}
		out.Funcs = append(out.Funcs, AnnotatedFunc{Sig: sig, Attrs: attrs})
	}
	return out, nil
}

// directiveAttrs extracts the attribute text from a doc comment carrying
// the remotable directive.
func directiveAttrs(doc *ast.CommentGroup) (string, bool) {
	for _, c := range doc.List {
		if rest, ok := strings.CutPrefix(c.Text, Directive); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

// parseSignature checks the declaration shape and produces the structured
// signature.
func parseSignature(fset *token.FileSet, fn *ast.FuncDecl) (*FunctionSignature, error) {
	name := fn.Name.Name

	if fn.Recv != nil {
		return nil, &SyntaxError{Func: name, Reason: "methods cannot be remotable (receiver present)"}
	}
	if fn.Body == nil {
		return nil, &SyntaxError{Func: name, Reason: "function has no body"}
	}
	if fn.Type.TypeParams != nil {
		return nil, &SyntaxError{Func: name, Reason: "type parameters are unsupported"}
	}

	var params []Parameter
	for _, field := range fn.Type.Params.List {
		if _, variadic := field.Type.(*ast.Ellipsis); variadic {
			return nil, &SyntaxError{Func: name, Reason: "variadic parameters are unsupported"}
		}
		if len(field.Names) == 0 {
			return nil, &SyntaxError{Func: name, Reason: "parameters must have binding names"}
		}
		typeSrc, err := renderNode(fset, field.Type)
		if err != nil {
			return nil, &SyntaxError{Func: name, Reason: "cannot render parameter type: " + err.Error()}
		}
		for _, ident := range field.Names {
			if ident.Name == "_" {
				return nil, &SyntaxError{Func: name, Reason: "blank parameter bindings are unsupported"}
			}
			params = append(params, Parameter{Name: ident.Name, Type: field.Type, TypeSrc: typeSrc})
		}
	}

	var result string
	if fn.Type.Results != nil {
		if len(fn.Type.Results.List) != 1 || len(fn.Type.Results.List[0].Names) != 0 {
			return nil, &SyntaxError{Func: name, Reason: "exactly one unnamed return value is expected"}
		}
		var err error
		result, err = renderNode(fset, fn.Type.Results.List[0].Type)
		if err != nil {
			return nil, &SyntaxError{Func: name, Reason: "cannot render return type: " + err.Error()}
		}
	}

	// Preserve the declaration itself; the doc comment (directive included)
	// is attached to fn.Doc and not printed with the bare node.
	source, err := renderNode(fset, fn)
	if err != nil {
		return nil, &SyntaxError{Func: name, Reason: "cannot render declaration: " + err.Error()}
	}

	return &FunctionSignature{
		Exported: ast.IsExported(name),
		Name:     name,
		Params:   params,
		Result:   result,
		Source:   source,
	}, nil
}

func renderNode(fset *token.FileSet, node any) (string, error) {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// hasKernelConstraint scans the leading comment lines for a go:build
// expression naming the kernel constraint.
func hasKernelConstraint(src []byte) bool {
	for _, line := range strings.Split(string(src), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "package ") {
			return false
		}
		if strings.HasPrefix(trimmed, "//go:build") && strings.Contains(trimmed, KernelConstraint) {
			return true
		}
	}
	return false
}
