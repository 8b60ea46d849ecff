package transform

import "go/ast"

// validateParams checks that every parameter type reduces to a byte
// sequence after stripping array, slice and pointer wrappers. The local
// dispatch strategy marshals the first parameter, so a parameter-less
// function is rejected outright.
func validateParams(sig *FunctionSignature) error {
	if len(sig.Params) == 0 {
		return &UnsupportedTypeError{Func: sig.Name}
	}
	for _, p := range sig.Params {
		if !byteShaped(p.Type) {
			return &UnsupportedTypeError{Func: sig.Name, Param: p.Name, Type: p.TypeSrc}
		}
	}
	return nil
}

// byteShaped reports whether a type expression reduces to the single-byte
// unsigned integer type. It terminates for all finite nestings: each
// recursion strips one syntactic wrapper.
func byteShaped(expr ast.Expr) bool {
	switch t := expr.(type) {
	case *ast.ArrayType:
		// Covers both [N]T and []T.
		return byteShaped(t.Elt)
	case *ast.StarExpr:
		return byteShaped(t.X)
	case *ast.ParenExpr:
		return byteShaped(t.X)
	case *ast.Ident:
		return t.Name == "byte" || t.Name == "uint8"
	default:
		return false
	}
}
