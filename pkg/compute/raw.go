package compute

import "reflect"

// Raw flattens a byte-sequence-shaped value into its raw bytes. Generated
// dispatchers call it on each argument before marshaling; the accepted
// shapes mirror the transformer's validator: any finite nesting of
// arrays, slices and pointers around byte elements.
func Raw(v any) []byte {
	var out []byte
	return appendRaw(out, reflect.ValueOf(v))
}

func appendRaw(out []byte, v reflect.Value) []byte {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return out
		}
		return appendRaw(out, v.Elem())
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			if v.Kind() == reflect.Slice {
				return append(out, v.Bytes()...)
			}
			for i := 0; i < v.Len(); i++ {
				out = append(out, byte(v.Index(i).Uint()))
			}
			return out
		}
		for i := 0; i < v.Len(); i++ {
			out = appendRaw(out, v.Index(i))
		}
		return out
	case reflect.Uint8:
		return append(out, byte(v.Uint()))
	default:
		return out
	}
}
