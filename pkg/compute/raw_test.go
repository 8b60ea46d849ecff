package compute

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRaw(t *testing.T) {
	slice := []byte{1, 2, 3}
	arr := [3]byte{4, 5, 6}
	nested := [][]byte{{7}, {8, 9}}

	cases := []struct {
		name string
		in   any
		want []byte
	}{
		{"byte", byte(42), []byte{42}},
		{"slice", slice, []byte{1, 2, 3}},
		{"array", arr, []byte{4, 5, 6}},
		{"pointer to slice", &slice, []byte{1, 2, 3}},
		{"pointer to array", &arr, []byte{4, 5, 6}},
		{"nested slices", nested, []byte{7, 8, 9}},
		{"array of arrays", [2][2]byte{{1, 2}, {3, 4}}, []byte{1, 2, 3, 4}},
		{"slice of pointers", []*[]byte{&slice}, []byte{1, 2, 3}},
		{"nil pointer", (*[]byte)(nil), nil},
		{"empty slice", []byte{}, nil},
		{"non-byte value", "ignored", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Raw(tc.in)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Raw(%v) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}
