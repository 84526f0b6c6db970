package selector

import "reflect"

// Same reports whether two selector inputs are identical for memoization.
//
// Pointers, maps and channels are identical when they point to the same
// object. Functions are never identical unless both are nil. Slices are
// identical when they start at the same element of the same backing array
// and have the same length. Other comparable values (numbers, strings,
// structs of those) are compared with ==. Values that are not comparable are
// never identical, which only costs a recomputation.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Func:
		return va.IsNil() && vb.IsNil()
	case reflect.Slice:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		return va.Len() == vb.Len() && (va.Len() == 0 || va.Pointer() == vb.Pointer())
	default:
		if !va.Comparable() || !vb.Comparable() {
			return false
		}
		return va.Equal(vb)
	}
}
