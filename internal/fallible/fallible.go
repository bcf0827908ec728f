// pattern: Functional Core

// Package fallible runs operations whose failure is expected and replaces
// the failure with a default value.
package fallible

// Or runs fn and returns its value, or def when fn returns an error.
// A panic inside fn is not recovered.
func Or[T any](fn func() (T, error), def T) T {
	v, err := fn()
	if err != nil {
		return def
	}
	return v
}

// OrZero is Or with the zero value of T as default.
func OrZero[T any](fn func() (T, error)) T {
	var zero T
	return Or(fn, zero)
}

// First returns the first non-zero result produced by the steps, in order.
// A step that fails counts as producing nothing. ok is false when every
// step came up empty.
func First[T comparable](steps ...func() (T, error)) (v T, ok bool) {
	var zero T
	for _, step := range steps {
		if got := OrZero(step); got != zero {
			return got, true
		}
	}
	return zero, false
}
