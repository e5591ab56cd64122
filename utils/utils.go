package utils

// Ptr returns a pointer to v. Handy for optional struct fields.
func Ptr[T any](v T) *T {
	return &v
}

// OrZero dereferences p, returning the zero value for nil.
func OrZero[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
