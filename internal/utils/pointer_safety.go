package utils

// Ptr returns a pointer to a copy of v. Optional request fields use it.
func Ptr[T any](v T) *T {
	return &v
}
