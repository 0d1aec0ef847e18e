package tool

import "unsafe"

// BytesToString converts a byte slice to a string without allocating memory.
// The returned string should be used within the same scope as the original byte slice.
func BytesToString(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

// Snippet returns at most n bytes of b as a string for log lines, without copying.
func Snippet(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return BytesToString(b)
}
