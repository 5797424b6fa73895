package service

// limit keeps at most n leading transactions; n <= 0 keeps everything.
func limit[T any](items []T, n int) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[:n]
}

// lockOrder returns the two wallet ids in the global lock order.
func lockOrder(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
