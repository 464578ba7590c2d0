//go:build !debugassert

package player

func assertInvariant(string, ...any) {}
