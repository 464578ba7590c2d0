//go:build debugassert

package player

import "fmt"

func assertInvariant(format string, args ...any) {
	panic(fmt.Sprintf("invariant violated: "+format, args...))
}
