package verify

import (
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"google.golang.org/protobuf/testing/protocmp"
)

// compareOptions is shared by Equal and Diff so a verdict and its diff can
// never disagree. Nil and empty collections are equal.
var compareOptions = []cmp.Option{
	cmpopts.EquateEmpty(),
	protocmp.Transform(),
}

// Equal reports whether x and y are structurally equal.
func Equal(x, y any) bool {
	return cmp.Equal(x, y, compareOptions...)
}

// Diff renders the structural difference between expected and received.
// Lines prefixed with "-" are expected, "+" received. Equal values give "".
func Diff(expected, received any) string {
	// cmp varies its padding between spaces and U+00A0 per process.
	return strings.ReplaceAll(cmp.Diff(expected, received, compareOptions...), "\u00a0", " ")
}
