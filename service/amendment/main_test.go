package amendment

import (
	"testing"

	"go.uber.org/goleak"
)

// The searcher never starts goroutines of its own.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
