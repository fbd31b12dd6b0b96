package evstore_test

import (
	"fmt"
	"testing"

	"github.com/Hubmakerlabs/localstr/pkg/store"
	"github.com/Hubmakerlabs/localstr/pkg/store/evstore"
	"github.com/Hubmakerlabs/localstr/pkg/store/storetest"
)

func TestBackend(t *testing.T) {
	storetest.Run(t, func() store.I { return evstore.New() })
}

// TestSmallPages runs the suite with pages smaller than the number of events
// sharing a timestamp in some cases.
func TestSmallPages(t *testing.T) {
	for _, size := range []int{1, 2, 3} {
		t.Run(fmt.Sprintf("page%d", size), func(t *testing.T) {
			storetest.Run(t, func() store.I {
				b := evstore.New()
				b.PageSize = size
				return b
			})
		})
	}
}
