package data

import (
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Whatever window size GetLast caches under, a post-sync invalidation
// must drop it. The pattern and the key are built independently, so
// this pins them together.
func TestInvalidationPattern_CoversEveryLastKey(t *testing.T) {
	for _, n := range []int{1, 60, 120, 250, 730, 1000} {
		key := lastKey("AAPL.US", n)
		matched, err := path.Match(invalidationPattern("AAPL.US"), key)
		require.NoError(t, err)
		assert.True(t, matched, "pattern should cover %s", key)
	}
}

func TestInvalidationPattern_OtherSymbolsUntouched(t *testing.T) {
	matched, err := path.Match(invalidationPattern("AAPL.US"), lastKey("MSFT.US", 730))
	require.NoError(t, err)
	assert.False(t, matched)
}
