package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSingleSource(t *testing.T) {
	merged, conflict := Merge(map[string]string{SourceBearer: "abc"})
	require.Nil(t, conflict)
	assert.Equal(t, "abc", merged)
}

func TestMergeIdenticalValues(t *testing.T) {
	merged, conflict := Merge(map[string]string{
		SourceBearer: "abc",
		SourceCookie: "abc",
	})
	require.Nil(t, conflict)
	assert.Equal(t, "abc", merged)
}

func TestMergeDistinctValues(t *testing.T) {
	merged, conflict := Merge(map[string]string{
		SourceBearer: "abc",
		SourceCookie: "def",
	})
	require.NotNil(t, conflict)
	assert.Empty(t, merged)
	assert.Equal(t, 2, conflict.Count)
	assert.Equal(t, []string{SourceBearer, SourceCookie}, conflict.Sources)
	assert.Contains(t, conflict.Error(), "2 different tokens")
}

func TestMergeEmpty(t *testing.T) {
	merged, conflict := Merge(map[string]string{})
	require.Nil(t, conflict)
	assert.Empty(t, merged)

	merged, conflict = Merge(map[string]string{SourceCookie: ""})
	require.Nil(t, conflict)
	assert.Empty(t, merged)
}
