package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFirstMatch(t *testing.T) {
	r, err := New([]string{"data.frame", "tbl_df"}, []string{"df", "tbl"})
	require.NoError(t, err)

	h, tag, ok := Resolve([]string{"tbl_df", "tbl", "data.frame"}, r)
	assert.True(t, ok)
	assert.Equal(t, "tbl_df", tag)
	assert.Equal(t, "tbl", h)

	h, tag, ok = Resolve([]string{"grouped", "data.frame"}, r)
	assert.True(t, ok)
	assert.Equal(t, "data.frame", tag)
	assert.Equal(t, "df", h)
}

func TestResolveNoMatch(t *testing.T) {
	r, err := New([]string{"blob"}, []int{1})
	require.NoError(t, err)

	h, tag, ok := Resolve([]string{"other", "thing"}, r)
	assert.False(t, ok)
	assert.Empty(t, tag)
	assert.Zero(t, h)

	_, _, ok = Resolve(nil, r)
	assert.False(t, ok)

	_, _, ok = Resolve[int]([]string{"blob"}, nil)
	assert.False(t, ok)
}
