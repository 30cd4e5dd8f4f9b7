package id

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a := New()
	b := New()

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 26)

	_, err := ulid.ParseStrict(a)
	require.NoError(t, err)
}
