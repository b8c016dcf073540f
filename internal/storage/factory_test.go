package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreMemory(t *testing.T) {
	for _, kind := range []string{"", "memory"} {
		store, err := NewStore(kind, "")
		require.NoError(t, err)
		require.NotNil(t, store)
		require.NoError(t, store.Init(context.Background()))
		assert.NoError(t, CloseIfSupported(store))
	}
}

func TestNewStoreUnsupported(t *testing.T) {
	_, err := NewStore("unknown", "")
	assert.ErrorContains(t, err, "unsupported store backend")
}
