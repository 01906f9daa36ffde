package clipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverrideLock(t *testing.T) {
	tests := []struct {
		name   string
		first  bool
		second bool
	}{
		{"false then false", false, false},
		{"false then true", false, true},
		{"true then false", true, false},
		{"true then true", true, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var l overrideLock

			_, held := l.get()
			require.False(t, held)

			release, err := l.acquire(tc.first)
			require.NoError(t, err)
			value, held := l.get()
			assert.True(t, held)
			assert.Equal(t, tc.first, value)

			_, err = l.acquire(tc.second)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIllegalState))
			value, held = l.get()
			assert.True(t, held)
			assert.Equal(t, tc.first, value, "failed acquire must not overwrite")

			release()
			_, held = l.get()
			assert.False(t, held)

			release()
			_, held = l.get()
			assert.False(t, held)
		})
	}
}

func TestOverrideLockStaleReleaseIsNoop(t *testing.T) {
	var l overrideLock

	first, err := l.acquire(false)
	require.NoError(t, err)
	first()

	second, err := l.acquire(true)
	require.NoError(t, err)

	// A handle from an earlier acquisition never frees a newer holder.
	first()
	value, held := l.get()
	assert.True(t, held)
	assert.True(t, value)

	second()
	_, held = l.get()
	assert.False(t, held)
}
