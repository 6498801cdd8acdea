package kverrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs(t *testing.T) {
	assert.True(t, Is(ErrUnknownShard, KindUnknownShard))
	assert.True(t, Is(ErrNotFound, KindNotFound))
	assert.False(t, Is(ErrNotFound, KindUnknownShard))
	assert.False(t, Is(errors.New("plain"), KindInternal))
}

func TestInternalWrapsCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := Internal(cause)

	assert.True(t, Is(err, KindInternal))
	assert.ErrorIs(t, err, cause)
}

func TestErrorString(t *testing.T) {
	assert.Contains(t, ErrUnknownShard.Error(), "unknown_shard")
}
