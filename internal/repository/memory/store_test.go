package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/errors"
)

func TestBlobStore_ReadMissing(t *testing.T) {
	_, err := NewBlobStore().Read(context.Background(), "k")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBlobStore_WriteCopiesInput(t *testing.T) {
	s := NewBlobStore()
	ctx := context.Background()

	data := []byte("abc")
	require.NoError(t, s.Write(ctx, "k", data))
	data[0] = 'X'

	got, err := s.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'Y'
	again, err := s.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestBlobStore_FailWith(t *testing.T) {
	s := NewBlobStore()
	ctx := context.Background()
	boom := errors.New("disk full")

	s.FailWith(boom)
	assert.ErrorIs(t, s.Write(ctx, "k", []byte("v")), boom)
	_, err := s.Read(ctx, "k")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Ping(ctx), boom)

	s.FailWith(nil)
	require.NoError(t, s.Write(ctx, "k", []byte("v")))
	assert.NoError(t, s.Ping(ctx))
}
