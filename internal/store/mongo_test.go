package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Malformed ids are rejected before the collection is ever consulted, so a
// zero-value store is enough to exercise the mapping.

func TestGetByIDMalformedIDIsNotFound(t *testing.T) {
	s := &MongoStore{}
	_, err := s.GetByID(context.Background(), "not-a-hex-object-id")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMalformedIDIsNotFound(t *testing.T) {
	s := &MongoStore{}
	err := s.Delete(context.Background(), "not-a-hex-object-id")
	assert.ErrorIs(t, err, ErrNotFound)
}
