package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Key validation runs before any network call, so a zero-value store is
// enough to exercise it.

func TestPhotoKeyValidation(t *testing.T) {
	bad := []string{"", "/absolute", "user-1//double", "user-1/../escape", "user-1/.", "trailing/"}
	s := &MinioStore{bucket: "entry-photos"}
	ctx := context.Background()

	for _, key := range bad {
		assert.ErrorIs(t, s.Upload(ctx, key, []byte("x"), "image/jpeg"), ErrBadPhotoKey, "upload %q", key)
		_, _, err := s.Download(ctx, key)
		assert.ErrorIs(t, err, ErrBadPhotoKey, "download %q", key)
		assert.ErrorIs(t, s.Remove(ctx, key), ErrBadPhotoKey, "remove %q", key)
	}

	assert.True(t, validPhotoKey("user-1/5f3b1c2d-photo"))
}
