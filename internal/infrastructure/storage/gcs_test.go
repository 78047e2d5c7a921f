package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURL(t *testing.T) {
	assert.Equal(t,
		"https://storage.googleapis.com/zen-avatars/avatars/u1/a.png",
		PublicURL("zen-avatars", "avatars/u1/a.png"))
}
