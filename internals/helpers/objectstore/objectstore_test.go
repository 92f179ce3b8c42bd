package objectstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "my_photo.jpg", SanitizeFilename("My Photo.JPG"))
	assert.Equal(t, "pay_proof_1_.png", SanitizeFilename("pay proof (1).png"))
	assert.Equal(t, "upload", SanitizeFilename(""))
	assert.Equal(t, "upload", SanitizeFilename("###"))
}

func TestBuildStorageKey(t *testing.T) {
	key := BuildStorageKey("failed/photos", "My Shot.png")

	assert.True(t, strings.HasPrefix(key, "failed/photos/"))
	assert.True(t, strings.HasSuffix(key, "my_shot.png"))
	assert.NotEqual(t, key, BuildStorageKey("failed/photos", "My Shot.png"))
}

func TestKeyLooksSafe(t *testing.T) {
	assert.True(t, KeyLooksSafe("photos/1-a-b.jpg"))
	assert.False(t, KeyLooksSafe(""))
	assert.False(t, KeyLooksSafe("../etc/passwd"))
	assert.False(t, KeyLooksSafe("/absolute"))
	assert.False(t, KeyLooksSafe(`\windows`))
}
