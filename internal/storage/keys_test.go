package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestObjectKey_Shape(t *testing.T) {
	owner := uuid.New()

	key := ObjectKey(owner, "photo.jpg")

	assert.True(t, strings.HasPrefix(key, owner.String()+"/pets/"))
	assert.True(t, strings.HasSuffix(key, "-photo.jpg"))
}

func TestObjectKey_SanitizesFilename(t *testing.T) {
	owner := uuid.New()

	key := ObjectKey(owner, "my pet's photo (1).jpg")

	rest := strings.TrimPrefix(key, owner.String()+"/pets/")
	assert.True(t, strings.HasSuffix(rest, "-my_pet_s_photo__1_.jpg"))
	// dots and dashes survive, everything else outside [a-zA-Z0-9] does not
	assert.NotContains(t, rest, " ")
	assert.NotContains(t, rest, "'")
	assert.NotContains(t, rest, "(")
}

func TestObjectKey_UniquePerUpload(t *testing.T) {
	owner := uuid.New()

	first := ObjectKey(owner, "same.png")
	second := ObjectKey(owner, "same.png")

	assert.NotEqual(t, first, second)
}
