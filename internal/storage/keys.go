package storage

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// ObjectKey derives a globally unique storage key for an upload, scoped
// under the owning user's namespace:
//
//	{ownerID}/pets/{random token}-{sanitized filename}
//
// The random token keeps keys unique even when the same filename is
// uploaded twice.
func ObjectKey(ownerID uuid.UUID, filename string) string {
	sanitized := unsafeKeyChars.ReplaceAllString(filename, "_")
	return fmt.Sprintf("%s/pets/%s-%s", ownerID, uuid.New(), sanitized)
}
