package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"
)

// GenerateUniqueFilename builds a collision-resistant object key for an
// uploaded file, keeping the original extension.
// Format: {unix-ms}-{randomhex}{.ext}
func GenerateUniqueFilename(original string) (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	ext := strings.ToLower(path.Ext(original))
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), hex.EncodeToString(b), ext), nil
}
