package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// SanitizeFilename validates a client-supplied file name and returns a safe
// base name with a lower-cased extension. Names carrying path separators,
// traversal sequences or control bytes are rejected; the caller never uses
// the result as a storage path directly, only as display metadata.
func SanitizeFilename(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("empty file name")
	}
	if strings.ContainsAny(name, "\x00") {
		return "", fmt.Errorf("file name contains control bytes")
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return "", fmt.Errorf("file name contains path elements: %s", raw)
	}

	ext := strings.ToLower(filepath.Ext(name))
	base := strings.TrimSuffix(name, filepath.Ext(name))

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.', r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	cleaned := strings.Trim(b.String(), " ._")
	if cleaned == "" {
		return "", fmt.Errorf("file name has no usable characters: %s", raw)
	}
	return cleaned + ext, nil
}

// Extension returns the lower-cased extension of a file name without the dot.
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// StoredName allocates a unique server-side name for an uploaded file,
// keeping only the sanitized extension from the original.
func StoredName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("resource_%d_%s%s", time.Now().Unix(), randomSuffix(), ext)
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
