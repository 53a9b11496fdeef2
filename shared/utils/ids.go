package utils

import "github.com/google/uuid"

// GenerateID returns prefix-<uuid v7>. The ids sort by creation time.
func GenerateID(prefix string) string {
	return prefix + "-" + uuid.Must(uuid.NewV7()).String()
}
