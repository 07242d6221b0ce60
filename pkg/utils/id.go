package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateID returns a random identifier, optionally prefixed ("job_<uuid>").
func GenerateID(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return prefix + "_" + strings.ReplaceAll(id, "-", "")
}
