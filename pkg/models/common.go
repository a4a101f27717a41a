package models

import (
	"github.com/google/uuid"
)

// NewUUID returns a random identifier used for runs, events and trace ids
func NewUUID() string {
	return uuid.New().String()
}

// IsUUID reports whether id is a well-formed run or event identifier
func IsUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
