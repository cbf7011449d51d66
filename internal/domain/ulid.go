package domain

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// NewID returns a new ULID string used as a row identifier. Row identifiers are
// sortable but guessable; never use them as credentials.
func NewID() string {
	return ulid.Make().String()
}

// ParseULID parses a string into a ULID
func ParseULID(id string) (ulid.ULID, error) {
	parsedID, err := ulid.Parse(id)
	if err != nil {
		return ulid.ULID{}, fmt.Errorf("invalid ULID: %w", err)
	}
	return parsedID, nil
}
