package utils

import "github.com/google/uuid"

// NewID returns a random identifier for portal entities.
func NewID() string { return uuid.NewString() }

// NewToken returns an opaque session token. Tokens carry no structure;
// everything about a session lives server-side.
func NewToken() string { return uuid.NewString() }
