// Package types provides type definitions for structured data used throughout the mock interview service.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// Role identifies the speaker of a transcript entry
type Role string

// Speaker roles emitted by the voice provider
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known speaker roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// ParseRole normalizes a provider role string. Unknown roles return false.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// TranscriptEntry is one finalized utterance of a call, in chronological order
type TranscriptEntry struct {
	Role    Role   `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}
