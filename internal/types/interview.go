package types

import "time"

// Interview is a mock interview owned by the interview-generation flow.
// This service only reads it.
type Interview struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Level     string    `json:"level,omitempty"`
	Type      string    `json:"type,omitempty"`
	TechStack []string  `json:"techstack,omitempty"`
	Questions []string  `json:"questions,omitempty"`
	UserID    string    `json:"userId"`
	Finalized bool      `json:"finalized"`
	CreatedAt time.Time `json:"createdAt"`
}
