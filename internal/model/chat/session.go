package chat

import "time"

// Session describes a live consultation bound to a consultant persona.
type Session struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"personaId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Exchange is the outcome of one successful submission.
type Exchange struct {
	// Sent is the exact payload forwarded to the generator.
	Sent  string `json:"-"`
	Reply string `json:"reply"`
	// InstructionIncluded is true only for the submission that carried the
	// consultant instruction.
	InstructionIncluded bool `json:"instructionIncluded"`
	// History is the displayable transcript right after this exchange was recorded.
	History []Turn `json:"history"`
}
