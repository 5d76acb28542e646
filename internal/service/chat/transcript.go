package chat

import (
	"time"

	"github.com/zhouzirui/ergodesk/backend/internal/model/chat"
)

// Transcript holds one session's ordered turns and whether the consultant
// instruction has been delivered. It keeps two views of the same
// conversation: the displayable turns, and the generator context in which the
// first user turn carries the instruction as it was actually sent. It is not
// safe for concurrent use.
type Transcript struct {
	turns           []chat.Turn
	context         []chat.Turn
	instructionSent bool
}

// NewTranscript returns an empty transcript with the instruction still pending.
func NewTranscript() *Transcript {
	return &Transcript{
		turns:   make([]chat.Turn, 0, 16),
		context: make([]chat.Turn, 0, 16),
	}
}

// Append records a turn whose displayed and sent text are the same.
func (t *Transcript) Append(role chat.Role, text string) {
	t.AppendSent(role, text, text)
}

// AppendSent records a turn displayed as text but forwarded to the generator
// as sent.
func (t *Transcript) AppendSent(role chat.Role, text, sent string) {
	now := time.Now().UTC()
	t.turns = append(t.turns, chat.Turn{Role: role, Text: text, CreatedAt: now})
	t.context = append(t.context, chat.Turn{Role: role, Text: sent, CreatedAt: now})
}

// Turns returns a copy of the displayable turns in insertion order.
func (t *Transcript) Turns() []chat.Turn {
	return copyTurns(t.turns)
}

// Context returns a copy of the turns as they were sent to the generator.
func (t *Transcript) Context() []chat.Turn {
	return copyTurns(t.context)
}

func (t *Transcript) Len() int {
	return len(t.turns)
}

func (t *Transcript) InstructionSent() bool {
	return t.instructionSent
}

// MarkInstructionSent flips the one-shot flag. It never goes back to false.
func (t *Transcript) MarkInstructionSent() {
	t.instructionSent = true
}

func copyTurns(turns []chat.Turn) []chat.Turn {
	copied := make([]chat.Turn, len(turns))
	copy(copied, turns)
	return copied
}
