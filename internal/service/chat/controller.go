package chat

import (
	"context"
	"strings"

	"github.com/zhouzirui/ergodesk/backend/internal/model/chat"
)

// Generator is the text-generation backend a Controller forwards payloads to.
type Generator interface {
	Generate(ctx context.Context, history []chat.Turn, payload string) (string, error)
}

// Controller runs the submit/history contract for a single session.
type Controller struct {
	transcript  *Transcript
	generator   Generator
	instruction string
}

// NewController binds a fresh transcript to generator. instruction is
// prepended to the first successful submission only.
func NewController(generator Generator, instruction string) *Controller {
	return &Controller{
		transcript:  NewTranscript(),
		generator:   generator,
		instruction: instruction,
	}
}

// Submit sends text to the generator and records the exchange. The generator
// receives the prior turns as sent, so the instruction stays in its context
// for the whole session while History never shows it. Blank text
// returns ErrEmptyMessage without calling the generator. A generator failure
// returns *GeneratorError and records nothing.
func (c *Controller) Submit(ctx context.Context, text string) (chat.Exchange, error) {
	userText := strings.TrimSpace(text)
	if userText == "" {
		return chat.Exchange{}, ErrEmptyMessage
	}

	withInstruction := !c.transcript.InstructionSent()
	payload := c.outbound(userText, withInstruction)

	reply, err := c.generator.Generate(ctx, c.transcript.Context(), payload)
	if err != nil {
		return chat.Exchange{}, &GeneratorError{Err: err}
	}

	c.transcript.AppendSent(chat.RoleUser, userText, payload)
	c.transcript.Append(chat.RoleAssistant, reply)
	if withInstruction {
		c.transcript.MarkInstructionSent()
	}

	return chat.Exchange{
		Sent:                payload,
		Reply:               reply,
		InstructionIncluded: withInstruction,
		History:             c.transcript.Turns(),
	}, nil
}

func (c *Controller) outbound(userText string, withInstruction bool) string {
	if !withInstruction || c.instruction == "" {
		return userText
	}
	return c.instruction + "\n\n" + userText
}

// History returns the displayable turns. The instruction is never stored as a
// turn, so it cannot appear here.
func (c *Controller) History() []chat.Turn {
	return c.transcript.Turns()
}

func (c *Controller) InstructionSent() bool {
	return c.transcript.InstructionSent()
}
