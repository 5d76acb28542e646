package chat_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/ergodesk/backend/internal/model/chat"
	"github.com/zhouzirui/ergodesk/backend/internal/model/persona"
	chatservice "github.com/zhouzirui/ergodesk/backend/internal/service/chat"
)

type staticInstructions map[string]string

func (s staticInstructions) Build(p persona.Persona) string {
	return s[p.ID]
}

func newService(gen chatservice.Generator, opts ...chatservice.Option) *chatservice.Service {
	store := persona.NewMemoryStore(persona.Seed())
	instructions := staticInstructions{persona.DefaultID: testInstruction, "gear-advisor": "You're a gear advisor."}
	return chatservice.NewService(gen, store, instructions, opts...)
}

func TestServiceGetSession(t *testing.T) {
	svc := newService(&scriptedGenerator{})
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "gear-advisor")
	require.NoError(t, err)

	got, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, "gear-advisor", got.PersonaID)
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := newService(&scriptedGenerator{})

	_, err := svc.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, chatservice.ErrSessionNotFound)
}

func TestServiceCreateSessionPersonaRules(t *testing.T) {
	ctx := context.Background()

	_, err := newService(&scriptedGenerator{}).CreateSession(ctx, "")
	assert.ErrorIs(t, err, chatservice.ErrPersonaRequired)

	_, err = newService(&scriptedGenerator{}).CreateSession(ctx, "nobody")
	assert.ErrorIs(t, err, chatservice.ErrPersonaNotFound)

	session, err := newService(&scriptedGenerator{}, chatservice.WithDefaultPersona(persona.DefaultID)).CreateSession(ctx, " ")
	require.NoError(t, err)
	assert.Equal(t, persona.DefaultID, session.PersonaID)
}

func TestServiceSessionsAreIndependent(t *testing.T) {
	gen := &scriptedGenerator{}
	svc := newService(gen)
	ctx := context.Background()

	a, err := svc.CreateSession(ctx, persona.DefaultID)
	require.NoError(t, err)
	b, err := svc.CreateSession(ctx, "gear-advisor")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, a.ID, "My desk is too high")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, b.ID, "Which chair?")
	require.NoError(t, err)

	require.Len(t, gen.calls, 2)
	assert.Equal(t, testInstruction+"\n\nMy desk is too high", gen.calls[0].payload)
	assert.Equal(t, "You're a gear advisor.\n\nWhich chair?", gen.calls[1].payload)

	history, sent, err := svc.History(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Len(t, history, 2)
}

func TestServiceEndSession(t *testing.T) {
	svc := newService(&scriptedGenerator{})
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, persona.DefaultID)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Count())

	require.NoError(t, svc.EndSession(ctx, session.ID))
	assert.Equal(t, 0, svc.Count())
	assert.ErrorIs(t, svc.EndSession(ctx, session.ID), chatservice.ErrSessionNotFound)

	_, err = svc.Submit(ctx, session.ID, "hello")
	assert.ErrorIs(t, err, chatservice.ErrSessionNotFound)
}

// blockingGenerator holds every call until release is closed.
type blockingGenerator struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *blockingGenerator) Generate(ctx context.Context, _ []chat.Turn, _ string) (string, error) {
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
		return "done", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestServiceRejectsConcurrentSubmission(t *testing.T) {
	gen := &blockingGenerator{entered: make(chan struct{}), release: make(chan struct{})}
	svc := newService(gen)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, persona.DefaultID)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, session.ID, "first")
		done <- err
	}()

	<-gen.entered
	_, err = svc.Submit(ctx, session.ID, "second")
	assert.ErrorIs(t, err, chatservice.ErrSessionBusy)

	close(gen.release)
	require.NoError(t, <-done)

	history, _, err := svc.History(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
