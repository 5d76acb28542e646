package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/ergodesk/backend/internal/model/chat"
	"github.com/zhouzirui/ergodesk/backend/internal/model/persona"
)

// InstructionSource builds the instruction text for a consultant persona.
type InstructionSource interface {
	Build(p persona.Persona) string
}

// Option customises a Service.
type Option func(*Service)

// WithLogger sets the logger used for session lifecycle events.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultPersona sets the persona used when CreateSession gets an empty id.
func WithDefaultPersona(id string) Option {
	return func(s *Service) {
		s.defaultPersona = strings.TrimSpace(id)
	}
}

type liveSession struct {
	session    chat.Session
	controller *Controller
	// inflight serialises submissions within one session.
	inflight sync.Mutex
}

// Service owns the live sessions. Each session has its own Controller and
// transcript; the lock only guards the registry map.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*liveSession

	generator      Generator
	personas       persona.Store
	instructions   InstructionSource
	defaultPersona string
	logger         *zap.Logger
}

// NewService bootstraps the in-memory session registry.
func NewService(generator Generator, personas persona.Store, instructions InstructionSource, opts ...Option) *Service {
	s := &Service{
		sessions:     make(map[string]*liveSession),
		generator:    generator,
		personas:     personas,
		instructions: instructions,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession provisions a session bound to a consultant persona. An empty
// personaID selects the default persona when one is configured.
func (s *Service) CreateSession(_ context.Context, personaID string) (chat.Session, error) {
	personaID = strings.TrimSpace(personaID)
	if personaID == "" {
		personaID = s.defaultPersona
	}
	if personaID == "" {
		return chat.Session{}, ErrPersonaRequired
	}

	p, ok := s.personas.FindByID(personaID)
	if !ok {
		return chat.Session{}, ErrPersonaNotFound
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		PersonaID: p.ID,
		CreatedAt: time.Now().UTC(),
	}

	live := &liveSession{
		session:    session,
		controller: NewController(s.generator, s.instructions.Build(p)),
	}

	s.mu.Lock()
	s.sessions[session.ID] = live
	s.mu.Unlock()

	s.logger.Info("session created",
		zap.String("session_id", session.ID),
		zap.String("persona_id", session.PersonaID))
	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	live, err := s.lookup(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	return live.session, nil
}

// Submit forwards one user message for the session. It returns ErrSessionBusy
// when another submission for the same session is still outstanding.
func (s *Service) Submit(ctx context.Context, sessionID, text string) (chat.Exchange, error) {
	live, err := s.lookup(sessionID)
	if err != nil {
		return chat.Exchange{}, err
	}

	if !live.inflight.TryLock() {
		return chat.Exchange{}, ErrSessionBusy
	}
	defer live.inflight.Unlock()

	started := time.Now()
	exchange, err := live.controller.Submit(ctx, text)
	if err != nil {
		var genErr *GeneratorError
		if errors.As(err, &genErr) {
			s.logger.Warn("generator call failed",
				zap.String("session_id", sessionID),
				zap.Duration("elapsed", time.Since(started)),
				zap.Error(genErr.Err))
		}
		return chat.Exchange{}, err
	}

	s.logger.Info("reply generated",
		zap.String("session_id", sessionID),
		zap.Bool("instruction_included", exchange.InstructionIncluded),
		zap.Int("reply_length", len(exchange.Reply)),
		zap.Duration("elapsed", time.Since(started)))
	return exchange, nil
}

// History returns the displayable turns and whether the instruction was sent.
func (s *Service) History(_ context.Context, sessionID string) ([]chat.Turn, bool, error) {
	live, err := s.lookup(sessionID)
	if err != nil {
		return nil, false, err
	}

	live.inflight.Lock()
	defer live.inflight.Unlock()
	return live.controller.History(), live.controller.InstructionSent(), nil
}

// EndSession discards the session and its transcript.
func (s *Service) EndSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.logger.Info("session ended", zap.String("session_id", sessionID))
	return nil
}

// Count reports the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Service) lookup(sessionID string) (*liveSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	live, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return live, nil
}
