package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"insights-agent/internal/application/port/input"
	"insights-agent/internal/application/port/output"
	"insights-agent/internal/domain/entity"
	"insights-agent/internal/usecase/insights"
)

var _ input.ChatService = (*Service)(nil)

// Service answers chat messages. Ambiguous queries trigger a
// clarification round trip; everything else goes to the LLM executor
// when one is configured, with the deterministic insights engine as the
// answer path otherwise and as the fallback when the executor fails.
type Service struct {
	store    output.SessionStore
	data     output.DatasetPort
	engine   *insights.Engine
	executor input.TaskExecutor
	logger   output.LoggerPort

	mu       sync.Mutex
	contexts map[string]*entity.SessionContext

	now func() time.Time
}

// NewService wires the chat service. executor may be nil when no LLM is
// configured.
func NewService(
	store output.SessionStore,
	data output.DatasetPort,
	engine *insights.Engine,
	executor input.TaskExecutor,
	logger output.LoggerPort,
) *Service {
	return &Service{
		store:    store,
		data:     data,
		engine:   engine,
		executor: executor,
		logger:   logger,
		contexts: make(map[string]*entity.SessionContext),
		now:      time.Now,
	}
}

func (s *Service) Ask(ctx context.Context, sessionID, message string) (*input.ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("empty message")
	}

	sessionID, err := s.ensureSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ds, err := s.data.Dataset(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	// Session contexts are shared across concurrent requests, so every
	// read-modify step goes through withContext. A pending clarification
	// turns this message into the answer to our question.
	sectors := insights.SectorNames(ds)
	query := message
	var resolved bool
	var question string
	s.withContext(sessionID, func(sc *entity.SessionContext) {
		if sc.ClarificationNeeded {
			query = CombineQuery(sc.PendingQuery, message)
			sc.ClarificationNeeded = false
			sc.ClarificationQuestion = ""
			sc.PendingQuery = ""
			resolved = true
			return
		}
		if topic, q, needed := NeedsClarification(query, sectors, *sc); needed {
			sc.ClarificationNeeded = true
			sc.ClarificationQuestion = q
			sc.PendingQuery = query
			sc.ClarificationAskedFor = topic
			question = q
		}
	})
	if resolved {
		s.logger.Debug("Clarification resolved", "session", sessionID, "query", query)
	}
	if question != "" {
		meta := s.metadata(query, nil, entity.EngineClarification, ds)
		if err := s.persistTurn(ctx, sessionID, message, question, meta); err != nil {
			return nil, err
		}
		return &input.ChatResult{SessionID: sessionID, Reply: question, Metadata: meta}, nil
	}

	reply, intents, engine := s.answer(ctx, query, ds)
	s.withContext(sessionID, func(sc *entity.SessionContext) {
		sc.LastQuery = query
	})

	meta := s.metadata(query, intents, engine, ds)
	if err := s.persistTurn(ctx, sessionID, message, reply, meta); err != nil {
		return nil, err
	}
	return &input.ChatResult{SessionID: sessionID, Reply: reply, Metadata: meta}, nil
}

func (s *Service) History(ctx context.Context, sessionID string) ([]entity.ChatMessage, error) {
	return s.store.Messages(ctx, sessionID)
}

func (s *Service) answer(ctx context.Context, query string, ds *entity.Dataset) (string, []string, string) {
	intents := insights.ExtractIntents(query)

	if s.executor != nil {
		result, err := s.executor.Execute(ctx, query)
		if err == nil && strings.TrimSpace(result.FinalAnswer) != "" {
			return result.FinalAnswer, intents, entity.EngineLLM
		}
		if err != nil {
			s.logger.Warn("LLM executor failed, using insights engine", "error", err)
		}
	}

	reply, intents := s.engine.Answer(query, ds)
	if followUps := insights.FollowUps(intents); len(followUps) > 0 {
		reply += "\n\n**You might also ask:**\n- " + strings.Join(followUps, "\n- ")
	}
	return reply, intents, entity.EngineInsights
}

func (s *Service) ensureSession(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else if _, err := s.store.GetSession(ctx, sessionID); err == nil {
		return sessionID, nil
	}

	now := s.now()
	err := s.store.CreateSession(ctx, entity.Session{ID: sessionID, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return sessionID, nil
}

// withContext runs fn against the session's clarification state while
// holding the lock. The pointer must not escape fn.
func (s *Service) withContext(sessionID string, fn func(*entity.SessionContext)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.contexts[sessionID]
	if !ok {
		sc = &entity.SessionContext{}
		s.contexts[sessionID] = sc
	}
	fn(sc)
}

func (s *Service) metadata(query string, intents []string, engine string, ds *entity.Dataset) entity.AnswerMetadata {
	return entity.AnswerMetadata{
		Query:          query,
		Timestamp:      s.now(),
		Intents:        intents,
		Engine:         engine,
		WorkOrderCount: len(ds.WorkOrders),
		DealCount:      len(ds.Deals),
	}
}

func (s *Service) persistTurn(ctx context.Context, sessionID, userMsg, reply string, meta entity.AnswerMetadata) error {
	now := s.now()
	err := s.store.AppendMessage(ctx, entity.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      entity.RoleUser,
		Content:   userMsg,
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("persist user message: %w", err)
	}
	err = s.store.AppendMessage(ctx, entity.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      entity.RoleAssistant,
		Content:   reply,
		Metadata:  &meta,
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("persist assistant message: %w", err)
	}
	return nil
}
