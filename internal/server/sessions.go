package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/logger"
)

// sessionEntry holds the latest state of one interview. mu is held for the whole turn so a
// second message for the same session is rejected instead of racing.
type sessionEntry struct {
	mu        sync.Mutex
	session   interview.Session
	createdAt time.Time
}

type sessionTable struct {
	mu    sync.RWMutex
	items map[string]*sessionEntry
}

func newSessionTable() *sessionTable {
	return &sessionTable{items: make(map[string]*sessionEntry)}
}

func (t *sessionTable) add(s interview.Session) (string, *sessionEntry, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", nil, err
	}

	entry := &sessionEntry{session: s, createdAt: time.Now().UTC()}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.items[id.String()] = entry

	return id.String(), entry, nil
}

func (t *sessionTable) get(id string) (*sessionEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.items[id]
	return e, ok
}

func (t *sessionTable) remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.items, id)
}

type createSessionRequest struct {
	CandidateID string `json:"candidate_id"`
}

type messageRequest struct {
	Content string `json:"content"`
}

type sessionView struct {
	ID          string       `json:"id"`
	CandidateID string       `json:"candidate_id"`
	Messages    []ai.Message `json:"messages"`
	TotalTokens int          `json:"total_tokens"`
	CreatedAt   time.Time    `json:"created_at"`
}

type messageResponse struct {
	Reply   string      `json:"reply"`
	Session sessionView `json:"session"`
}

func newSessionView(id string, s interview.Session, createdAt time.Time) sessionView {
	return sessionView{
		ID:          id,
		CandidateID: s.CandidateID,
		Messages:    s.Transcript(),
		TotalTokens: s.TotalTokens(),
		CreatedAt:   createdAt,
	}
}

// CreateSession POST /api/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	candidate, ok, err := h.registry.FindByID(ctx, req.CandidateID)
	if err != nil {
		return h.failure(c, err)
	}
	if !ok {
		return errorJSON(c, http.StatusNotFound, "Invalid ID")
	}

	jd, err := h.registry.JobDescription(ctx)
	if err != nil {
		return h.failure(c, err)
	}

	session := interview.NewSession(candidate.ID, jd)
	id, entry, err := h.sessions.add(session)
	if err != nil {
		return h.failure(c, err)
	}

	h.logger.Info("interview started", logger.SessionFields(candidate.ID, id)...)

	return c.JSON(http.StatusCreated, newSessionView(id, session, entry.createdAt))
}

// GetSession GET /api/sessions/:id
func (h *Handler) GetSession(c echo.Context) error {
	id := c.Param("id")
	entry, ok := h.sessions.get(id)
	if !ok {
		return errorJSON(c, http.StatusNotFound, "session not found")
	}

	if !entry.mu.TryLock() {
		return errorJSON(c, http.StatusConflict, "a message for this session is in progress")
	}
	session := entry.session
	entry.mu.Unlock()

	return c.JSON(http.StatusOK, newSessionView(id, session, entry.createdAt))
}

// DeleteSession DELETE /api/sessions/:id
func (h *Handler) DeleteSession(c echo.Context) error {
	id := c.Param("id")
	entry, ok := h.sessions.get(id)
	if !ok {
		return errorJSON(c, http.StatusNotFound, "session not found")
	}

	if !entry.mu.TryLock() {
		return errorJSON(c, http.StatusConflict, "a message for this session is in progress")
	}
	session := entry.session
	h.sessions.remove(id)
	entry.mu.Unlock()

	h.logger.Info("interview finished",
		append(logger.SessionFields(session.CandidateID, id),
			zap.Int("total_tokens", session.TotalTokens()))...,
	)

	return c.NoContent(http.StatusNoContent)
}

// PostMessage POST /api/sessions/:id/messages
func (h *Handler) PostMessage(c echo.Context) error {
	id := c.Param("id")

	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	entry, ok := h.sessions.get(id)
	if !ok {
		return errorJSON(c, http.StatusNotFound, "session not found")
	}

	if !entry.mu.TryLock() {
		return errorJSON(c, http.StatusConflict, "a message for this session is in progress")
	}
	defer entry.mu.Unlock()

	reply, next, err := h.interviewer.Advance(c.Request().Context(), entry.session, req.Content)
	if err != nil {
		return h.failure(c, err)
	}
	entry.session = next

	return c.JSON(http.StatusOK, messageResponse{
		Reply:   reply,
		Session: newSessionView(id, next, entry.createdAt),
	})
}
