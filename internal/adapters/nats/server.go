package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	nats "github.com/nats-io/nats.go"

	"github.com/cozydenis/auth-lab/internal/domain"
)

// SessionRestorer is the slice of the session manager the responder needs.
type SessionRestorer interface {
	Restore(ctx context.Context, sessionID string) (*domain.Profile, error)
}

// VerifyHandler answers session introspection requests over NATS so sibling
// services can validate a sid without an HTTP round trip.
type VerifyHandler struct {
	sessions  SessionRestorer
	respondFn func(msg *nats.Msg, resp VerifyResponse)
}

type verifyRequest struct {
	SessionID string `json:"session_id"`
}

type VerifyResponse struct {
	OK          bool   `json:"ok"`
	PrincipalID string `json:"principal_id,omitempty"`
	Email       string `json:"email,omitempty"`
	Nickname    string `json:"nickname,omitempty"`
	Error       string `json:"error,omitempty"`
}

func NewVerifyHandler(sessions SessionRestorer) *VerifyHandler {
	return &VerifyHandler{sessions: sessions, respondFn: respond}
}

// SetResponder swaps the reply function, used by tests to capture responses.
func (h *VerifyHandler) SetResponder(fn func(msg *nats.Msg, resp VerifyResponse)) {
	h.respondFn = fn
}

func (h *VerifyHandler) Subscribe(conn *nats.Conn, subject, queue string) error {
	if conn == nil {
		return errors.New("nats connection is nil")
	}
	_, err := conn.QueueSubscribe(subject, queue, h.Handle)
	return err
}

func (h *VerifyHandler) Handle(msg *nats.Msg) {
	var req verifyRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		h.respondFn(msg, VerifyResponse{OK: false, Error: "invalid_payload"})
		return
	}
	if req.SessionID == "" {
		h.respondFn(msg, VerifyResponse{OK: false, Error: "session_missing"})
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	profile, err := h.sessions.Restore(ctx, req.SessionID)
	if err != nil || profile == nil {
		h.respondFn(msg, VerifyResponse{OK: false, Error: "invalid_session"})
		return
	}
	h.respondFn(msg, VerifyResponse{OK: true, PrincipalID: profile.ID, Email: profile.Email, Nickname: profile.Nickname})
}

func respond(msg *nats.Msg, resp VerifyResponse) {
	data, _ := json.Marshal(resp)
	_ = msg.Respond(data)
}
