package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	nats "github.com/nats-io/nats.go"
)

// EventPublisher announces principal lifecycle events to sibling services.
// A nil publisher is allowed everywhere; callers skip the announcement.
type EventPublisher interface {
	PrincipalCreated(ctx context.Context, principalID, email, provider string) error
}

type eventPublisher struct {
	conn    *nats.Conn
	subject string
}

func NewEventPublisher(conn *nats.Conn, subject string) EventPublisher {
	return &eventPublisher{conn: conn, subject: subject}
}

func (c *eventPublisher) PrincipalCreated(ctx context.Context, principalID, email, provider string) error {
	payload := map[string]interface{}{"id": principalID, "email": email, "provider": provider}
	return requestAck(ctx, c.conn, c.subject, payload)
}

func requestAck(ctx context.Context, conn *nats.Conn, subject string, payload interface{}) error {
	data, _ := json.Marshal(payload)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	msg, err := conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return err
	}
	if msg == nil {
		return fmt.Errorf("empty response from %s", subject)
	}
	var resp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return err
	}
	if !resp.OK {
		if resp.Error != "" {
			return errors.New(resp.Error)
		}
		return fmt.Errorf("request to %s failed", subject)
	}
	return nil
}
