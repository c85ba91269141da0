// Package session identifies one planner or executor invocation. Every
// execution record written during a run carries the session id, giving the
// log a total order per run usable for audit replay.
package session

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is created once per invocation and passed to every component that
// writes execution records. There is no process-wide session state.
type Session struct {
	ID        string
	Logger    *zap.Logger
	StartedAt time.Time
}

// New creates a session with a fresh id and a logger carrying it as a field.
func New(logger *zap.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		ID:        id,
		Logger:    logger.With(zap.String("session_id", id)),
		StartedAt: time.Now(),
	}
}
