package session

import (
	"context"
	"sync"
	"time"

	"starmatch/internal/logger"
	"starmatch/internal/util"

	"go.uber.org/zap"
)

// Registry keeps the sessions of one server instance in memory.
type Registry struct {
	factory Factory
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates a registry whose sessions expire after idleTTL
// without requests.
func NewRegistry(factory Factory, idleTTL time.Duration) *Registry {
	return &Registry{
		factory:  factory,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the live session with id, or a new one when id is
// unknown or expired. created reports whether a new session was made.
func (r *Registry) GetOrCreate(id string) (sess *Session, created bool) {
	now := r.now()

	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		sess.touch(now)
		return sess, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	sess = New(util.NewULID(), r.factory)
	sess.touch(now)
	r.sessions[sess.ID] = sess
	logger.Get().Debug("Session created", zap.String("session_id", sess.ID))
	return sess, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep closes and forgets sessions idle for longer than the TTL.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var expired []*Session
	for id, sess := range r.sessions {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, sess)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
	}
	if len(expired) > 0 {
		logger.Get().Info("Expired idle sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close unmounts every session, releasing any open camera stream.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
	logger.Get().Info("Session registry closed", zap.Int("sessions", len(sessions)))
}
