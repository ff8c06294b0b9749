package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"scwm-service/internal/domain"
	"scwm-service/internal/platform/obs"
	"scwm-service/internal/ports"
	"scwm-service/internal/proximity"
)

// SessionConfig tunes map sessions. Zero values take the defaults: zoom 15,
// 30 minute idle TTL and a 15 second route fetch timeout.
type SessionConfig struct {
	FocusZoom    int
	IdleTTL      time.Duration
	RouteTimeout time.Duration
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.FocusZoom <= 0 {
		c.FocusZoom = proximity.DefaultFocusZoom
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 30 * time.Minute
	}
	if c.RouteTimeout <= 0 {
		c.RouteTimeout = 15 * time.Second
	}
	return c
}

// Session is one visitor's map: a proximity controller and the renderer
// that records what the client should draw.
type Session struct {
	ID         string
	Controller *proximity.Controller
	CreatedAt  time.Time

	renderer *sessionRenderer
	lastUsed time.Time // guarded by SessionManager.mu
}

// SessionSnapshot is the client-facing view of a session.
type SessionSnapshot struct {
	ID       string
	State    proximity.State
	Location proximity.LocationStatus
	Ranked   []domain.RankedCenter
	// Rankings counts recomputes of the ranked view.
	Rankings int
	Camera   *proximity.CameraFocus
	Route    *RouteView
}

func (s *Session) Snapshot() SessionSnapshot {
	rs := s.renderer.snapshot()
	return SessionSnapshot{
		ID:       s.ID,
		State:    s.Controller.State(),
		Location: s.Controller.LocationStatus(),
		Ranked:   rs.ranked,
		Rankings: rs.rankings,
		Camera:   rs.camera,
		Route:    rs.route,
	}
}

// Locate drives the one-shot position acquisition and waits for it.
// Only the request that starts the attempt succeeds; any other, including
// one arriving while the attempt is still running, gets
// domain.ErrPositionAlreadySet.
func (s *Session) Locate(ctx context.Context, g ports.Geolocator) error {
	done, started := s.Controller.TryLocate(ctx, g)
	if !started {
		return domain.ErrPositionAlreadySet
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) close() {
	s.Controller.Close()
	s.renderer.wait()
}

// SessionManager owns the live map sessions.
type SessionManager struct {
	centers ports.CenterRepository
	routes  ports.RouteProvider
	cfg     SessionConfig
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewSessionManager creates an empty registry. Sessions load their centers
// from centers and fetch route overlays through routes, which may be nil.
func NewSessionManager(centers ports.CenterRepository, routes ports.RouteProvider, cfg SessionConfig) *SessionManager {
	return &SessionManager{
		centers:  centers,
		routes:   routes,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create opens a session loaded with the current center list.
func (m *SessionManager) Create(ctx context.Context) (_ *Session, err error) {
	defer obs.Time(ctx, "sessions.Create")(&err)

	centers, err := m.centers.ListCenters(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "create session: list centers")
	}

	id := uuid.NewString()
	log := zap.L().With(zap.String("session_id", id))
	renderer := newSessionRenderer(m.routes, m.cfg.RouteTimeout, log)
	ctrl := proximity.New(renderer,
		proximity.WithFocusZoom(m.cfg.FocusZoom),
		proximity.WithLogger(log),
	)
	// Invalid entries are logged by the controller and skipped.
	_ = ctrl.SetCenters(centers)

	now := m.now()
	s := &Session{
		ID:         id,
		Controller: ctrl,
		CreatedAt:  now,
		renderer:   renderer,
		lastUsed:   now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		ctrl.Close()
		return nil, eris.New("create session: manager closed")
	}
	m.sessions[id] = s
	obs.MapSessionsActive.Inc()

	log.Info("map session created", zap.Int("centers", len(centers)))
	return s, nil
}

// Get returns a live session and marks it as used.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, eris.Wrapf(domain.ErrSessionNotFound, "session %q", id)
	}
	s.lastUsed = m.now()
	return s, nil
}

// Delete tears a session down.
func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		obs.MapSessionsActive.Dec()
	}
	m.mu.Unlock()

	if !ok {
		return eris.Wrapf(domain.ErrSessionNotFound, "session %q", id)
	}
	s.close()
	return nil
}

// Len reports the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many.
func (m *SessionManager) Sweep() int {
	cutoff := m.now().Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.lastUsed.Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
			obs.MapSessionsActive.Dec()
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.close()
	}
	if len(expired) > 0 {
		zap.L().Info("expired idle map sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done, then closes every session.
func (m *SessionManager) Run(ctx context.Context) error {
	interval := m.cfg.IdleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Close()
			return nil
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Close tears down every session; later Create calls fail.
func (m *SessionManager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
		obs.MapSessionsActive.Dec()
	}
	m.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}
