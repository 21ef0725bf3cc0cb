package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"gamecenter/internal/game"
	"gamecenter/internal/logger"
	"gamecenter/internal/metrics"
)

// Status represents the session lifecycle.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// ErrFinished is returned for actions sent to a finished session.
var ErrFinished = errors.New("session is finished")

// Timer is a cancellable scheduled callback. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler func(d time.Duration, f func()) Timer

// AfterFunc is the wall-clock Scheduler.
func AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Client is a connected viewer of a session.
type Client struct {
	ID   string
	Send chan []byte // outbound messages
}

// Session is one mounted game match and the clients watching it.
type Session struct {
	mu        sync.Mutex
	Code      string
	GameID    string
	Status    Status
	CreatedAt time.Time
	Match     game.Match

	clients    map[string]*Client
	generation uint64
	pending    Timer
	schedule   Scheduler
	notify     func(*Session)

	// saveMu orders snapshot writes so the stored row never lags a
	// snapshot taken later.
	saveMu sync.Mutex
}

// NewSession creates a session in the waiting state around match.
func NewSession(code, gameID string, match game.Match, schedule Scheduler) *Session {
	if schedule == nil {
		schedule = AfterFunc
	}
	return &Session{
		Code:      code,
		GameID:    gameID,
		Status:    StatusWaiting,
		CreatedAt: time.Now(),
		Match:     match,
		clients:   make(map[string]*Client),
		schedule:  schedule,
	}
}

// Info is the session as reported to clients.
type Info struct {
	Code         string    `json:"code"`
	GameID       string    `json:"gameId"`
	Status       Status    `json:"status"`
	Phase        string    `json:"phase"`
	ValidActions []string  `json:"validActions"`
	State        any       `json:"state"`
	Clients      int       `json:"clients"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.infoLocked()
}

func (s *Session) infoLocked() Info {
	return Info{
		Code:         s.Code,
		GameID:       s.GameID,
		Status:       s.Status,
		Phase:        s.Match.Phase(),
		ValidActions: s.Match.ValidActions(),
		State:        s.Match.State(),
		Clients:      len(s.clients),
		CreatedAt:    s.CreatedAt,
	}
}

// Apply dispatches action into the match. Rejected actions leave the
// session and any scheduled follow-up untouched. The returned Info is the
// state after the call either way.
func (s *Session) Apply(ctx context.Context, action game.Action) (Info, error) {
	s.mu.Lock()
	err := s.applyLocked(ctx, action)
	info := s.infoLocked()
	s.mu.Unlock()

	if err == nil {
		s.changed()
	}
	return info, err
}

func (s *Session) applyLocked(ctx context.Context, action game.Action) error {
	if s.Status == StatusFinished {
		return ErrFinished
	}
	err := s.Match.ApplyAction(ctx, action)
	metrics.Actions.WithLabelValues(s.GameID, action.Type, metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}
	if s.Status == StatusWaiting {
		s.Status = StatusPlaying
	}
	s.generation++
	s.cancelPendingLocked()
	s.scheduleLocked()
	return nil
}

func (s *Session) cancelPendingLocked() {
	if s.pending == nil {
		return
	}
	if s.pending.Stop() {
		metrics.DeferredSuperseded.Inc()
		logger.Debug("pending action superseded", "session", s.Code)
	}
	s.pending = nil
}

// scheduleLocked arms the match's follow-up action, if it has one, under
// the current generation.
func (s *Session) scheduleLocked() {
	d, ok := s.Match.(game.Deferred)
	if !ok {
		return
	}
	action, delay, ok := d.Pending()
	if !ok {
		return
	}
	gen := s.generation
	s.pending = s.schedule(delay, func() { s.fire(gen, action) })
}

// fire applies a scheduled action unless the session moved on since it
// was scheduled.
func (s *Session) fire(gen uint64, action game.Action) {
	s.mu.Lock()
	if gen != s.generation || s.Status == StatusFinished {
		s.mu.Unlock()
		metrics.DeferredSuperseded.Inc()
		logger.Debug("stale scheduled action ignored", "session", s.Code, "action", action.Type)
		return
	}
	s.pending = nil
	err := s.applyLocked(context.Background(), action)
	s.mu.Unlock()

	if err != nil {
		logger.Warn("scheduled action failed", "session", s.Code, "action", action.Type, "err", err)
		return
	}
	s.changed()
}

func (s *Session) changed() {
	if s.notify != nil {
		s.notify(s)
	}
}

// Finish marks the session as finished and drops any scheduled action.
func (s *Session) Finish() {
	s.mu.Lock()
	s.Status = StatusFinished
	s.generation++
	s.cancelPendingLocked()
	s.mu.Unlock()
	s.changed()
}

// AddClient registers a viewer and returns its outbound channel holder.
func (s *Session) AddClient(id string) *Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.clients[id]; ok {
		close(old.Send)
	}
	c := &Client{ID: id, Send: make(chan []byte, 64)}
	s.clients[id] = c
	return c
}

// RemoveClient drops a viewer and closes its channel.
func (s *Session) RemoveClient(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.clients[c.ID]; ok && cur == c {
		close(c.Send)
		delete(s.clients, c.ID)
	}
}

// ClientCount returns the number of connected viewers.
func (s *Session) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Broadcast sends a message to all connected clients.
func (s *Session) Broadcast(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		select {
		case c.Send <- msg:
		default:
			// drop message if buffer full
		}
	}
}

// Send delivers msg to one client if it is still connected.
func (s *Session) Send(c *Client, msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.clients[c.ID]; !ok || cur != c {
		return
	}
	select {
	case c.Send <- msg:
	default:
	}
}

// Generation counts accepted actions. Tests use it to observe supersession.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}
