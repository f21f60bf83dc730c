package chat

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raulk/clock"
	"go.uber.org/zap"
)

// SystemAuthor signs call notices.
const SystemAuthor = "System"

// Rand is the subset of *math/rand.Rand the simulation draws from.
type Rand interface {
	Float64() float64
	Intn(n int) int
	Perm(n int) []int
}

type Option func(*Store)

func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func WithRand(r Rand) Option {
	return func(s *Store) { s.rand = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithNotifier registers fn to receive a snapshot after every change. fn is
// called without the store lock held and may be invoked concurrently; use
// Snapshot.Version to order deliveries.
func WithNotifier(fn func(Snapshot)) Option {
	return func(s *Store) { s.notify = fn }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// Store is the single authority over one conversation session. Every
// mutation, whether it comes from the local user or from a simulation
// timer, runs under mu.
type Store struct {
	mu sync.Mutex

	cfg      Config
	timing   Timing
	channels map[string]Channel

	clock   clock.Clock
	rand    Rand
	log     *zap.Logger
	metrics *Metrics
	notify  func(Snapshot)
	newID   func() string

	active    string
	messages  []Message
	typing    []string
	online    []string
	recording bool

	timers     map[uint64]*clock.Timer
	nextTimer  uint64
	version    uint64
	simulating bool
	closed     bool
}

func New(cfg Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Replies) == 0 {
		cfg.Replies = DefaultReplies
	}

	s := &Store{
		cfg:      cfg,
		timing:   cfg.Timing.withDefaults(),
		channels: make(map[string]Channel, len(cfg.Channels)),
		timers:   make(map[uint64]*clock.Timer),
		active:   cfg.Channels[0].ID,
	}
	for _, ch := range cfg.Channels {
		s.channels[ch.ID] = ch
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.Must(uuid.NewV7()).String() }
	}

	now := s.clock.Now()
	for _, seed := range cfg.Seed {
		id := seed.ID
		if id == "" {
			id = s.newID()
		}
		s.messages = append(s.messages, Message{
			ID:        id,
			Author:    seed.Author,
			Content:   seed.Content,
			Timestamp: now.Add(-seed.Ago),
			Reactions: copyReactions(seed.Reactions),
			Replies:   seed.Replies,
			IsRead:    seed.IsRead,
		})
	}
	for i := 0; i < len(cfg.SimulatedUsers) && i < 2; i++ {
		s.online = append(s.online, cfg.SimulatedUsers[i])
	}

	s.log.Info("store_created",
		zap.String("local_user", cfg.LocalUserName),
		zap.Int("channels", len(cfg.Channels)),
		zap.Int("seed_messages", len(s.messages)),
	)
	return s, nil
}

// Close cancels every pending simulation timer. Callbacks already in flight
// observe the closed flag and do nothing.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	cancelled := len(s.timers)
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.metrics.timers(0)
	s.log.Info("store_closed", zap.Int("cancelled_timers", cancelled))
	return nil
}

// lock acquires mu and fails with ErrClosed once the store is torn down.
func (s *Store) lock() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	return nil
}

// unlockAndNotify releases mu and, if the session changed, publishes the new
// state to the notifier.
func (s *Store) unlockAndNotify(changed bool) {
	if !changed {
		s.mu.Unlock()
		return
	}
	s.version++
	if s.notify == nil {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// scheduleLocked arms a tracked timer. fn runs under mu and reports whether
// it changed the session.
func (s *Store) scheduleLocked(kind string, d time.Duration, fn func() bool) {
	s.nextTimer++
	id := s.nextTimer
	// fire reads the clock and may arm new timers, so it must not run on the
	// clock's own callback path: a mock clock holds its lock there.
	s.timers[id] = s.clock.AfterFunc(d, func() { go s.fire(id, kind, fn) })
	s.metrics.timers(len(s.timers))
	s.log.Debug("timer_scheduled", zap.String("kind", kind), zap.Duration("delay", d))
}

func (s *Store) fire(id uint64, kind string, fn func() bool) {
	if err := s.lock(); err != nil {
		return
	}
	if _, ok := s.timers[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	s.metrics.timers(len(s.timers))
	s.log.Debug("timer_fired", zap.String("kind", kind))
	s.unlockAndNotify(fn())
}

func (s *Store) appendLocked(kind, author, content string, read bool) Message {
	msg := Message{
		ID:        s.newID(),
		Author:    author,
		Content:   content,
		Timestamp: s.clock.Now(),
		IsRead:    read,
	}
	s.messages = append(s.messages, msg)
	s.metrics.message(kind)
	s.log.Debug("message_appended",
		zap.String("id", msg.ID),
		zap.String("kind", kind),
		zap.String("author", author),
	)
	return msg
}
