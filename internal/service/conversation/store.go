package conversation

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/model/chat"
)

// ErrInvalidMessage is returned by Append for messages without text or a known sender.
var ErrInvalidMessage = errors.New("message requires text and a known sender")

// Observer is notified with a fresh snapshot after every store mutation.
// Observers run synchronously on the mutating goroutine and must not mutate the store.
type Observer func(chat.State)

// Store is the single source of truth for one session's message log and busy flag.
type Store struct {
	// write serializes mutations together with their notifications so observers
	// receive snapshots in mutation order.
	write sync.Mutex

	mu       sync.RWMutex
	messages []chat.Message
	busy     bool

	obsMu     sync.Mutex
	observers []subscription
	nextObs   int

	now func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		messages: make([]chat.Message, 0, 16),
		now:      time.Now,
	}
}

// Append adds msg to the end of the log. A missing ID or timestamp is filled in.
func (s *Store) Append(msg chat.Message) error {
	if msg.Text == "" || !msg.Sender.Valid() {
		return ErrInvalidMessage
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}

	s.write.Lock()
	defer s.write.Unlock()

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	s.notify()
	return nil
}

// SetBusy sets the busy flag, notifying observers when it changes.
func (s *Store) SetBusy(busy bool) {
	s.write.Lock()
	defer s.write.Unlock()

	s.mu.Lock()
	changed := s.busy != busy
	s.busy = busy
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// Messages returns a copy of the log in append order.
func (s *Store) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyMessages()
}

// Busy reports whether a remote call is outstanding.
func (s *Store) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

// State returns a consistent snapshot of messages and busy flag.
func (s *Store) State() chat.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return chat.State{
		Messages: s.copyMessages(),
		Busy:     s.busy,
	}
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Store) Subscribe(o Observer) func() {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers = append(s.observers, subscription{id: id, fn: o})
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			defer s.obsMu.Unlock()
			for i, sub := range s.observers {
				if sub.id == id {
					s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// copyMessages must be called with mu held.
func (s *Store) copyMessages() []chat.Message {
	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}

type subscription struct {
	id int
	fn Observer
}

func (s *Store) notify() {
	state := s.State()

	s.obsMu.Lock()
	subs := append([]subscription(nil), s.observers...)
	s.obsMu.Unlock()

	for _, sub := range subs {
		deliver(sub, state)
	}
}

// deliver runs one observer. A panicking observer is logged and skipped so the
// remaining observers and the mutating caller are unaffected.
func deliver(sub subscription, state chat.State) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("component", "store").Int("observer", sub.id).Interface("panic", r).Msg("observer panicked")
		}
	}()
	sub.fn(state)
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
