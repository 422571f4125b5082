package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/relaylabs/relay-agent/internal/domain"
)

// LogStore is an in-memory domain.ChatLog for local mode and tests.
// Commit timestamps come from a logical clock so ordering is stable even
// when appends land within the same wall-clock tick.
type LogStore struct {
	mu       sync.Mutex
	epoch    time.Time
	clock    int64
	messages map[domain.ChatID][]*domain.ChatMessage

	nextSub int
	subs    map[domain.ChatID]map[int]func([]*domain.ChatMessage)
}

func NewLogStore() *LogStore {
	return &LogStore{
		epoch:    time.Now(),
		messages: make(map[domain.ChatID][]*domain.ChatMessage),
		subs:     make(map[domain.ChatID]map[int]func([]*domain.ChatMessage)),
	}
}

// AppendPair commits both records under one lock acquisition: a reader
// can never observe the user record without its paired system record.
func (s *LogStore) AppendPair(_ context.Context, user, system *domain.ChatMessage) error {
	s.mu.Lock()

	for _, msg := range []*domain.ChatMessage{user, system} {
		s.clock++
		msg.CreatedAt = s.epoch.Add(time.Duration(s.clock) * time.Microsecond)
		s.messages[msg.ChatID] = append(s.messages[msg.ChatID], msg)
	}

	snapshot := s.snapshotLocked(user.ChatID, 0)
	var fns []func([]*domain.ChatMessage)
	for _, fn := range s.subs[user.ChatID] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
	return nil
}

func (s *LogStore) ListMessages(_ context.Context, chatID domain.ChatID, limit int) ([]*domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.snapshotLocked(chatID, limit)
	return msgs, nil
}

// Subscribe delivers the current record set immediately, then again after
// every append, until stop is called or ctx is cancelled.
func (s *LogStore) Subscribe(ctx context.Context, chatID domain.ChatID, fn func([]*domain.ChatMessage)) (func(), error) {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	if s.subs[chatID] == nil {
		s.subs[chatID] = make(map[int]func([]*domain.ChatMessage))
	}
	s.subs[chatID][id] = fn
	initial := s.snapshotLocked(chatID, 0)
	s.mu.Unlock()

	fn(initial)

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[chatID], id)
			s.mu.Unlock()
			close(done)
		})
	}

	// The watcher must not outlive the subscription when stop is called
	// under a non-cancellable context.
	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()

	return stop, nil
}

func (s *LogStore) snapshotLocked(chatID domain.ChatID, limit int) []*domain.ChatMessage {
	msgs := s.messages[chatID]

	out := make([]*domain.ChatMessage, len(msgs))
	for i, m := range msgs {
		c := *m
		out[i] = &c
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
