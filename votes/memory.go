package votes

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Memory is an in-process Register. Changes and notifications are
// serialized, so every subscriber observes counts in write order.
type Memory struct {
	mu     sync.Mutex
	counts Counts
	voters map[string]string // voter → subject
	subs   map[int]func(Counts)
	nextID int

	logger *slog.Logger
}

var _ Register = (*Memory)(nil)

// NewMemory creates an empty register. A nil logger discards logs.
func NewMemory(logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Memory{
		counts: make(Counts),
		voters: make(map[string]string),
		subs:   make(map[int]func(Counts)),
		logger: logger.With(slog.String("component", "votes")),
	}
}

func validIDs(voter, subject string) bool {
	return strings.TrimSpace(voter) != "" && strings.TrimSpace(subject) != ""
}

// CastVote records voter's vote. A voter holding any vote is rejected with
// ReasonAlreadyVoted until that vote is retracted.
func (m *Memory) CastVote(ctx context.Context, voter, subject string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !validIDs(voter, subject) {
		return Result{}, ErrInvalidVoter
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if held, ok := m.voters[voter]; ok {
		return Result{Reason: ReasonAlreadyVoted, Subject: subject, Voted: held, Counts: m.counts.clone()}, nil
	}
	m.voters[voter] = subject
	m.counts[subject]++

	m.logger.DebugContext(ctx, "vote cast", slog.String("subject", subject), slog.Int("count", m.counts[subject]))
	m.publish()
	return Result{Accepted: true, Subject: subject, Voted: subject, Counts: m.counts.clone()}, nil
}

// RetractVote removes voter's vote for subject. Retracting a vote the voter
// does not hold is rejected with ReasonNoVote. Counts never drop below zero.
func (m *Memory) RetractVote(ctx context.Context, voter, subject string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !validIDs(voter, subject) {
		return Result{}, ErrInvalidVoter
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	held, ok := m.voters[voter]
	if !ok || held != subject {
		return Result{Reason: ReasonNoVote, Subject: subject, Voted: held, Counts: m.counts.clone()}, nil
	}
	delete(m.voters, voter)
	if m.counts[subject] > 1 {
		m.counts[subject]--
	} else {
		delete(m.counts, subject)
	}

	m.logger.DebugContext(ctx, "vote retracted", slog.String("subject", subject), slog.Int("count", m.counts[subject]))
	m.publish()
	return Result{Accepted: true, Subject: subject, Counts: m.counts.clone()}, nil
}

// Counts returns a copy of all counts.
func (m *Memory) Counts(ctx context.Context) (Counts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts.clone(), nil
}

// VoteOf returns the subject voter holds.
func (m *Memory) VoteOf(ctx context.Context, voter string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.voters[voter], nil
}

// Subscribe registers fn and calls it immediately with the current counts.
// fn runs under the register's lock: it must not block or call back into m.
func (m *Memory) Subscribe(fn func(Counts)) Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	fn(m.counts.clone())
	return &subscription{m: m, id: id}
}

// publish must be called with m.mu held.
func (m *Memory) publish() {
	for _, fn := range m.subs {
		fn(m.counts.clone())
	}
}

type subscription struct {
	m    *Memory
	id   int
	once sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.m.mu.Lock()
		delete(s.m.subs, s.id)
		s.m.mu.Unlock()
	})
}
