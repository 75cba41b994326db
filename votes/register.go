package votes

import (
	"context"
	"errors"
	"strings"
)

// ============================================================================
// VOTE REGISTER — Write-once-per-identity counters with live fan-out
// ============================================================================
// The production counter service lives outside this module. Register is the
// boundary it must satisfy; Memory is the reference implementation used by
// the dev server and tests.
// ============================================================================

// ErrInvalidVoter is returned for empty voter or subject ids.
var ErrInvalidVoter = errors.New("invalid voter or subject")

// Rejection reasons.
const (
	ReasonAlreadyVoted = "already_voted"
	ReasonNoVote       = "no_vote"
)

// Counts maps subject ids to vote counts.
type Counts map[string]int

// Result reports the outcome of a cast or retract. Counts reflects the
// register state after the operation, including the caller's own change.
type Result struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	Subject  string `json:"subject"`
	Voted    string `json:"voted,omitempty"` // subject the voter currently holds
	Counts   Counts `json:"counts"`
}

// Subscription cancels a Subscribe registration.
type Subscription interface {
	Unsubscribe()
}

// Register is a write-once-per-identity vote register.
type Register interface {
	// CastVote records voter's single vote for subject.
	CastVote(ctx context.Context, voter, subject string) (Result, error)
	// RetractVote removes voter's vote for subject.
	RetractVote(ctx context.Context, voter, subject string) (Result, error)
	// Counts returns a snapshot of all counts.
	Counts(ctx context.Context) (Counts, error)
	// VoteOf returns the subject voter currently holds, "" if none.
	VoteOf(ctx context.Context, voter string) (string, error)
	// Subscribe calls fn with the full count map now and after every change.
	Subscribe(fn func(Counts)) Subscription
}

// SubjectID maps an image file reference to a counter key.
// Dots are not allowed in keys of the counter backend.
func SubjectID(fileRef string) string {
	return strings.ReplaceAll(fileRef, ".", "_")
}

// Total sums all counts.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

func (c Counts) clone() Counts {
	out := make(Counts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
