package service

import (
	"context"
	"time"

	"github.com/brightside-studio/backend/internal/model"
)

// Outcome classifies how a submission ended.
type Outcome string

const (
	OutcomeSent          Outcome = "sent"
	OutcomeBotSuspected  Outcome = "bot_suspected"
	OutcomeRateLimited   Outcome = "rate_limited"
	OutcomeInvalid       Outcome = "invalid"
	OutcomePersistFailed Outcome = "persist_failed"
)

// Toast is the user-facing notification the site renders for every terminal
// state of a submission.
type Toast struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"` // "default" | "destructive"
}

const (
	ToastDefault     = "default"
	ToastDestructive = "destructive"
)

// Result is what Submit reports back to the transport layer.
type Result struct {
	State   State
	Outcome Outcome
	Toast   Toast
	// Message is the stored row. Set only when Outcome is OutcomeSent.
	Message    *model.ContactMessage
	RetryAfter time.Duration
	// Check and Field say what rejected the draft. Never sent to the client.
	Check string
	Field string
}

// OK reports whether the submission was stored.
func (r Result) OK() bool { return r.Outcome == OutcomeSent }

// ContactService defines the business logic for contact form submissions.
type ContactService interface {
	// Submit runs one draft through the heuristics, validation, the insert and
	// the best-effort notification. It never retries.
	Submit(ctx context.Context, draft model.SubmissionDraft) Result

	// List returns contact messages according to the given options.
	List(ctx context.Context, opts model.ContactListOptions) ([]*model.ContactMessage, error)

	// UpdateStatus marks a message read or unread.
	UpdateStatus(ctx context.Context, id, status string) error
}
