package abuse

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"

	"github.com/brightside-studio/backend/internal/model"
	"github.com/brightside-studio/backend/internal/ratelimit"
	"github.com/brightside-studio/backend/internal/validate"
)

// Minimum dwell times between the form becoming interactive and submit.
const (
	QuickMinDwell    = 1 * time.Second
	DetailedMinDwell = 2 * time.Second
)

// Honeypot rejects drafts whose hidden field was filled in.
type Honeypot struct{}

func (Honeypot) Name() string { return "honeypot" }

func (Honeypot) Evaluate(_ context.Context, d model.SubmissionDraft) Verdict {
	if strings.TrimSpace(d.Honeypot) != "" {
		return botReject("honeypot")
	}
	return Pass()
}

// Dwell rejects drafts submitted sooner than Min after the form opened.
// A missing or future open time is treated as too fast.
type Dwell struct {
	Min   time.Duration
	Clock clockwork.Clock
}

func (Dwell) Name() string { return "dwell_time" }

func (c Dwell) Evaluate(_ context.Context, d model.SubmissionDraft) Verdict {
	if d.FormOpenedAt.IsZero() {
		return botReject("dwell_time")
	}
	if c.Clock.Since(d.FormOpenedAt) < c.Min {
		return botReject("dwell_time")
	}
	return Pass()
}

// SpamPattern rejects drafts whose text matches a known spam indicator.
type SpamPattern struct{}

func (SpamPattern) Name() string { return "spam_pattern" }

func (SpamPattern) Evaluate(_ context.Context, d model.SubmissionDraft) Verdict {
	if term, ok := matchSpam(d.Text()); ok {
		v := botReject("spam_pattern")
		v.Term = term
		return v
	}
	return Pass()
}

// MessageLength is the quick form's early message check. It counts the
// message the way validate.Validate will, as plain text with markup removed.
type MessageLength struct {
	Max int
}

func (MessageLength) Name() string { return "message_length" }

func (c MessageLength) Evaluate(_ context.Context, d model.SubmissionDraft) Verdict {
	msg := strings.TrimSpace(validate.Sanitize(d.Fields.Message))
	if msg == "" {
		return Reject("message_length", KindInvalid, "Message required", "Please enter a message")
	}
	if utf8.RuneCountInString(msg) > c.Max {
		return Reject("message_length", KindInvalid, "Message too long",
			"Message must be 2000 characters or fewer")
	}
	return Pass()
}

// Limiter is the part of ratelimit.Limiter the RateLimit check needs.
type Limiter interface {
	Allow(ctx context.Context, identifier string, rule ratelimit.Rule) (ratelimit.Decision, error)
}

// RateLimit rejects a sender who already used up the rule's attempts. The
// identifier is the lower-cased email, so the key reads "contact-<email>".
// A passing attempt is recorded even if the submission later fails.
type RateLimit struct {
	Limiter Limiter
	Rule    ratelimit.Rule
}

func (RateLimit) Name() string { return "rate_limit" }

func (c RateLimit) Evaluate(ctx context.Context, d model.SubmissionDraft) Verdict {
	id := strings.ToLower(strings.TrimSpace(d.Fields.Email))
	dec, err := c.Limiter.Allow(ctx, id, c.Rule)
	if err != nil {
		slog.Warn("rate limit check degraded", "error", err)
	}
	if !dec.Allowed {
		return rateLimitReject("rate_limit", dec.RetryAfter)
	}
	return Pass()
}

// DetailedChecks is the fixed check order for the full project enquiry form.
func DetailedChecks(clock clockwork.Clock, limiter Limiter) Chain {
	return Chain{
		Honeypot{},
		Dwell{Min: DetailedMinDwell, Clock: clock},
		SpamPattern{},
		RateLimit{Limiter: limiter, Rule: ratelimit.RuleContactForm},
	}
}

// QuickChecks is the fixed check order for the quick message form.
func QuickChecks(clock clockwork.Clock) Chain {
	return Chain{
		Honeypot{},
		Dwell{Min: QuickMinDwell, Clock: clock},
		MessageLength{Max: validate.MaxMessage},
		SpamPattern{},
	}
}
