// Package abuse holds the cheap bot and flood heuristics that run before a
// contact form submission is validated or stored. Each heuristic is a Check;
// a Chain runs them in a fixed order and stops at the first rejection.
//
// None of this is a security boundary. It keeps casual form-filling scripts
// and impatient double-submitters out of the inbox.
package abuse

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/brightside-studio/backend/internal/model"
)

// Kind groups rejections by how the caller should report them.
type Kind string

const (
	KindBot         Kind = "bot"
	KindRateLimited Kind = "rate_limited"
	KindInvalid     Kind = "invalid"
)

// Verdict is the result of one Check. The zero value passes.
type Verdict struct {
	Rejected bool
	// Check names the heuristic that fired. It is for logs and metrics only
	// and must never reach the client.
	Check string
	// Term narrows Check down, e.g. which spam pattern matched.
	Term        string
	Kind        Kind
	Title       string
	Description string
	RetryAfter  time.Duration
}

// Pass is the verdict of a check that found nothing.
func Pass() Verdict { return Verdict{} }

// Reject builds a rejecting verdict.
func Reject(check string, kind Kind, title, description string) Verdict {
	return Verdict{Rejected: true, Check: check, Kind: kind, Title: title, Description: description}
}

// Bot-suspected rejections all read the same so a script cannot tell which
// heuristic caught it.
const (
	botTitle       = "Submission failed"
	botDescription = "We couldn't send your message. Please try again later."
)

func botReject(check string) Verdict {
	return Reject(check, KindBot, botTitle, botDescription)
}

func rateLimitReject(check string, wait time.Duration) Verdict {
	v := Reject(check, KindRateLimited, "Too many attempts",
		fmt.Sprintf("Please wait %s before trying again.", waitText(wait)))
	v.RetryAfter = wait
	return v
}

func waitText(d time.Duration) string {
	minutes := int(math.Ceil(d.Minutes()))
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

// Check is one heuristic. Evaluate must not block except for the rate-limit
// store round trip.
type Check interface {
	Name() string
	Evaluate(ctx context.Context, d model.SubmissionDraft) Verdict
}

// Chain evaluates checks in order.
type Chain []Check

// Evaluate returns the first rejecting verdict, or Pass when every check passed.
func (c Chain) Evaluate(ctx context.Context, d model.SubmissionDraft) Verdict {
	for _, chk := range c {
		v := chk.Evaluate(ctx, d)
		if !v.Rejected {
			continue
		}
		if v.Check == "" {
			v.Check = chk.Name()
		}
		return v
	}
	return Pass()
}

// Names lists the checks in evaluation order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, chk := range c {
		names[i] = chk.Name()
	}
	return names
}
