package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/brightside-studio/backend/internal/abuse"
	"github.com/brightside-studio/backend/internal/metrics"
	"github.com/brightside-studio/backend/internal/model"
	"github.com/brightside-studio/backend/internal/notify"
	"github.com/brightside-studio/backend/internal/repository"
	"github.com/brightside-studio/backend/internal/validate"
)

var (
	toastSent = Toast{
		Title:       "Message sent!",
		Description: "Thanks for getting in touch. We'll reply within one business day.",
		Variant:     ToastDefault,
	}
	toastPersistFailed = Toast{
		Title:       "Failed to send message",
		Description: "Please check your connection and try again.",
		Variant:     ToastDestructive,
	}
)

// contactServiceImpl is the production implementation of ContactService.
type contactServiceImpl struct {
	repo     repository.ContactRepository
	notifier notify.Notifier
	detailed abuse.Chain
	quick    abuse.Chain
}

// NewContactService creates a ContactService. limiter backs the detailed
// form's per-email throttle; clock drives the dwell-time checks.
func NewContactService(repo repository.ContactRepository, notifier notify.Notifier, limiter abuse.Limiter, clock clockwork.Clock) ContactService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &contactServiceImpl{
		repo:     repo,
		notifier: notifier,
		detailed: abuse.DetailedChecks(clock, limiter),
		quick:    abuse.QuickChecks(clock),
	}
}

func (s *contactServiceImpl) chainFor(kind model.FormKind) abuse.Chain {
	if kind == model.FormQuick {
		return s.quick
	}
	return s.detailed
}

// Submit runs the core transaction (heuristics, validation, one insert) and
// then the notification side effect. Only the core transaction decides the
// result.
func (s *contactServiceImpl) Submit(ctx context.Context, d model.SubmissionDraft) Result {
	start := time.Now()
	res := s.submit(ctx, d)
	metrics.SubmissionsTotal.WithLabelValues(string(d.Kind), string(res.Outcome)).Inc()
	metrics.PipelineDuration.WithLabelValues(string(d.Kind)).Observe(time.Since(start).Seconds())
	return res
}

func (s *contactServiceImpl) submit(ctx context.Context, d model.SubmissionDraft) Result {
	p := newPipeline(d.Kind)
	form := string(d.Kind)

	p.to(StateValidating)
	if v := s.chainFor(d.Kind).Evaluate(ctx, d); v.Rejected {
		p.to(StateError)
		metrics.RejectionsTotal.WithLabelValues(form, v.Check).Inc()
		slog.InfoContext(ctx, "contact submission rejected",
			"form", form, "check", v.Check, "term", v.Term, "kind", v.Kind, "remote_addr", d.RemoteAddr)
		return Result{
			State:      p.state,
			Outcome:    outcomeFor(v.Kind),
			Toast:      Toast{Title: v.Title, Description: v.Description, Variant: ToastDestructive},
			RetryAfter: v.RetryAfter,
			Check:      v.Check,
		}
	}

	valid, err := validate.Validate(d)
	if err != nil {
		p.to(StateError)
		metrics.RejectionsTotal.WithLabelValues(form, "schema").Inc()
		res := Result{State: p.state, Outcome: OutcomeInvalid, Check: "schema"}
		var fe *validate.FieldError
		if errors.As(err, &fe) {
			res.Field = fe.Field
			res.Toast = Toast{Title: "Please check your details", Description: fe.Message, Variant: ToastDestructive}
		} else {
			res.Toast = Toast{Title: "Please check your details", Description: "Some fields are invalid.", Variant: ToastDestructive}
		}
		slog.InfoContext(ctx, "contact submission invalid", "form", form, "field", res.Field)
		return res
	}

	// Once validated, the submission finishes even if the client goes away.
	ctx = context.WithoutCancel(ctx)

	p.to(StatePersisting)
	rec := valid.Record()
	if err := s.repo.Save(ctx, rec); err != nil {
		p.to(StateError)
		slog.ErrorContext(ctx, "contact submission insert failed", "form", form, "error", err)
		return Result{State: p.state, Outcome: OutcomePersistFailed, Toast: toastPersistFailed, Check: "persist"}
	}

	p.to(StateNotifying)
	s.notifyBestEffort(ctx, form, valid.Event())

	p.to(StateDone)
	slog.InfoContext(ctx, "contact submission stored", "form", form, "id", rec.ID)
	return Result{State: p.state, Outcome: OutcomeSent, Toast: toastSent, Message: rec}
}

// notifyBestEffort calls the notifier once. Errors and panics are logged and
// counted; they never reach the caller.
func (s *contactServiceImpl) notifyBestEffort(ctx context.Context, form string, ev model.ContactEvent) {
	defer func() {
		if r := recover(); r != nil {
			metrics.NotificationFailuresTotal.Inc()
			slog.ErrorContext(ctx, "contact notification panicked", "form", form, "panic", r)
		}
	}()
	if err := s.notifier.Notify(ctx, ev); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		slog.ErrorContext(ctx, "contact notification failed", "form", form, "error", err)
	}
}

func outcomeFor(k abuse.Kind) Outcome {
	switch k {
	case abuse.KindRateLimited:
		return OutcomeRateLimited
	case abuse.KindInvalid:
		return OutcomeInvalid
	default:
		return OutcomeBotSuspected
	}
}

// List returns contact messages according to the given filter/pagination options.
func (s *contactServiceImpl) List(ctx context.Context, opts model.ContactListOptions) ([]*model.ContactMessage, error) {
	return s.repo.List(ctx, opts)
}

// UpdateStatus changes the status of a contact message.
func (s *contactServiceImpl) UpdateStatus(ctx context.Context, id, status string) error {
	return s.repo.UpdateStatus(ctx, id, status)
}
