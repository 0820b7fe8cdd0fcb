package abuse

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightside-studio/backend/internal/model"
	"github.com/brightside-studio/backend/internal/ratelimit"
)

var epoch = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

// fakeLimiter records calls and answers with a fixed decision.
type fakeLimiter struct {
	decision ratelimit.Decision
	err      error
	calls    []string
}

func (f *fakeLimiter) Allow(_ context.Context, id string, rule ratelimit.Rule) (ratelimit.Decision, error) {
	f.calls = append(f.calls, rule.Prefix+id)
	return f.decision, f.err
}

func cleanDraft(kind model.FormKind) model.SubmissionDraft {
	return model.SubmissionDraft{
		Kind: kind,
		Fields: model.ContactFields{
			Name:    "Jane Doe",
			Email:   "Jane@Example.com",
			Message: "Need a 5-page site for my bakery",
		},
		FormOpenedAt: epoch.Add(-30 * time.Second),
	}
}

func TestHoneypot(t *testing.T) {
	d := cleanDraft(model.FormDetailed)
	assert.False(t, Honeypot{}.Evaluate(context.Background(), d).Rejected)

	d.Honeypot = "http://bot.example"
	v := Honeypot{}.Evaluate(context.Background(), d)
	assert.True(t, v.Rejected)
	assert.Equal(t, KindBot, v.Kind)
	assert.Equal(t, "honeypot", v.Check)
}

func TestHoneypot_WhitespaceOnlyPasses(t *testing.T) {
	d := cleanDraft(model.FormDetailed)
	d.Honeypot = "  "
	assert.False(t, Honeypot{}.Evaluate(context.Background(), d).Rejected)
}

func TestDwell(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	check := Dwell{Min: DetailedMinDwell, Clock: clock}

	tests := []struct {
		name     string
		opened   time.Time
		rejected bool
	}{
		{"missing timestamp", time.Time{}, true},
		{"instant", epoch, true},
		{"just under", epoch.Add(-DetailedMinDwell + time.Millisecond), true},
		{"exactly min", epoch.Add(-DetailedMinDwell), false},
		{"human pace", epoch.Add(-45 * time.Second), false},
		{"future", epoch.Add(time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := cleanDraft(model.FormDetailed)
			d.FormOpenedAt = tt.opened
			assert.Equal(t, tt.rejected, check.Evaluate(context.Background(), d).Rejected)
		})
	}
}

func TestSpamPattern(t *testing.T) {
	tests := []struct {
		name    string
		message string
		term    string
	}{
		{"clean", "We need a booking page and a gallery.", ""},
		{"two links ok", "Like https://a.example and www.b.example please", ""},
		{"three links", "see http://a.example http://b.example http://c.example", "url_flood"},
		{"keyword", "Cheap VIAGRA here", "keyword"},
		{"keyword phrase", "We offer SEO services for you", "keyword"},
		{"char flood", "heeeeeeeeeeeelp", "char_flood"},
		{"nine repeats ok", "aaaaaaaaa", ""},
		{"script probe", "hi <script>alert(1)</script>", "markup"},
		{"js url", "javascript:alert(1)", "markup"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := cleanDraft(model.FormDetailed)
			d.Fields.Message = tt.message
			v := SpamPattern{}.Evaluate(context.Background(), d)
			assert.Equal(t, tt.term != "", v.Rejected)
			assert.Equal(t, tt.term, v.Term)
		})
	}
}

func TestSpamPattern_ScansEveryField(t *testing.T) {
	d := cleanDraft(model.FormDetailed)
	d.Fields.Budget = "casino money"
	assert.True(t, SpamPattern{}.Evaluate(context.Background(), d).Rejected)
}

func TestHasCharFlood_SpacesBreakRuns(t *testing.T) {
	assert.False(t, hasCharFlood(strings.Repeat(" ", 20)))
	assert.False(t, hasCharFlood("aaaaa aaaaa"))
	assert.True(t, hasCharFlood(strings.Repeat("!", 10)))
}

func TestMessageLength(t *testing.T) {
	check := MessageLength{Max: 2000}

	d := cleanDraft(model.FormQuick)
	d.Fields.Message = "   "
	v := check.Evaluate(context.Background(), d)
	require.True(t, v.Rejected)
	assert.Equal(t, "Please enter a message", v.Description)
	assert.Equal(t, KindInvalid, v.Kind)

	d.Fields.Message = strings.Repeat("a&b'c", 400)
	assert.False(t, check.Evaluate(context.Background(), d).Rejected)

	d.Fields.Message = "<b>" + strings.Repeat("a&b'c", 400) + "</b>"
	assert.False(t, check.Evaluate(context.Background(), d).Rejected, "tags do not count")

	d.Fields.Message = strings.Repeat("a&b'c", 400) + "&"
	v = check.Evaluate(context.Background(), d)
	require.True(t, v.Rejected)
	assert.Equal(t, "Message must be 2000 characters or fewer", v.Description)
}

func TestRateLimit_UsesLowercasedEmailKey(t *testing.T) {
	lim := &fakeLimiter{decision: ratelimit.Decision{Allowed: true}}
	check := RateLimit{Limiter: lim, Rule: ratelimit.RuleContactForm}

	v := check.Evaluate(context.Background(), cleanDraft(model.FormDetailed))
	assert.False(t, v.Rejected)
	assert.Equal(t, []string{"contact-jane@example.com"}, lim.calls)
}

func TestRateLimit_RejectsWithWaitTime(t *testing.T) {
	lim := &fakeLimiter{decision: ratelimit.Decision{Allowed: false, RetryAfter: 3*time.Minute + 10*time.Second}}
	check := RateLimit{Limiter: lim, Rule: ratelimit.RuleContactForm}

	v := check.Evaluate(context.Background(), cleanDraft(model.FormDetailed))
	require.True(t, v.Rejected)
	assert.Equal(t, KindRateLimited, v.Kind)
	assert.Equal(t, "Too many attempts", v.Title)
	assert.Equal(t, "Please wait 4 minutes before trying again.", v.Description)
	assert.Equal(t, 3*time.Minute+10*time.Second, v.RetryAfter)
}

func TestWaitText(t *testing.T) {
	assert.Equal(t, "1 minute", waitText(10*time.Second))
	assert.Equal(t, "1 minute", waitText(time.Minute))
	assert.Equal(t, "2 minutes", waitText(time.Minute+time.Second))
}

func TestBotRejectionsLookAlike(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	honey := cleanDraft(model.FormDetailed)
	honey.Honeypot = "x"
	fast := cleanDraft(model.FormDetailed)
	fast.FormOpenedAt = epoch
	spam := cleanDraft(model.FormDetailed)
	spam.Fields.Message = "click here"

	verdicts := []Verdict{
		Honeypot{}.Evaluate(context.Background(), honey),
		Dwell{Min: DetailedMinDwell, Clock: clock}.Evaluate(context.Background(), fast),
		SpamPattern{}.Evaluate(context.Background(), spam),
	}
	for _, v := range verdicts {
		require.True(t, v.Rejected)
		assert.Equal(t, verdicts[0].Title, v.Title)
		assert.Equal(t, verdicts[0].Description, v.Description)
	}
}

// orderCheck records that it ran and optionally rejects.
type orderCheck struct {
	name   string
	reject bool
	ran    *[]string
}

func (c orderCheck) Name() string { return c.name }

func (c orderCheck) Evaluate(context.Context, model.SubmissionDraft) Verdict {
	*c.ran = append(*c.ran, c.name)
	if c.reject {
		return Reject("", KindBot, "t", "d")
	}
	return Pass()
}

func TestChain_StopsAtFirstRejection(t *testing.T) {
	var ran []string
	chain := Chain{
		orderCheck{name: "a", ran: &ran},
		orderCheck{name: "b", reject: true, ran: &ran},
		orderCheck{name: "c", ran: &ran},
	}
	v := chain.Evaluate(context.Background(), model.SubmissionDraft{})
	assert.True(t, v.Rejected)
	assert.Equal(t, "b", v.Check, "empty check name is filled from the check")
	assert.Equal(t, []string{"a", "b"}, ran)
}

func TestChain_AllPass(t *testing.T) {
	var ran []string
	chain := Chain{orderCheck{name: "a", ran: &ran}, orderCheck{name: "b", ran: &ran}}
	assert.False(t, chain.Evaluate(context.Background(), model.SubmissionDraft{}).Rejected)
	assert.Equal(t, []string{"a", "b"}, ran)
}

func TestChainOrders(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	assert.Equal(t,
		[]string{"honeypot", "dwell_time", "spam_pattern", "rate_limit"},
		DetailedChecks(clock, &fakeLimiter{}).Names())
	assert.Equal(t,
		[]string{"honeypot", "dwell_time", "message_length", "spam_pattern"},
		QuickChecks(clock).Names())
}

func TestDetailedChecks_RateLimitNotConsultedForBots(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	lim := &fakeLimiter{decision: ratelimit.Decision{Allowed: true}}
	d := cleanDraft(model.FormDetailed)
	d.Honeypot = "filled"

	v := DetailedChecks(clock, lim).Evaluate(context.Background(), d)
	assert.True(t, v.Rejected)
	assert.Empty(t, lim.calls)
}
