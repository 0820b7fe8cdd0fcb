package model

import (
	"html"
	"strings"
	"time"
)

// FormKind identifies which of the two public contact forms produced a draft.
type FormKind string

const (
	FormDetailed FormKind = "detailed"
	FormQuick    FormKind = "quick"
)

// ContactFields holds the free-form values typed into a contact form.
type ContactFields struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Message  string `json:"message"`
	Budget   string `json:"budget,omitempty"`
	Timeline string `json:"timeline,omitempty"`
}

// SubmissionDraft is a form submission exactly as the browser sent it.
// Nothing in it has been trimmed, checked or escaped.
type SubmissionDraft struct {
	Kind   FormKind
	Fields ContactFields
	// Honeypot is the value of the hidden field. Humans never see it.
	Honeypot string
	// FormOpenedAt is when the form became interactive on the client.
	// Zero when the client did not report it.
	FormOpenedAt time.Time
	RemoteAddr   string
}

// Text joins every free-text field for pattern matching.
func (d SubmissionDraft) Text() string {
	f := d.Fields
	return strings.Join([]string{f.Name, f.Email, f.Phone, f.Message, f.Budget, f.Timeline}, "\n")
}

// ValidatedSubmission is a draft after trimming, sanitizing and schema checks.
// Fields hold plain text with markup removed but not escaped.
// Only validate.Validate constructs one.
type ValidatedSubmission struct {
	Kind   FormKind
	Fields ContactFields
}

const (
	subjectDetailed = "New project enquiry"
	subjectQuick    = "Quick message"
)

// Record builds the row inserted into contact_messages. Free text is
// HTML-escaped so the admin inbox can render it as is. For the detailed form
// the budget, timeline and phone are folded into the message body because the
// table has no columns for them.
func (v ValidatedSubmission) Record() *ContactMessage {
	f := v.Fields
	f.Name = html.EscapeString(f.Name)
	f.Message = html.EscapeString(f.Message)
	f.Phone = html.EscapeString(f.Phone)
	f.Budget = html.EscapeString(f.Budget)
	f.Timeline = html.EscapeString(f.Timeline)
	if v.Kind == FormQuick {
		return &ContactMessage{Name: f.Name, Email: f.Email, Subject: subjectQuick, Message: f.Message}
	}

	var b strings.Builder
	b.WriteString(f.Message)
	var extra []string
	if f.Budget != "" {
		extra = append(extra, "Budget: "+f.Budget)
	}
	if f.Timeline != "" {
		extra = append(extra, "Timeline: "+f.Timeline)
	}
	if f.Phone != "" {
		extra = append(extra, "Phone: "+f.Phone)
	}
	if len(extra) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(extra, "\n"))
	}
	return &ContactMessage{Name: f.Name, Email: f.Email, Subject: subjectDetailed, Message: b.String()}
}

// ContactEvent is the payload handed to the notification relay.
type ContactEvent struct {
	EventType string           `json:"eventType"`
	Data      ContactEventData `json:"data"`
}

// ContactEventData mirrors the fields the chat relay renders.
type ContactEventData struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	ProjectGoals string `json:"projectGoals"`
	BudgetRange  string `json:"budgetRange"`
	Timeline     string `json:"timeline"`
}

// Event builds the notification for a stored submission. The relay formats
// chat text, not HTML, so the values go out unescaped.
func (v ValidatedSubmission) Event() ContactEvent {
	f := v.Fields
	return ContactEvent{
		EventType: "contact",
		Data: ContactEventData{
			Name:         f.Name,
			Email:        f.Email,
			Phone:        f.Phone,
			ProjectGoals: f.Message,
			BudgetRange:  f.Budget,
			Timeline:     f.Timeline,
		},
	}
}

// ContactMessage represents a stored contact form submission.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"` // "unread" | "read"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	ContactStatusUnread = "unread"
	ContactStatusRead   = "read"
)

// ValidContactStatus reports whether s is a status an admin may set.
func ValidContactStatus(s string) bool {
	return s == ContactStatusUnread || s == ContactStatusRead
}

// ContactListOptions carries filter and pagination parameters for listing contact messages.
type ContactListOptions struct {
	// Status filters by message status: "", "all", "unread", "read".
	// Empty string and "all" return all messages.
	Status string
	Limit  int
	Offset int
}
