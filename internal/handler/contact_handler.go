package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/brightside-studio/backend/internal/model"
	"github.com/brightside-studio/backend/internal/repository"
	"github.com/brightside-studio/backend/internal/service"
	"github.com/brightside-studio/backend/pkg/auth"
)

// maxBodyBytes caps a form submission body.
const maxBodyBytes = 64 << 10

// ContactHandler handles the public contact forms and the admin inbox.
type ContactHandler struct {
	contactService    service.ContactService
	trustedProxyCount int
}

// NewContactHandler creates a ContactHandler with the given service.
func NewContactHandler(contactService service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService, trustedProxyCount: 1}
}

// submitRequest is the JSON body of both forms. The detailed form sends
// projectGoals; the quick form sends message. website is the hidden honeypot
// input and formOpenedAt is the client's unix-ms timestamp of form render.
type submitRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	ProjectGoals string `json:"projectGoals"`
	Message      string `json:"message"`
	Budget       string `json:"budget"`
	Timeline     string `json:"timeline"`
	Website      string `json:"website"`
	FormOpenedAt int64  `json:"formOpenedAt"`
}

type submitResponse struct {
	OK    bool          `json:"ok"`
	ID    string        `json:"id,omitempty"`
	Error string        `json:"error,omitempty"`
	Toast service.Toast `json:"toast"`
}

// Submit handles POST /api/contact (detailed form).
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, model.FormDetailed)
}

// SubmitQuick handles POST /api/contact/quick.
func (h *ContactHandler) SubmitQuick(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, model.FormQuick)
}

func (h *ContactHandler) submit(w http.ResponseWriter, r *http.Request, kind model.FormKind) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeSubmitError(w, http.StatusRequestEntityTooLarge, "body_too_large")
			return
		}
		writeSubmitError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	res := h.contactService.Submit(r.Context(), req.draft(kind, clientIP(r, h.trustedProxyCount)))

	resp := submitResponse{OK: res.OK(), Toast: res.Toast}
	if res.Message != nil {
		resp.ID = res.Message.ID
	}
	if res.Outcome == service.OutcomeRateLimited && res.RetryAfter > 0 {
		w.Header().Set("Retry-After", retryAfterSeconds(res.RetryAfter))
	}
	writeJSON(w, statusFor(res.Outcome), resp)
}

func (req submitRequest) draft(kind model.FormKind, remoteAddr string) model.SubmissionDraft {
	message := req.Message
	if kind == model.FormDetailed && req.ProjectGoals != "" {
		message = req.ProjectGoals
	}
	d := model.SubmissionDraft{
		Kind: kind,
		Fields: model.ContactFields{
			Name:    req.Name,
			Email:   req.Email,
			Message: message,
		},
		Honeypot:   req.Website,
		RemoteAddr: remoteAddr,
	}
	if kind == model.FormDetailed {
		d.Fields.Phone = req.Phone
		d.Fields.Budget = req.Budget
		d.Fields.Timeline = req.Timeline
	}
	if req.FormOpenedAt > 0 {
		d.FormOpenedAt = time.UnixMilli(req.FormOpenedAt)
	}
	return d
}

func statusFor(o service.Outcome) int {
	switch o {
	case service.OutcomeSent:
		return http.StatusCreated
	case service.OutcomeInvalid:
		return http.StatusBadRequest
	case service.OutcomeBotSuspected:
		return http.StatusUnprocessableEntity
	case service.OutcomeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

func writeSubmitError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, submitResponse{
		Error: code,
		Toast: service.Toast{
			Title:       "Failed to send message",
			Description: "Please check your details and try again.",
			Variant:     service.ToastDestructive,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// requireAdmin writes 401/403 and returns false unless the request carries an
// authenticated admin.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := auth.UserIDFromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	if !auth.IsAdminFromContext(r.Context()) {
		writeError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}

// adminListResponse is the JSON response for GET /api/admin/contacts.
type adminListResponse struct {
	Messages []*model.ContactMessage `json:"messages"`
}

// AdminList handles GET /api/admin/contacts (admin only).
// Supports query params: status (all/unread/read), limit, offset.
func (h *ContactHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	opts := model.ContactListOptions{
		Status: r.URL.Query().Get("status"),
		Limit:  20,
		Offset: 0,
	}
	if opts.Status == "all" {
		opts.Status = ""
	}
	if opts.Status != "" && !model.ValidContactStatus(opts.Status) {
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}

	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			opts.Limit = n
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			opts.Offset = n
		}
	}

	messages, err := h.contactService.List(r.Context(), opts)
	if err != nil {
		slog.ErrorContext(r.Context(), "list contact messages failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed")
		return
	}

	// Return [] not null for empty lists
	if messages == nil {
		messages = []*model.ContactMessage{}
	}

	writeJSON(w, http.StatusOK, adminListResponse{Messages: messages})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/admin/contacts/{id}/status (admin only).
func (h *ContactHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id_required")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if !model.ValidContactStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}

	if err := h.contactService.UpdateStatus(r.Context(), id, req.Status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		slog.ErrorContext(r.Context(), "update contact status failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "update_failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
