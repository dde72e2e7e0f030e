package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "folio/pkg/domain-errors"
	"folio/pkg/platform/audit"
	"folio/pkg/platform/httputil"
	"folio/pkg/platform/middleware/admin"
)

// AuditHandler serves the operator view of the audit trail.
type AuditHandler struct {
	lister audit.Lister
	token  string
	logger *slog.Logger
}

func NewAuditHandler(lister audit.Lister, token string, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{lister: lister, token: token, logger: logger}
}

type AuditListResponse struct {
	Events []audit.Event `json:"events"`
}

func (h *AuditHandler) Register(r chi.Router) {
	r.With(admin.RequireAdminToken(h.token, h.logger)).Get("/admin/audit", h.handleList)
}

func (h *AuditHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	signer := r.URL.Query().Get("signer")
	if signer == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "signer is required"))
		return
	}
	events, err := h.lister.ListBySigner(ctx, signer)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, AuditListResponse{Events: events})
}
