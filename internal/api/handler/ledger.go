package handler

import (
	"errors"
	"net/http"

	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/service"
)

// AdminHandler serves the global ledger, the security audit trail and
// on-demand reconciliation.
type AdminHandler struct {
	wallets *service.WalletService
	audit   *service.AuditService
	recon   *service.ReconciliationService
}

func NewAdminHandler(wallets *service.WalletService, audit *service.AuditService, recon *service.ReconciliationService) *AdminHandler {
	return &AdminHandler{wallets: wallets, audit: audit, recon: recon}
}

func (h *AdminHandler) ListLedger(w http.ResponseWriter, r *http.Request) {
	order, n, err := pageParams(r)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-query", err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{
		"transactions": h.wallets.History(order, n),
	})
}

func (h *AdminHandler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]any{
		"events": h.audit.Events(),
	})
}

// Reconcile runs a reconciliation pass. An imbalance is reported with 409 and
// the full report.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.recon.Run(r.Context())
	if err != nil {
		if report != nil && errors.Is(err, models.ErrInternalInconsistency) {
			RespondJSON(w, http.StatusConflict, report)
			return
		}
		RespondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, report)
}
