package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/service"
	"github.com/shopspring/decimal"
)

type TransferHandler struct {
	svc *service.TransferService
}

func NewTransferHandler(svc *service.TransferService) *TransferHandler {
	return &TransferHandler{svc: svc}
}

type transferRequest struct {
	SrcWalletID  string          `json:"src_wallet_id"`
	DestWalletID string          `json:"dest_wallet_id"`
	DestUserID   string          `json:"dest_user_id"`
	Amount       decimal.Decimal `json:"amount"`
}

// CreateTransfer moves funds out of a wallet owned by the caller. The caller
// also names the owner of the destination; both claims are verified.
func (h *TransferHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if strings.TrimSpace(req.SrcWalletID) == "" || strings.TrimSpace(req.DestWalletID) == "" {
		RespondError(w, r, http.StatusBadRequest, "request/missing-wallet", "src_wallet_id and dest_wallet_id are required")
		return
	}
	if strings.TrimSpace(req.DestUserID) == "" {
		RespondError(w, r, http.StatusBadRequest, "request/missing-destination-owner", "dest_user_id is required")
		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}

	txn, err := h.svc.Transfer(r.Context(), service.TransferCmd{
		SrcUserID:    actorID,
		DestUserID:   req.DestUserID,
		SrcWalletID:  req.SrcWalletID,
		DestWalletID: req.DestWalletID,
		Amount:       amount,
	})
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, txn)
}
