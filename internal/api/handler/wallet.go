package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	svc *service.WalletService
}

func NewWalletHandler(svc *service.WalletService) *WalletHandler {
	return &WalletHandler{svc: svc}
}

type balanceResponse struct {
	WalletID string `json:"wallet_id"`
	Balance  int64  `json:"balance"`
	Display  string `json:"display"`
	Version  uint64 `json:"version"`
}

func (h *WalletHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		ID             string           `json:"id"`
		OwnerID        string           `json:"owner_id"`
		InitialBalance *decimal.Decimal `json:"initial_balance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	owner := strings.TrimSpace(req.OwnerID)
	if owner == "" {
		owner = actorID
	}
	if owner != actorID && !isAdmin {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return
	}

	var initial int64
	if req.InitialBalance != nil {
		if !isAdmin && !req.InitialBalance.IsZero() {
			RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "only admins may fund new wallets")
			return
		}
		initial, err = domain.ParseBalance(*req.InitialBalance)
		if err != nil {
			RespondServiceError(w, r, err)
			return
		}
	}

	wallet, err := h.svc.CreateWallet(r.Context(), service.CreateWalletCmd{
		ID:             req.ID,
		OwnerID:        owner,
		InitialBalance: initial,
	})
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, wallet)
}

// ListWallets is the admin overview of every wallet.
func (h *WalletHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	overview, err := h.svc.Overview(r.Context())
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, overview)
}

func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.authorizedWallet(w, r)
	if !ok {
		return
	}
	RespondJSON(w, http.StatusOK, balanceResponse{
		WalletID: wallet.ID,
		Balance:  wallet.Balance,
		Display:  domain.NewMoney(wallet.Balance).String(),
		Version:  wallet.Version,
	})
}

func (h *WalletHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorizedWallet(w, r); !ok {
		return
	}
	order, n, err := pageParams(r)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-query", err.Error())
		return
	}

	stmt, err := h.svc.AccountStatement(r.Context(), chi.URLParam(r, "id"), order, n)
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, stmt)
}

// authorizedWallet loads the wallet in the path and checks the caller may see it.
func (h *WalletHandler) authorizedWallet(w http.ResponseWriter, r *http.Request) (*models.Wallet, bool) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return nil, false
	}

	wallet, err := h.svc.GetWallet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		RespondServiceError(w, r, err)
		return nil, false
	}
	if !isAdmin && wallet.OwnerID != actorID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return nil, false
	}
	return wallet, true
}
