package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/susu3304/cashubot/internal/commands"
	"github.com/susu3304/cashubot/internal/ledger"
	"github.com/susu3304/cashubot/internal/messages"
	"github.com/susu3304/cashubot/internal/mint"
	"github.com/susu3304/cashubot/internal/token"
)

type walletResponse struct {
	UserID        string `json:"user_id"`
	Balance       uint64 `json:"balance"`
	PayoutAddress string `json:"payout_address,omitempty"`
}

type receiveRequest struct {
	Token string `json:"token"`
}

type sendRequest struct {
	Amount uint64 `json:"amount"`
}

type payoutRequest struct {
	Address string `json:"address"`
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Protected handlers
func (a *API) handleWallet(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).UserID

	balance, err := a.wallet.Balance(r.Context(), userID)
	if err != nil {
		a.writeWalletError(w, "balance", userID, err)
		return
	}
	address, err := a.wallet.PayoutAddress(r.Context(), userID)
	if err != nil {
		a.writeWalletError(w, "payout", userID, err)
		return
	}

	writeJSON(w, http.StatusOK, walletResponse{UserID: userID, Balance: balance, PayoutAddress: address})
}

func (a *API) handleReceive(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).UserID

	var req receiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeJSONError(w, http.StatusBadRequest, "token is required")
		return
	}

	amount, err := a.wallet.Receive(r.Context(), userID, req.Token)
	if err != nil {
		a.writeWalletError(w, "receive", userID, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"amount": amount})
}

func (a *API) handleSend(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).UserID

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount == 0 {
		writeJSONError(w, http.StatusBadRequest, messages.InvalidAmount)
		return
	}

	encoded, err := a.wallet.Send(r.Context(), userID, req.Amount)
	if err != nil {
		a.writeWalletError(w, "send", userID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"amount": req.Amount,
		"token":  encoded,
	})
}

func (a *API) handlePayout(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).UserID

	var req payoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !commands.ValidAddress(req.Address) {
		writeJSONError(w, http.StatusBadRequest, messages.InvalidAddress)
		return
	}

	if err := a.wallet.SetPayoutAddress(r.Context(), userID, req.Address); err != nil {
		a.writeWalletError(w, "payout", userID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"payout_address": req.Address})
}

func (a *API) writeWalletError(w http.ResponseWriter, op, userID string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error().Err(err).Str("op", op).Str("user", userID).Msg("wallet request failed")
	}
	writeJSONError(w, status, messages.ErrorText(err))
}

func statusFor(err error) int {
	var (
		insufficient *mint.InsufficientBalanceError
		unsupported  *mint.UnsupportedMintError
	)
	switch {
	case errors.Is(err, token.ErrMalformed):
		return http.StatusBadRequest
	case errors.As(err, &insufficient), errors.As(err, &unsupported):
		return http.StatusUnprocessableEntity
	case errors.Is(err, mint.ErrUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ledger.ErrCorrupt):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
