package wallet

import (
	"context"
	"fmt"

	"github.com/susu3304/cashubot/internal/metrics"
	"github.com/susu3304/cashubot/internal/mint"
)

// ClaimState is the state of a shared-token message, as shown by its button.
type ClaimState string

const (
	StatePending ClaimState = "pending"
	StateClaimed ClaimState = "claimed"
)

// ClaimRequest is one button press on a shared-token message.
type ClaimRequest struct {
	MessageID   string
	SharedToken string
	ClaimerID   string
	ButtonState ClaimState
}

// ClaimResult tells the transport whether to perform the terminal edit.
type ClaimResult struct {
	Transitioned bool
	Amount       uint64
}

// AttemptClaim checks whether the shared token has been spent and, if so,
// credits it to the claimer and reports the pending → claimed transition.
//
// The transition happens at most once per message: presses on a message whose
// button is no longer pending, or which this process already transitioned,
// return without contacting the mint, as do tokens from a mint other than the
// default one. Presses on the same message are serialized. A failed check
// leaves the message pending.
func (s *Service) AttemptClaim(ctx context.Context, req ClaimRequest) (res ClaimResult, err error) {
	result := "pending"
	defer func() {
		if err != nil {
			result = "error"
		}
		metrics.ObserveClaim(result)
	}()

	if req.ButtonState != StatePending {
		result = "skipped"
		return ClaimResult{}, nil
	}

	unlockMsg := s.messages.Lock(req.MessageID)
	defer unlockMsg()

	if s.claimed.Contains(req.MessageID) {
		result = "skipped"
		return ClaimResult{}, nil
	}

	tok, err := s.decode(req.SharedToken)
	if err != nil {
		return ClaimResult{}, err
	}

	status, err := s.dial(s.defaultMint).CheckSpent(ctx, tok.Proofs)
	if err != nil {
		s.logger.Warn().Err(err).Str("message", req.MessageID).Str("mint", tok.Mint).Msg("claim check failed")
		return ClaimResult{}, err
	}
	if status.Status() != mint.StatusSpent {
		s.logger.Debug().
			Str("message", req.MessageID).
			Int("spent", status.Spent).
			Int("total", status.Total).
			Msg("shared token still pending")
		return ClaimResult{}, nil
	}

	unlockUser := s.users.Lock(req.ClaimerID)
	err = s.ledger.Append(ctx, req.ClaimerID, req.SharedToken)
	unlockUser()
	if err != nil {
		return ClaimResult{}, fmt.Errorf("credit claimer %s: %w", req.ClaimerID, err)
	}
	s.claimed.Add(req.MessageID, struct{}{})

	result = "claimed"
	s.logger.Info().
		Str("message", req.MessageID).
		Str("claimer", req.ClaimerID).
		Uint64("amount", tok.Amount()).
		Msg("shared token claimed")
	return ClaimResult{Transitioned: true, Amount: tok.Amount()}, nil
}
