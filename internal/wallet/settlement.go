package wallet

import (
	"context"
	"errors"

	"github.com/elnosh/gonuts/cashu"

	"github.com/susu3304/cashubot/internal/ledger"
	"github.com/susu3304/cashubot/internal/metrics"
	"github.com/susu3304/cashubot/internal/mint"
	"github.com/susu3304/cashubot/internal/token"
)

// Send settles amount out of the user's balance and returns it as one encoded
// token. The balance is replaced by the change, one token per change proof.
//
// Nothing is written unless the mint split succeeds. A split that succeeds
// followed by a failed write is reported to the caller and logged with the
// change tokens, since the consumed proofs are no longer spendable.
func (s *Service) Send(ctx context.Context, userID string, amount uint64) (encoded string, err error) {
	defer func() { metrics.ObserveOperation("send", err) }()

	unlock := s.users.Lock(userID)
	defer unlock()

	acc, err := s.ledger.Load(ctx, userID)
	if err != nil {
		return "", err
	}
	proofs, total, err := ledger.Flatten(acc)
	if err != nil {
		return "", err
	}
	if amount == 0 || amount > total {
		return "", &mint.InsufficientBalanceError{Requested: amount, Available: total}
	}

	m := s.dial(s.defaultMint)
	res, err := m.Split(ctx, proofs, amount)
	if errors.Is(err, mint.ErrSplitUnconfirmed) {
		// The stored proofs may already be spent at the mint.
		s.logger.Error().Err(err).Str("user", userID).Uint64("amount", amount).Msg("split outcome unknown, balance left as stored")
		return "", err
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("user", userID).Uint64("amount", amount).Msg("split failed, balance untouched")
		return "", err
	}

	change := encodeEach(m.URL(), res.Change)
	if err := s.ledger.ReplaceBalance(ctx, userID, change); err != nil {
		s.logger.Error().
			Err(err).
			Str("user", userID).
			Strs("change", change).
			Str("send", token.Encode(m.URL(), res.Send)).
			Msg("split succeeded but balance could not be saved")
		return "", err
	}

	s.logger.Info().
		Str("user", userID).
		Uint64("amount", amount).
		Uint64("remaining", total-amount).
		Int("change_tokens", len(change)).
		Msg("token settled from balance")
	return token.Encode(m.URL(), res.Send), nil
}

func encodeEach(mintURL string, proofs cashu.Proofs) []string {
	out := make([]string, 0, len(proofs))
	for _, p := range proofs {
		out = append(out, token.Encode(mintURL, cashu.Proofs{p}))
	}
	return out
}
