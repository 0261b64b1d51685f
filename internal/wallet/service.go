// Package wallet is the custody and settlement engine: it receives tokens into
// a user's ledger, settles exact amounts out of it through the mint, and runs
// the claim state machine for shared tokens.
//
// Every read-modify-write on one user's ledger runs under that user's lock, so
// operations for the same user apply in dispatch order while different users
// proceed in parallel.
package wallet

import (
	"context"
	"fmt"
	"strings"

	"github.com/elnosh/gonuts/cashu"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/susu3304/cashubot/internal/ledger"
	clog "github.com/susu3304/cashubot/internal/log"
	"github.com/susu3304/cashubot/internal/metrics"
	"github.com/susu3304/cashubot/internal/mint"
	"github.com/susu3304/cashubot/internal/token"
)

// Mint is the part of a mint client the engine needs.
type Mint interface {
	URL() string
	CheckSpent(ctx context.Context, proofs cashu.Proofs) (mint.SpentStatus, error)
	Split(ctx context.Context, proofs cashu.Proofs, amount uint64) (*mint.SplitResult, error)
}

// DialFunc returns the client for a mint URL.
type DialFunc func(mintURL string) Mint

// claimedCacheSize bounds the in-process record of transitioned messages.
const claimedCacheSize = 4096

type Service struct {
	ledger      *ledger.Ledger
	dial        DialFunc
	defaultMint string

	users    *keyedMutex
	messages *keyedMutex
	claimed  *lru.Cache[string, struct{}]

	logger zerolog.Logger
}

// NewService builds the engine. Only tokens issued by defaultMint are
// accepted, and settlement and claim checks both go through it.
func NewService(l *ledger.Ledger, dial DialFunc, defaultMint string) (*Service, error) {
	claimed, err := lru.New[string, struct{}](claimedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create claimed-message cache: %w", err)
	}
	return &Service{
		ledger:      l,
		dial:        dial,
		defaultMint: strings.TrimRight(defaultMint, "/"),
		users:       newKeyedMutex(),
		messages:    newKeyedMutex(),
		claimed:     claimed,
		logger:      clog.Wallet,
	}, nil
}

// DefaultMint returns the URL used for settlement.
func (s *Service) DefaultMint() string {
	return s.defaultMint
}

// Receive validates an encoded token and credits it to userID. It returns the
// token's amount.
func (s *Service) Receive(ctx context.Context, userID, encoded string) (amount uint64, err error) {
	defer func() { metrics.ObserveOperation("receive", err) }()

	tok, err := s.decode(encoded)
	if err != nil {
		return 0, err
	}

	unlock := s.users.Lock(userID)
	defer unlock()

	if err := s.ledger.Append(ctx, userID, encoded); err != nil {
		return 0, err
	}
	s.logger.Info().Str("user", userID).Str("mint", tok.Mint).Uint64("amount", tok.Amount()).Msg("token received")
	return tok.Amount(), nil
}

// decode parses encoded and rejects tokens from any mint but the default one.
func (s *Service) decode(encoded string) (*token.Token, error) {
	tok, err := token.Decode(encoded)
	if err != nil {
		return nil, err
	}
	if tok.Mint != s.defaultMint {
		return nil, &mint.UnsupportedMintError{Mint: tok.Mint, Want: s.defaultMint}
	}
	return tok, nil
}

// Balance returns the user's spendable total.
func (s *Service) Balance(ctx context.Context, userID string) (uint64, error) {
	unlock := s.users.Lock(userID)
	defer unlock()

	return s.ledger.TotalAmount(ctx, userID)
}

func (s *Service) SetPayoutAddress(ctx context.Context, userID, address string) error {
	unlock := s.users.Lock(userID)
	defer unlock()

	return s.ledger.SetPayoutAddress(ctx, userID, address)
}

func (s *Service) PayoutAddress(ctx context.Context, userID string) (string, error) {
	unlock := s.users.Lock(userID)
	defer unlock()

	return s.ledger.PayoutAddress(ctx, userID)
}
