// Package ledger keeps each user's balance of unspent encoded tokens.
//
// The ledger does not serialize callers. Read-modify-write sequences on the
// same user must be ordered by the caller.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/elnosh/gonuts/cashu"

	"github.com/susu3304/cashubot/internal/token"
)

// ErrNotFound is returned by a Store when no record exists for a user.
var ErrNotFound = errors.New("account not found")

// ErrCorrupt is matched by every CorruptLedgerError.
var ErrCorrupt = errors.New("corrupt ledger")

// CorruptLedgerError reports a stored token that no longer decodes.
type CorruptLedgerError struct {
	UserID string
	Index  int
	Err    error
}

func (e *CorruptLedgerError) Error() string {
	return fmt.Sprintf("corrupt ledger for user %s: balance entry %d: %v", e.UserID, e.Index, e.Err)
}

func (e *CorruptLedgerError) Is(target error) bool { return target == ErrCorrupt }

func (e *CorruptLedgerError) Unwrap() error { return e.Err }

// Account is the persisted record of one user.
type Account struct {
	UserID        string   `json:"user_id"`
	Balance       []string `json:"balance"`
	PayoutAddress string   `json:"payout_address,omitempty"`
}

// Store persists one Account per user with overwrite semantics.
type Store interface {
	GetAccount(ctx context.Context, userID string) (*Account, error)
	PutAccount(ctx context.Context, account *Account) error
}

type Ledger struct {
	store Store
}

func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Load returns the user's account, or a fresh empty one if none is stored.
func (l *Ledger) Load(ctx context.Context, userID string) (*Account, error) {
	acc, err := l.store.GetAccount(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return &Account{UserID: userID, Balance: []string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", userID, err)
	}
	if acc.Balance == nil {
		acc.Balance = []string{}
	}
	acc.UserID = userID
	return acc, nil
}

// Append adds an encoded token to the user's balance.
func (l *Ledger) Append(ctx context.Context, userID, encoded string) error {
	if _, err := token.Decode(encoded); err != nil {
		return err
	}
	acc, err := l.Load(ctx, userID)
	if err != nil {
		return err
	}
	acc.Balance = append(acc.Balance, encoded)
	return l.save(ctx, acc)
}

// ReplaceBalance overwrites the user's balance in one write.
func (l *Ledger) ReplaceBalance(ctx context.Context, userID string, encoded []string) error {
	acc, err := l.Load(ctx, userID)
	if err != nil {
		return err
	}
	acc.Balance = append([]string{}, encoded...)
	return l.save(ctx, acc)
}

func (l *Ledger) SetPayoutAddress(ctx context.Context, userID, address string) error {
	acc, err := l.Load(ctx, userID)
	if err != nil {
		return err
	}
	acc.PayoutAddress = address
	return l.save(ctx, acc)
}

// PayoutAddress returns "" when the user never set one.
func (l *Ledger) PayoutAddress(ctx context.Context, userID string) (string, error) {
	acc, err := l.Load(ctx, userID)
	if err != nil {
		return "", err
	}
	return acc.PayoutAddress, nil
}

// TotalAmount sums every proof in the user's balance.
func (l *Ledger) TotalAmount(ctx context.Context, userID string) (uint64, error) {
	_, total, err := l.Proofs(ctx, userID)
	return total, err
}

// Proofs decodes the whole balance into one flat proof list and its total.
// Any undecodable entry fails the call with a CorruptLedgerError.
func (l *Ledger) Proofs(ctx context.Context, userID string) (cashu.Proofs, uint64, error) {
	acc, err := l.Load(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return Flatten(acc)
}

// Flatten decodes acc's balance into one proof list.
func Flatten(acc *Account) (cashu.Proofs, uint64, error) {
	var (
		proofs cashu.Proofs
		total  uint64
	)
	for i, encoded := range acc.Balance {
		tok, err := token.Decode(encoded)
		if err != nil {
			return nil, 0, &CorruptLedgerError{UserID: acc.UserID, Index: i, Err: err}
		}
		proofs = append(proofs, tok.Proofs...)
		total += tok.Amount()
	}
	return proofs, total, nil
}

func (l *Ledger) save(ctx context.Context, acc *Account) error {
	if err := l.store.PutAccount(ctx, acc); err != nil {
		return fmt.Errorf("save account %s: %w", acc.UserID, err)
	}
	return nil
}
