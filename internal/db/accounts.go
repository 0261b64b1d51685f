package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/susu3304/cashubot/internal/ledger"
)

// GetAccount loads one user's record. Missing rows map to ledger.ErrNotFound.
func (db *DB) GetAccount(ctx context.Context, userID string) (*ledger.Account, error) {
	var (
		acc    ledger.Account
		payout *string
	)
	err := db.pool.QueryRow(ctx,
		"SELECT user_id, balance, payout_address FROM wallet_accounts WHERE user_id = $1",
		userID,
	).Scan(&acc.UserID, &acc.Balance, &payout)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if payout != nil {
		acc.PayoutAddress = *payout
	}
	return &acc, nil
}

// PutAccount overwrites the whole record for account.UserID.
func (db *DB) PutAccount(ctx context.Context, account *ledger.Account) error {
	var payout *string
	if account.PayoutAddress != "" {
		payout = &account.PayoutAddress
	}
	balance := account.Balance
	if balance == nil {
		balance = []string{}
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO wallet_accounts (user_id, balance, payout_address)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = EXCLUDED.balance, payout_address = EXCLUDED.payout_address, updated_at = CURRENT_TIMESTAMP`,
		account.UserID, balance, payout,
	)
	return err
}
