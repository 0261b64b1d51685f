package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/susu3304/cashubot/internal/ledger"
)

const accountPrefix = "account/"

// BadgerStore keeps accounts in an embedded Badger database, one JSON value
// per user under "account/<id>".
type BadgerStore struct {
	db *badger.DB
}

func NewBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "Cannot acquire directory lock") {
			return nil, fmt.Errorf("database at %s is locked by another process (is another cashubot running?): %w", path, err)
		}
		return nil, fmt.Errorf("open database at %s: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) GetAccount(_ context.Context, userID string) (*ledger.Account, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(accountKey(userID))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get: %w", err)
	}

	var acc ledger.Account
	if err := json.Unmarshal(val, &acc); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", userID, err)
	}
	return &acc, nil
}

func (b *BadgerStore) PutAccount(_ context.Context, account *ledger.Account) error {
	val, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encode account %s: %w", account.UserID, err)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(accountKey(account.UserID), val)
	})
	if err != nil {
		return fmt.Errorf("badger put: %w", err)
	}
	return nil
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

func accountKey(userID string) []byte {
	return []byte(accountPrefix + userID)
}
