package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/elnosh/gonuts/cashu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/cashubot/internal/db"
	"github.com/susu3304/cashubot/internal/ledger"
	"github.com/susu3304/cashubot/internal/token"
)

const testMint = "https://mint.example.com"

var seq int

func mintToken(amounts ...uint64) string {
	var proofs cashu.Proofs
	for _, a := range amounts {
		seq++
		proofs = append(proofs, cashu.Proof{Amount: a, Id: "009a1f293253e41e", Secret: fmt.Sprintf("secret-%d", seq), C: "02"})
	}
	return token.Encode(testMint, proofs)
}

type failingStore struct{ err error }

func (f failingStore) GetAccount(context.Context, string) (*ledger.Account, error) { return nil, f.err }
func (f failingStore) PutAccount(context.Context, *ledger.Account) error          { return f.err }

func TestLoadFreshAccount(t *testing.T) {
	l := ledger.New(db.NewMemoryStore())

	acc, err := l.Load(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", acc.UserID)
	assert.Empty(t, acc.Balance)
	assert.NotNil(t, acc.Balance)
	assert.Empty(t, acc.PayoutAddress)
}

func TestLoadStoreFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	l := ledger.New(failingStore{err: boom})

	_, err := l.Load(context.Background(), "alice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestAppendConservesTotal(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(db.NewMemoryStore())

	deposits := [][]uint64{{64, 32, 4}, {1}, {8, 8}, {64, 32, 4}}
	var want uint64
	for _, amounts := range deposits {
		before, err := l.TotalAmount(ctx, "alice")
		require.NoError(t, err)

		tok := mintToken(amounts...)
		decoded, err := token.Decode(tok)
		require.NoError(t, err)

		require.NoError(t, l.Append(ctx, "alice", tok))
		after, err := l.TotalAmount(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, before+decoded.Amount(), after)
		want += decoded.Amount()
	}

	total, err := l.TotalAmount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, want, total)

	other, err := l.TotalAmount(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, other)
}

func TestAppendKeepsDuplicates(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(db.NewMemoryStore())
	tok := mintToken(10)

	require.NoError(t, l.Append(ctx, "alice", tok))
	require.NoError(t, l.Append(ctx, "alice", tok))

	acc, err := l.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{tok, tok}, acc.Balance)
}

func TestAppendRejectsMalformed(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	l := ledger.New(store)

	err := l.Append(ctx, "alice", "not a token")
	assert.True(t, errors.Is(err, token.ErrMalformed))
	assert.Zero(t, store.Puts())
}

func TestReplaceBalance(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(db.NewMemoryStore())
	require.NoError(t, l.Append(ctx, "alice", mintToken(100)))
	require.NoError(t, l.SetPayoutAddress(ctx, "alice", "alice@example.com"))

	change := []string{mintToken(32), mintToken(8)}
	require.NoError(t, l.ReplaceBalance(ctx, "alice", change))

	acc, err := l.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, change, acc.Balance)
	assert.Equal(t, "alice@example.com", acc.PayoutAddress)

	total, err := l.TotalAmount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(40), total)
}

func TestPayoutAddress(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(db.NewMemoryStore())

	addr, err := l.PayoutAddress(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, addr)

	require.NoError(t, l.SetPayoutAddress(ctx, "alice", "first@example.com"))
	require.NoError(t, l.SetPayoutAddress(ctx, "alice", "second@example.com"))

	addr, err = l.PayoutAddress(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "second@example.com", addr)
}

func TestTotalAmountCorruptLedger(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	require.NoError(t, store.PutAccount(ctx, &ledger.Account{
		UserID:  "alice",
		Balance: []string{mintToken(50), "cashuAgarbage"},
	}))
	l := ledger.New(store)

	total, err := l.TotalAmount(ctx, "alice")
	require.Error(t, err)
	assert.Zero(t, total)
	assert.True(t, errors.Is(err, ledger.ErrCorrupt))
	assert.True(t, errors.Is(err, token.ErrMalformed))

	var corrupt *ledger.CorruptLedgerError
	require.True(t, errors.As(err, &corrupt))
	assert.Equal(t, "alice", corrupt.UserID)
	assert.Equal(t, 1, corrupt.Index)
}

func TestProofsFlattensBalance(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(db.NewMemoryStore())
	require.NoError(t, l.Append(ctx, "alice", mintToken(64, 32)))
	require.NoError(t, l.Append(ctx, "alice", mintToken(4)))

	proofs, total, err := l.Proofs(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, proofs, 3)
	assert.Equal(t, uint64(100), total)
}
