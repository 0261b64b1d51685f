package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/elnosh/gonuts/cashu"

	"github.com/susu3304/cashubot/internal/mint"
	"github.com/susu3304/cashubot/internal/token"
)

const testMint = "https://mint.example.com"

// fakeMint splits proofs into power-of-two denominations and answers spent
// checks from a fixed status.
type fakeMint struct {
	url string

	mu         sync.Mutex
	seq        int
	splitErr   error
	checkErr   error
	spent      map[string]bool
	splitCalls int
	checkCalls int
}

func newFakeMint(url string) *fakeMint {
	return &fakeMint{url: url, spent: make(map[string]bool)}
}

func (f *fakeMint) URL() string { return f.url }

func (f *fakeMint) CheckSpent(_ context.Context, proofs cashu.Proofs) (mint.SpentStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkCalls++
	if f.checkErr != nil {
		return mint.SpentStatus{}, f.checkErr
	}
	status := mint.SpentStatus{Total: len(proofs)}
	for _, p := range proofs {
		if f.spent[p.Secret] {
			status.Spent++
		}
	}
	return status, nil
}

func (f *fakeMint) Split(_ context.Context, proofs cashu.Proofs, amount uint64) (*mint.SplitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.splitCalls++
	if f.splitErr != nil {
		return nil, f.splitErr
	}
	total := token.Amount(proofs)
	if amount == 0 || amount > total {
		return nil, &mint.InsufficientBalanceError{Requested: amount, Available: total}
	}
	for _, p := range proofs {
		f.spent[p.Secret] = true
	}
	return &mint.SplitResult{
		Send:   f.denominate(amount),
		Change: f.denominate(total - amount),
	}, nil
}

// spend marks proofs as spent, as if someone redeemed them.
func (f *fakeMint) spend(proofs cashu.Proofs) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range proofs {
		f.spent[p.Secret] = true
	}
}

func (f *fakeMint) calls() (split, check int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.splitCalls, f.checkCalls
}

func (f *fakeMint) denominate(amount uint64) cashu.Proofs {
	var out cashu.Proofs
	for bit := uint64(1); amount > 0; bit <<= 1 {
		if amount&bit != 0 {
			out = append(out, f.proof(bit))
			amount &^= bit
		}
	}
	return out
}

func (f *fakeMint) proof(amount uint64) cashu.Proof {
	f.seq++
	return cashu.Proof{Amount: amount, Id: "009a1f293253e41e", Secret: fmt.Sprintf("%s-%d", f.url, f.seq), C: "02"}
}

// issue mints a fresh token worth the given proof amounts.
func (f *fakeMint) issue(amounts ...uint64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var proofs cashu.Proofs
	for _, a := range amounts {
		proofs = append(proofs, f.proof(a))
	}
	return token.Encode(f.url, proofs)
}
