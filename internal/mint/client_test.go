package mint

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elnosh/gonuts/cashu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proofs(amounts ...uint64) cashu.Proofs {
	out := make(cashu.Proofs, 0, len(amounts))
	for i, a := range amounts {
		out = append(out, cashu.Proof{Amount: a, Id: "00ad268c4d1f5826", Secret: string(rune('a' + i)), C: "02"})
	}
	return out
}

func TestSpentStatus(t *testing.T) {
	tests := []struct {
		name   string
		status SpentStatus
		want   Status
	}{
		{name: "all spent", status: SpentStatus{Spent: 5, Total: 5}, want: StatusSpent},
		{name: "partial spend is pending", status: SpentStatus{Spent: 3, Total: 5}, want: StatusPending},
		{name: "none spent", status: SpentStatus{Spent: 0, Total: 5}, want: StatusPending},
		{name: "empty set", status: SpentStatus{}, want: StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Status())
		})
	}
}

func TestCheckSpent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/check", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req checkRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Proofs, 5)

		json.NewEncoder(w).Encode(checkResponse{Spendable: []bool{false, false, false, true, true}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	status, err := c.CheckSpent(context.Background(), proofs(1, 2, 4, 8, 16))
	require.NoError(t, err)
	assert.Equal(t, SpentStatus{Spent: 3, Total: 5}, status)
	assert.Equal(t, StatusPending, status.Status())
}

func TestCheckSpentCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(checkResponse{Spendable: []bool{false}})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).CheckSpent(context.Background(), proofs(1, 2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestMintErrorsAreUnavailable(t *testing.T) {
	t.Run("split error status is not unconfirmed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, time.Second).Split(context.Background(), proofs(4), 2)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnavailable))
		assert.False(t, errors.Is(err, ErrSplitUnconfirmed))
	})

	t.Run("error status with detail", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(errorResponse{Detail: "proofs already spent", Code: 11001})
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, time.Second).Split(context.Background(), proofs(4), 2)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnavailable))
		assert.False(t, errors.Is(err, ErrSplitUnconfirmed))
		assert.Contains(t, err.Error(), "proofs already spent")
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewClient(url, time.Second).CheckSpent(context.Background(), proofs(1))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnavailable))
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer srv.Close()
		defer close(release)

		_, err := NewClient(srv.URL, 50*time.Millisecond).CheckSpent(context.Background(), proofs(1))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnavailable))
	})
}

func TestSplit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/split", r.URL.Path)

		var req splitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, uint64(60), req.Amount)

		json.NewEncoder(w).Encode(splitResponse{
			Send:   proofs(32, 16, 8, 4),
			Change: proofs(32, 8),
		})
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, time.Second).Split(context.Background(), proofs(64, 32, 4), 60)
	require.NoError(t, err)

	var send, change uint64
	for _, p := range res.Send {
		send += p.Amount
	}
	for _, p := range res.Change {
		change += p.Amount
	}
	assert.Equal(t, uint64(60), send)
	assert.Equal(t, uint64(40), change)
}

func TestSplitRejectsBadAmountsWithoutCallingMint(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	for _, amount := range []uint64{0, 101} {
		_, err := c.Split(context.Background(), proofs(64, 32, 4), amount)

		var insufficient *InsufficientBalanceError
		require.True(t, errors.As(err, &insufficient), "amount %d: got %v", amount, err)
		assert.Equal(t, amount, insufficient.Requested)
		assert.Equal(t, uint64(100), insufficient.Available)
	}
	assert.Zero(t, calls.Load())
}

func TestSplitTimeoutIsUnconfirmed(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, 50*time.Millisecond).Split(context.Background(), proofs(64), 60)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSplitUnconfirmed))
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, int32(1), calls.Load())
}

func TestSplitUndecodableReplyIsUnconfirmed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway</html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Split(context.Background(), proofs(64), 60)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSplitUnconfirmed))
}

func TestSplitMismatchedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(splitResponse{Send: proofs(32), Change: proofs(8)})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Split(context.Background(), proofs(64), 60)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.True(t, errors.Is(err, ErrSplitUnconfirmed))
}

func TestPoolReusesClients(t *testing.T) {
	p := NewPool(time.Second)
	a := p.Client("https://mint.example.com/")
	b := p.Client("https://mint.example.com")
	c := p.Client("https://other.example.com")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "https://mint.example.com", a.URL())
}

func TestPoolIsBounded(t *testing.T) {
	p := newPool(time.Second, 2)
	first := p.Client("https://a.example.com")
	p.Client("https://b.example.com")
	p.Client("https://c.example.com")

	assert.Equal(t, 2, p.Len())
	assert.NotSame(t, first, p.Client("https://a.example.com"))
}
