// Package mint is a client for a single Cashu mint endpoint.
//
// The mint is consumed as an opaque service with two calls: a spent-state
// check for a proof set, and a split of a proof set into an exact send amount
// plus change. Blind signing and key management happen behind the endpoint.
package mint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elnosh/gonuts/cashu"
	"github.com/rs/zerolog"

	clog "github.com/susu3304/cashubot/internal/log"
	"github.com/susu3304/cashubot/internal/metrics"
	"github.com/susu3304/cashubot/internal/token"
)

// ErrUnavailable wraps every network or protocol failure talking to the mint.
var ErrUnavailable = errors.New("mint unavailable")

// ErrSplitUnconfirmed marks a split whose request reached the wire but whose
// outcome is unknown: a timeout, a dropped connection or an unusable reply.
// The mint may have consumed the input proofs. It always comes together with
// ErrUnavailable.
var ErrSplitUnconfirmed = errors.New("split outcome unknown")

// errNotApplied marks failures where the mint certainly did not act: the
// request was never sent, or the mint answered with a non-200 status.
var errNotApplied = errors.New("request not applied")

// UnsupportedMintError is returned for tokens issued by a mint other than the
// one the wallet settles through.
type UnsupportedMintError struct {
	Mint string
	Want string
}

func (e *UnsupportedMintError) Error() string {
	return fmt.Sprintf("unsupported mint %s: only %s is accepted", e.Mint, e.Want)
}

// InsufficientBalanceError is returned when a split asks for more than the
// proofs hold, or for nothing at all.
type InsufficientBalanceError struct {
	Requested uint64
	Available uint64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %d, available %d", e.Requested, e.Available)
}

// Status is the claim-relevant classification of a proof set.
type Status string

const (
	StatusPending Status = "pending"
	StatusSpent   Status = "spent"
)

// SpentStatus counts spent proofs in a checked set.
type SpentStatus struct {
	Spent int
	Total int
}

// Status is spent only when every proof in the set is spent. A partially
// spent set is still pending.
func (s SpentStatus) Status() Status {
	if s.Total > 0 && s.Spent == s.Total {
		return StatusSpent
	}
	return StatusPending
}

// SplitResult is the outcome of a split: Send sums to the requested amount,
// Change to the remainder.
type SplitResult struct {
	Send   cashu.Proofs
	Change cashu.Proofs
}

// Client talks to one mint URL for its whole lifetime.
type Client struct {
	url    string
	http   *http.Client
	logger zerolog.Logger
}

// NewClient creates a client bound to mintURL. Requests time out after
// timeout; zero means no client-side limit.
func NewClient(mintURL string, timeout time.Duration) *Client {
	return &Client{
		url:    strings.TrimRight(mintURL, "/"),
		http:   &http.Client{Timeout: timeout},
		logger: clog.Mint.With().Str("mint", mintURL).Logger(),
	}
}

// URL returns the mint URL the client is bound to.
func (c *Client) URL() string {
	return c.url
}

type checkRequest struct {
	Proofs cashu.Proofs `json:"proofs"`
}

type checkResponse struct {
	Spendable []bool `json:"spendable"`
}

// CheckSpent asks the mint which of proofs are spent.
func (c *Client) CheckSpent(ctx context.Context, proofs cashu.Proofs) (status SpentStatus, err error) {
	start := time.Now()
	defer func() { metrics.ObserveMintRequest("check", start, err) }()

	var resp checkResponse
	if err := c.post(ctx, "/check", checkRequest{Proofs: proofs}, &resp); err != nil {
		return SpentStatus{}, err
	}
	if len(resp.Spendable) != len(proofs) {
		return SpentStatus{}, fmt.Errorf("%w: check returned %d states for %d proofs", ErrUnavailable, len(resp.Spendable), len(proofs))
	}

	status.Total = len(proofs)
	for _, spendable := range resp.Spendable {
		if !spendable {
			status.Spent++
		}
	}
	c.logger.Debug().Int("spent", status.Spent).Int("total", status.Total).Msg("checked proofs")
	return status, nil
}

type splitRequest struct {
	Proofs cashu.Proofs `json:"proofs"`
	Amount uint64       `json:"amount"`
}

type splitResponse struct {
	Send   cashu.Proofs `json:"send"`
	Change cashu.Proofs `json:"change"`
}

// Split exchanges proofs for a set worth exactly amount plus change. The
// input proofs are consumed by the mint on success. Split is not idempotent
// and is never retried here.
func (c *Client) Split(ctx context.Context, proofs cashu.Proofs, amount uint64) (result *SplitResult, err error) {
	available := token.Amount(proofs)
	if amount == 0 || amount > available {
		return nil, &InsufficientBalanceError{Requested: amount, Available: available}
	}

	start := time.Now()
	defer func() { metrics.ObserveMintRequest("split", start, err) }()

	var resp splitResponse
	if err := c.post(ctx, "/split", splitRequest{Proofs: proofs, Amount: amount}, &resp); err != nil {
		if errors.Is(err, errNotApplied) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSplitUnconfirmed, err)
	}

	sent, change := token.Amount(resp.Send), token.Amount(resp.Change)
	if sent != amount || change != available-amount {
		c.logger.Error().
			Uint64("requested", amount).
			Uint64("send", sent).
			Uint64("change", change).
			Uint64("input", available).
			Msg("split returned mismatched amounts")
		return nil, fmt.Errorf("%w: %w: split returned send=%d change=%d for input=%d amount=%d",
			ErrSplitUnconfirmed, ErrUnavailable, sent, change, available, amount)
	}

	return &SplitResult{Send: resp.Send, Change: resp.Change}, nil
}

type errorResponse struct {
	Detail string `json:"detail"`
	Code   int    `json:"code"`
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encode %s request: %v", errNotApplied, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %w: %v", ErrUnavailable, errNotApplied, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "cashubot/1.0 (+https://github.com/susu3304/cashubot)")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read %s response: %v", ErrUnavailable, path, err)
	}

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Detail != "" {
			return fmt.Errorf("%w: %w: %s returned status %d: %s (code %d)", ErrUnavailable, errNotApplied, path, resp.StatusCode, e.Detail, e.Code)
		}
		return fmt.Errorf("%w: %w: %s returned status %d", ErrUnavailable, errNotApplied, path, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrUnavailable, path, err)
	}
	return nil
}
