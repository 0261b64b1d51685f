// Package token encodes and decodes Cashu tokens.
//
// Tokens use the V3 envelope: the prefix "cashuA" followed by base64url JSON of
// {"token":[{"mint":...,"proofs":[...]}],"unit":"sat"}. Several entries are
// accepted as long as they all name the same mint; their proofs are merged.
package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/elnosh/gonuts/cashu"
)

const (
	prefixV3  = "cashuA"
	uriScheme = "cashu:"
	unitSat   = "sat"
)

// ErrMalformed is returned for any input that is not a usable token.
var ErrMalformed = errors.New("malformed cashu token")

var reToken = regexp.MustCompile(`cashuA[A-Za-z0-9_\-+/=]+`)

// Token is a decoded token: one mint and the proofs issued by it.
type Token struct {
	Mint   string
	Proofs cashu.Proofs
}

// Amount returns the sum of the token's proof amounts.
func (t *Token) Amount() uint64 {
	return Amount(t.Proofs)
}

type envelope struct {
	Token []entry `json:"token"`
	Unit  string  `json:"unit,omitempty"`
	Memo  string  `json:"memo,omitempty"`
}

type entry struct {
	Mint   string       `json:"mint"`
	Proofs cashu.Proofs `json:"proofs"`
}

// Decode parses an encoded token. Every failure wraps ErrMalformed.
func Decode(s string) (*Token, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, uriScheme)
	if !strings.HasPrefix(s, prefixV3) {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrMalformed, prefixV3)
	}

	raw, err := decodeBase64(strings.TrimPrefix(s, prefixV3))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(env.Token) == 0 {
		return nil, fmt.Errorf("%w: no token entries", ErrMalformed)
	}

	tok := &Token{}
	for n, e := range env.Token {
		mint := strings.TrimRight(strings.TrimSpace(e.Mint), "/")
		if mint == "" {
			return nil, fmt.Errorf("%w: entry %d is missing a mint url", ErrMalformed, n)
		}
		if tok.Mint == "" {
			if err := checkMintURL(mint); err != nil {
				return nil, err
			}
			tok.Mint = mint
		} else if mint != tok.Mint {
			return nil, fmt.Errorf("%w: entries from more than one mint (%s, %s)", ErrMalformed, tok.Mint, mint)
		}
		for i, p := range e.Proofs {
			if p.Amount == 0 {
				return nil, fmt.Errorf("%w: entry %d proof %d has zero amount", ErrMalformed, n, i)
			}
		}
		tok.Proofs = append(tok.Proofs, e.Proofs...)
	}
	if len(tok.Proofs) == 0 {
		return nil, fmt.Errorf("%w: empty proof list", ErrMalformed)
	}

	return tok, nil
}

// checkMintURL accepts absolute http and https URLs only.
func checkMintURL(mint string) error {
	u, err := url.Parse(mint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: mint url %q is not http(s)", ErrMalformed, mint)
	}
	return nil
}

// Encode serializes proofs from mint into a token string.
func Encode(mint string, proofs cashu.Proofs) string {
	env := envelope{
		Token: []entry{{Mint: mint, Proofs: proofs}},
		Unit:  unitSat,
	}
	// Marshal cannot fail: the envelope holds only strings, integers and slices.
	raw, _ := json.Marshal(env)
	return prefixV3 + base64.URLEncoding.EncodeToString(raw)
}

// Amount sums the amounts of proofs.
func Amount(proofs cashu.Proofs) uint64 {
	var total uint64
	for _, p := range proofs {
		total += p.Amount
	}
	return total
}

// IsCandidate reports whether text looks like it is meant to be a token.
func IsCandidate(text string) bool {
	text = strings.TrimPrefix(strings.TrimSpace(text), uriScheme)
	return strings.HasPrefix(text, "cashu")
}

// Find returns the first V3 token embedded in free text.
func Find(text string) (string, bool) {
	m := reToken.FindString(text)
	return m, m != ""
}

// decodeBase64 accepts padded or unpadded, URL-safe or standard alphabets.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	s = strings.NewReplacer("+", "-", "/", "_").Replace(s)
	if s == "" {
		return nil, errors.New("empty payload")
	}
	return base64.RawURLEncoding.DecodeString(s)
}
