// Package messages holds the user-facing copy shared by the Discord bot and
// the slash commands.
package messages

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/susu3304/cashubot/internal/ledger"
	"github.com/susu3304/cashubot/internal/mint"
	"github.com/susu3304/cashubot/internal/token"
)

const (
	Help = `Welcome to the Cashu bot!

To get started, set your Lightning address:
/add <your-lightning-address>

For example:
/add example@eenentwintig.net

After that you can send Cashu tokens here and they are added to your wallet.
Commands:
/balance - Check your wallet balance
/send <amount> - Create a Cashu token from your wallet balance`

	StartTutorial = `Welcome to the Cashu bot!

Let's set up your Lightning address first. Send it with:
/add <your-lightning-address>

After setting your Lightning address you can send Cashu tokens here and they are added to your wallet.`

	ButtonPending      = "Token Status: Pending"
	ButtonClaimLink    = "Claim to Lightning"
	TokenFileName      = "cashu-token.txt"
	TokenAdded         = "Token added to your wallet."
	AddressSet         = "Lightning address set successfully."
	InvalidAddress     = "Invalid Lightning address. Please try again."
	InvalidAmount      = "Invalid amount. Please try again."
	StillPending       = "This token has not been claimed yet."
	GenericError       = "Error processing your request. Please try again later."
	malformedToken     = "That doesn't look like a valid Cashu token."
	mintUnavailable    = "The mint could not be reached. Nothing was changed, please try again later."
	splitUnconfirmed   = "The mint did not confirm the transfer. Your stored balance was left as it was, but the mint may already have processed it. Please check your balance and contact the bot operator before trying again."
	unsupportedFormat  = "Tokens from %s are not accepted here. Only tokens from %s can be deposited or claimed."
	corruptLedger      = "Your wallet data is damaged, so the request was not attempted. Please contact the bot operator."
	insufficientFormat = "Insufficient balance: you asked for %d sats but only have %d sats."
)

// Discord limits.
const (
	MaxContentLength    = 2000
	MaxEmbedDescription = 4096
	MaxButtonURL        = 512
)

// Balance renders a balance reply.
func Balance(sats uint64) string {
	return fmt.Sprintf("Your balance is %d sats.", sats)
}

// Sent renders the reply carrying a freshly settled token. When the token
// does not fit in one message the reply says so and attachment holds the
// token, to be sent as a file named TokenFileName.
func Sent(sats uint64, encoded string) (content, attachment string) {
	content = fmt.Sprintf("Here is your Cashu token for %d sats:\n\n%s", sats, encoded)
	if len(content) <= MaxContentLength {
		return content, ""
	}
	return fmt.Sprintf("Here is your Cashu token for %d sats. It is too long for a message, so it is attached as %s.", sats, TokenFileName), encoded
}

// Pending renders the text of a shared-token message. The token itself is
// carried in the message embed.
func Pending(sharer string) string {
	return fmt.Sprintf("@%s shared a Cashu token 🥜", sharer)
}

// ClaimLink returns the web redeem link for encoded, or "" when there is no
// redeem page or the link is too long for a link button.
func ClaimLink(claimBaseURL, encoded string) string {
	if claimBaseURL == "" {
		return ""
	}
	link := claimBaseURL + "?token=" + url.QueryEscape(encoded)
	if len(link) > MaxButtonURL {
		return ""
	}
	return link
}

// Claimed renders the terminal text of a shared-token message.
func Claimed(sharer string) string {
	return fmt.Sprintf("@%s shared a Cashu token 🥜\n\nCashu token has been claimed ✅", sharer)
}

// Sharer extracts the sharer's name from a Pending or Claimed message.
func Sharer(content string) string {
	first, _, _ := strings.Cut(content, " ")
	return strings.TrimPrefix(first, "@")
}

// ErrorText turns an engine error into a reply for the user.
func ErrorText(err error) string {
	var (
		insufficient *mint.InsufficientBalanceError
		unsupported  *mint.UnsupportedMintError
	)
	switch {
	case errors.As(err, &insufficient):
		return fmt.Sprintf(insufficientFormat, insufficient.Requested, insufficient.Available)
	case errors.Is(err, token.ErrMalformed):
		return malformedToken
	case errors.As(err, &unsupported):
		return fmt.Sprintf(unsupportedFormat, shorten(unsupported.Mint, 100), unsupported.Want)
	case errors.Is(err, mint.ErrSplitUnconfirmed):
		return splitUnconfirmed
	case errors.Is(err, mint.ErrUnavailable):
		return mintUnavailable
	case errors.Is(err, ledger.ErrCorrupt):
		return corruptLedger
	default:
		return GenericError
	}
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
