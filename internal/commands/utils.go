package commands

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/susu3304/cashubot/internal/messages"
	"github.com/susu3304/cashubot/internal/wallet"
)

// Wallet is the engine surface the Discord handlers drive.
type Wallet interface {
	Receive(ctx context.Context, userID, encoded string) (uint64, error)
	Balance(ctx context.Context, userID string) (uint64, error)
	Send(ctx context.Context, userID string, amount uint64) (string, error)
	SetPayoutAddress(ctx context.Context, userID, address string) error
	PayoutAddress(ctx context.Context, userID string) (string, error)
	AttemptClaim(ctx context.Context, req wallet.ClaimRequest) (wallet.ClaimResult, error)
}

// Responder answers interactions. *discordgo.Session satisfies it.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// ValidAddress reports whether address has the shape of a Lightning address.
func ValidAddress(address string) bool {
	return address != "" && strings.Contains(address, "@")
}

// UserID returns the invoking user in guilds and DMs alike.
func UserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// RespondEphemeral replies with text only the invoking user can see.
func RespondEphemeral(s Responder, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// TokenFile wraps an encoded token as a text attachment.
func TokenFile(encoded string) *discordgo.File {
	return &discordgo.File{
		Name:        messages.TokenFileName,
		ContentType: "text/plain",
		Reader:      strings.NewReader(encoded),
	}
}

func getIntOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) *int64 {
	for _, o := range opts {
		if o.Name == name {
			v := o.IntValue()
			return &v
		}
	}
	return nil
}

func getStringOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) *string {
	for _, o := range opts {
		if o.Name == name {
			v := o.StringValue()
			return &v
		}
	}
	return nil
}
