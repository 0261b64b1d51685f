package commands

import (
	"context"

	"github.com/bwmarrin/discordgo"

	clog "github.com/susu3304/cashubot/internal/log"
	"github.com/susu3304/cashubot/internal/messages"
)

func HandleBalance(s Responder, i *discordgo.InteractionCreate, w Wallet) {
	total, err := w.Balance(context.Background(), UserID(i))
	if err != nil {
		respond(s, i, messages.ErrorText(err))
		return
	}
	respond(s, i, messages.Balance(total))
}

func HandleSend(s Responder, i *discordgo.InteractionCreate, w Wallet) {
	data := i.ApplicationCommandData()
	amount := getIntOption(data.Options, "amount")
	if amount == nil || *amount <= 0 {
		respond(s, i, messages.InvalidAmount)
		return
	}

	encoded, err := w.Send(context.Background(), UserID(i), uint64(*amount))
	if err != nil {
		respond(s, i, messages.ErrorText(err))
		return
	}
	content, attachment := messages.Sent(uint64(*amount), encoded)
	var files []*discordgo.File
	if attachment != "" {
		files = append(files, TokenFile(attachment))
	}
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
			Files:   files,
		},
	})
	if err != nil {
		clog.Bot.Error().Err(err).Str("command", "send").Msg("failed to respond to command")
	}
}

func HandlePayout(s Responder, i *discordgo.InteractionCreate, w Wallet) {
	data := i.ApplicationCommandData()
	userID := UserID(i)

	address := getStringOption(data.Options, "address")
	if address == nil {
		current, err := w.PayoutAddress(context.Background(), userID)
		if err != nil {
			respond(s, i, messages.ErrorText(err))
			return
		}
		if current == "" {
			respond(s, i, messages.Help)
			return
		}
		respond(s, i, "Your Lightning address is "+current)
		return
	}

	if !ValidAddress(*address) {
		respond(s, i, messages.InvalidAddress)
		return
	}
	if err := w.SetPayoutAddress(context.Background(), userID, *address); err != nil {
		respond(s, i, messages.ErrorText(err))
		return
	}
	respond(s, i, messages.AddressSet)
}

func HandleHelp(s Responder, i *discordgo.InteractionCreate) {
	respond(s, i, messages.Help)
}

func respond(s Responder, i *discordgo.InteractionCreate, content string) {
	if err := RespondEphemeral(s, i, content); err != nil {
		clog.Bot.Error().Err(err).Str("command", i.ApplicationCommandData().Name).Msg("failed to respond to command")
	}
}
