package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/susu3304/cashubot/internal/commands"
	"github.com/susu3304/cashubot/internal/messages"
	"github.com/susu3304/cashubot/internal/token"
	"github.com/susu3304/cashubot/internal/wallet"
)

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info().Str("user", event.User.Username).Msg("connected")

	if _, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, "", commands.GetCommands()); err != nil {
		b.logger.Error().Err(err).Msg("failed to register application commands")
		return
	}
	b.logger.Info().Msg("registered application commands")
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	b.handleMessage(s, m)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.handleInteraction(s, i)
}

func (b *Bot) handleMessage(s session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	content := strings.TrimSpace(m.Content)
	if m.GuildID == "" {
		b.handleDirect(s, m, content)
		return
	}
	if token.IsCandidate(content) {
		b.handleShare(s, m, content)
	}
}

func (b *Bot) handleDirect(s session, m *discordgo.MessageCreate, content string) {
	ctx := context.Background()
	userID := m.Author.ID
	cmd := ParseCommand(content)

	var (
		reply string
		files []*discordgo.File
	)
	switch cmd.Kind {
	case CommandStart:
		reply = messages.StartTutorial
	case CommandAdd:
		if !commands.ValidAddress(cmd.Arg) {
			reply = messages.InvalidAddress
			break
		}
		if err := b.wallet.SetPayoutAddress(ctx, userID, cmd.Arg); err != nil {
			reply = b.errorReply("add", userID, err)
			break
		}
		reply = messages.AddressSet
	case CommandBalance:
		total, err := b.wallet.Balance(ctx, userID)
		if err != nil {
			reply = b.errorReply("balance", userID, err)
			break
		}
		reply = messages.Balance(total)
	case CommandSend:
		amount, err := strconv.ParseUint(cmd.Arg, 10, 64)
		if err != nil || amount == 0 {
			reply = messages.InvalidAmount
			break
		}
		encoded, err := b.wallet.Send(ctx, userID, amount)
		if err != nil {
			reply = b.errorReply("send", userID, err)
			break
		}
		var attachment string
		reply, attachment = messages.Sent(amount, encoded)
		if attachment != "" {
			files = append(files, commands.TokenFile(attachment))
		}
	case CommandToken:
		reply = b.deposit(ctx, userID, cmd.Arg)
	default:
		reply = messages.Help
	}

	var err error
	if len(files) > 0 {
		_, err = s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{Content: reply, Files: files})
	} else {
		_, err = s.ChannelMessageSend(m.ChannelID, reply)
	}
	if err != nil {
		b.logger.Error().Err(err).Str("user", userID).Msg("failed to send direct message reply")
	}
}

// deposit credits a token sent by DM. Deposits are accepted only once the user
// has a payout address.
func (b *Bot) deposit(ctx context.Context, userID, encoded string) string {
	address, err := b.wallet.PayoutAddress(ctx, userID)
	if err != nil {
		return b.errorReply("deposit", userID, err)
	}
	if address == "" {
		return messages.Help
	}

	if _, err := b.wallet.Receive(ctx, userID, encoded); err != nil {
		if errors.Is(err, token.ErrMalformed) {
			return messages.Help
		}
		return b.errorReply("deposit", userID, err)
	}
	return messages.TokenAdded
}

// handleShare reposts a token shared in a guild channel as a pending message
// carrying the claim button, and removes the original. The token travels in
// the embed description, which has room for any token a user message can hold.
func (b *Bot) handleShare(s session, m *discordgo.MessageCreate, content string) {
	encoded, ok := token.Find(content)
	if !ok {
		return
	}
	if _, err := token.Decode(encoded); err != nil {
		b.logger.Debug().Err(err).Str("channel", m.ChannelID).Msg("ignoring malformed shared token")
		return
	}
	if len(encoded) > messages.MaxEmbedDescription {
		b.logger.Warn().Int("length", len(encoded)).Str("channel", m.ChannelID).Msg("shared token too long to repost")
		return
	}

	buttons := []discordgo.MessageComponent{
		discordgo.Button{
			Label:    messages.ButtonPending,
			Style:    discordgo.SecondaryButton,
			CustomID: claimButtonID,
		},
	}
	if link := messages.ClaimLink(b.claimURL, encoded); link != "" {
		buttons = append(buttons, discordgo.Button{
			Label: messages.ButtonClaimLink,
			Style: discordgo.LinkButton,
			URL:   link,
		})
	}

	_, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content: messages.Pending(m.Author.Username),
		Embeds: []*discordgo.MessageEmbed{
			{Description: encoded},
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: buttons},
		},
	})
	if err != nil {
		b.logger.Error().Err(err).Str("channel", m.ChannelID).Msg("failed to post shared token")
		return
	}

	if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
		b.logger.Warn().Err(err).Str("channel", m.ChannelID).Msg("failed to remove original token message")
	}
}

// sharedToken recovers the token from a pending message.
func sharedToken(msg *discordgo.Message) (string, bool) {
	for _, e := range msg.Embeds {
		if e == nil {
			continue
		}
		if encoded, ok := token.Find(e.Description); ok {
			return encoded, true
		}
	}
	return token.Find(msg.Content)
}

func (b *Bot) handleInteraction(s session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleApplicationCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.handleClaim(s, i)
	}
}

func (b *Bot) handleApplicationCommand(s session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "balance":
		commands.HandleBalance(s, i, b.wallet)
	case "send":
		commands.HandleSend(s, i, b.wallet)
	case "payout":
		commands.HandlePayout(s, i, b.wallet)
	case "help":
		commands.HandleHelp(s, i)
	}
}

// handleClaim runs a press of the claim button. On the pending → claimed
// transition the message is edited to its terminal text and the button is
// removed; otherwise only the presser gets a reply.
func (b *Bot) handleClaim(s session, i *discordgo.InteractionCreate) {
	if i.MessageComponentData().CustomID != claimButtonID || i.Message == nil {
		return
	}
	msg := i.Message
	claimer := commands.UserID(i)

	encoded, ok := sharedToken(msg)
	if !ok {
		b.respondEphemeral(s, i, messages.GenericError)
		return
	}

	res, err := b.wallet.AttemptClaim(context.Background(), wallet.ClaimRequest{
		MessageID:   msg.ID,
		SharedToken: encoded,
		ClaimerID:   claimer,
		ButtonState: wallet.StatePending,
	})
	if err != nil {
		b.respondEphemeral(s, i, b.errorReply("claim", claimer, err))
		return
	}
	if !res.Transitioned {
		b.respondEphemeral(s, i, messages.StillPending)
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    messages.Claimed(messages.Sharer(msg.Content)),
			Embeds:     []*discordgo.MessageEmbed{},
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		b.logRespondError(err, msg.ID)
	}
}

func (b *Bot) respondEphemeral(s session, i *discordgo.InteractionCreate, content string) {
	if err := commands.RespondEphemeral(s, i, content); err != nil {
		b.logRespondError(err, i.ID)
	}
}

func (b *Bot) logRespondError(err error, id string) {
	if strings.Contains(strings.ToLower(err.Error()), "not modified") {
		b.logger.Debug().Err(err).Str("id", id).Msg("message already up to date")
		return
	}
	b.logger.Error().Err(err).Str("id", id).Msg("failed to respond to interaction")
}

func (b *Bot) errorReply(op, userID string, err error) string {
	b.logger.Warn().Err(err).Str("op", op).Str("user", userID).Msg("wallet operation failed")
	return messages.ErrorText(err)
}
