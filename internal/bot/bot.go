package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/susu3304/cashubot/internal/commands"
	clog "github.com/susu3304/cashubot/internal/log"
)

// claimButtonID marks the button of a shared-token message in pending state.
const claimButtonID = "claim:pending"

// session is the part of *discordgo.Session the handlers use.
type session interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

type Bot struct {
	session  *discordgo.Session
	wallet   commands.Wallet
	claimURL string
	logger   zerolog.Logger
}

// New creates the Discord session and wires the handlers. claimURL, when set,
// is linked from shared-token messages.
func New(token string, w commands.Wallet, claimURL string) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	bot := &Bot{
		session:  session,
		wallet:   w,
		claimURL: claimURL,
		logger:   clog.Bot,
	}

	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onMessageCreate)
	session.AddHandler(bot.onInteractionCreate)

	session.Identify.Intents = discordgo.IntentsAll

	return bot, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	b.logger.Info().Msg("Discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}
