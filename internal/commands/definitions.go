package commands

import "github.com/bwmarrin/discordgo"

func GetCommands() []*discordgo.ApplicationCommand {
	minAmount := 1.0
	return []*discordgo.ApplicationCommand{
		{
			Name:         "balance",
			Description:  "Show your wallet balance",
			DMPermission: boolPtr(true),
		},
		{
			Name:         "send",
			Description:  "Create a Cashu token from your wallet balance",
			DMPermission: boolPtr(true),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Amount in sats",
					Required:    true,
					MinValue:    &minAmount,
				},
			},
		},
		{
			Name:         "payout",
			Description:  "Set or show your Lightning address",
			DMPermission: boolPtr(true),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "address",
					Description: "Lightning address, e.g. you@example.com",
					Required:    false,
				},
			},
		},
		{
			Name:         "help",
			Description:  "How to use the Cashu bot",
			DMPermission: boolPtr(true),
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}
