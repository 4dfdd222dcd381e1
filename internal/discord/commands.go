package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/kapu/gpt-discord-bot-go/internal/adapter"
	"github.com/kapu/gpt-discord-bot-go/internal/domain"
)

var sendMessagesPermission int64 = discordgo.PermissionSendMessages

// ApplicationCommands returns the slash command tree registered at startup.
func ApplicationCommands() []*discordgo.ApplicationCommand {
	minIndex := 1.0

	messageOption := func() *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "message",
			Description: "Fixed prompt message",
			Required:    true,
			MaxLength:   domain.MaxPromptLength,
		}
	}
	subcommand := func(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        name,
			Description: description,
			Options:     options,
		}
	}
	group := func(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
			Name:        name,
			Description: description,
			Options:     options,
		}
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:                     adapter.CommandNameFixedPrompts,
			Description:              "Manage fixed prompts",
			DefaultMemberPermissions: &sendMessagesPermission,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("set", "Set a fixed prompt", messageOption()),
				group("custom", "Your own fixed prompt",
					subcommand("set", "Set a fixed prompt", messageOption()),
					subcommand("remove", "Remove your fixed prompt"),
					subcommand("view", "View your fixed prompt"),
				),
				group("template", "Server prompt templates",
					subcommand("view", "List the templates of this server"),
					subcommand("select", "Use a template as your fixed prompt", &discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "index",
						Description: "Template number from the list",
						Required:    true,
						MinValue:    &minIndex,
					}),
				),
			},
		},
		{
			Name:                     adapter.CommandNameGptChannels,
			Description:              "Configure GPT channels",
			DefaultMemberPermissions: &sendMessagesPermission,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("add", "Make this channel a GPT channel"),
				subcommand("remove", "Stop using this channel as a GPT channel"),
			},
		},
		{
			Name:                     adapter.CommandNameWebhooks,
			Description:              "Manage the bot webhook",
			DefaultMemberPermissions: &sendMessagesPermission,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("add", "Add the bot webhook to this channel"),
				subcommand("remove", "Remove the bot webhook from this channel"),
			},
		},
	}
}
