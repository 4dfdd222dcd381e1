// Package adapter translates Discord interactions into command invocations
// and command outcomes into reply text.
package adapter

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/kapu/gpt-discord-bot-go/internal/domain"
)

// Top-level slash command names.
const (
	CommandNameFixedPrompts = "fixed-prompts"
	CommandNameGptChannels  = "gpt-channels"
	CommandNameWebhooks     = "webhooks"
)

// ParsedCommand is a resolved slash command path with its typed arguments.
type ParsedCommand struct {
	Type   domain.CommandType
	Params map[string]any
	Path   string
}

// ParseInteraction resolves the command/group/subcommand path of data.
func ParseInteraction(data discordgo.ApplicationCommandInteractionData) *ParsedCommand {
	path := []string{data.Name}
	options := data.Options

	// descend through at most a subcommand group and a subcommand
	for depth := 0; depth < 2 && len(options) == 1; depth++ {
		opt := options[0]
		if opt == nil {
			break
		}
		if opt.Type != discordgo.ApplicationCommandOptionSubCommandGroup &&
			opt.Type != discordgo.ApplicationCommandOptionSubCommand {
			break
		}
		path = append(path, opt.Name)
		options = opt.Options
	}

	joined := strings.Join(path, " ")
	return &ParsedCommand{
		Type:   resolveType(joined),
		Params: collectParams(options),
		Path:   joined,
	}
}

func resolveType(path string) domain.CommandType {
	switch path {
	case CommandNameFixedPrompts + " set", CommandNameFixedPrompts + " custom set":
		return domain.CommandFixedPromptSet
	case CommandNameFixedPrompts + " custom remove":
		return domain.CommandFixedPromptRemove
	case CommandNameFixedPrompts + " custom view":
		return domain.CommandFixedPromptView
	case CommandNameFixedPrompts + " template view":
		return domain.CommandTemplateView
	case CommandNameFixedPrompts + " template select":
		return domain.CommandTemplateSelect
	case CommandNameGptChannels + " add":
		return domain.CommandGptChannelAdd
	case CommandNameGptChannels + " remove":
		return domain.CommandGptChannelRemove
	case CommandNameWebhooks + " add":
		return domain.CommandWebhookAdd
	case CommandNameWebhooks + " remove":
		return domain.CommandWebhookRemove
	default:
		return domain.CommandUnknown
	}
}

func collectParams(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]any {
	params := make(map[string]any, len(options))
	for _, opt := range options {
		if opt == nil {
			continue
		}
		switch opt.Type {
		case discordgo.ApplicationCommandOptionString:
			if s, ok := opt.Value.(string); ok {
				params[opt.Name] = s
			}
		case discordgo.ApplicationCommandOptionInteger:
			if n, ok := toInt(opt.Value); ok {
				params[opt.Name] = n
			}
		default:
			params[opt.Name] = opt.Value
		}
	}
	return params
}

// toInt accepts the shapes an integer option takes after JSON decoding.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

// StringParam and IntParam read typed arguments from ParsedCommand.Params.
func StringParam(params map[string]any, name string) string {
	s, _ := params[name].(string)
	return s
}

func IntParam(params map[string]any, name string) (int, bool) {
	n, ok := params[name].(int)
	return n, ok
}

// ChannelKindOf reduces a discordgo channel type to a domain.ChannelKind.
func ChannelKindOf(t discordgo.ChannelType) domain.ChannelKind {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return domain.ChannelKindGuildText
	case discordgo.ChannelTypeGuildNews:
		return domain.ChannelKindGuildNews
	case discordgo.ChannelTypeGuildNewsThread, discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread:
		return domain.ChannelKindThread
	case discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice:
		return domain.ChannelKindVoice
	case discordgo.ChannelTypeDM:
		return domain.ChannelKindDM
	case discordgo.ChannelTypeGroupDM:
		return domain.ChannelKindGroupDM
	default:
		return domain.ChannelKindOther
	}
}
