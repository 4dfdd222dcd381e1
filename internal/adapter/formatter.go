package adapter

import (
	"fmt"
	"strings"

	"github.com/kapu/gpt-discord-bot-go/internal/constants"
	"github.com/kapu/gpt-discord-bot-go/internal/domain"
	"github.com/kapu/gpt-discord-bot-go/internal/util"
	"github.com/kapu/gpt-discord-bot-go/pkg/errors"
)

const (
	msgTryAgainLater       = "Please try again later. 😢"
	msgDirectMessage       = "You cannot use this command in DM message! 🚫"
	msgPromptEmpty         = "The fixed prompt message cannot be empty. 🚫"
	msgPromptRemoved       = "Fixed prompt for this channel is successfully removed. ✅"
	msgNoPrompt            = "You have no fixed prompt message. Try setting one!"
	msgNoPromptToRemove    = "You have no fixed prompt message to remove."
	msgTemplateNotViewable = "Template messages cannot be viewed. 😢"
	msgNoTemplates         = "There is no template found in this server! 😢"
	msgBadTemplateIndex    = "There is no template with the index. Please try again! 😢"
	msgGptChannelOn        = "This channel is now a GPT channel! 🤖"
	msgGptChannelOff       = "This channel is no longer a GPT channel! 🤖"
	msgNotGptChannel       = "This channel is not registered as a GPT channel. 🚫"
	msgWebhookNameEmpty    = "Webhook name cannot be empty. 🚫"
	msgWebhookNameInvalid  = "Webhook name is invalid. 🚫"
	msgWebhookUnsupported  = "Webhooks are not supported in this channel. 🚫"
	msgWebhookAdded        = "Webhook successfully added."
	msgWebhookRemoved      = "Webhook successfully removed."
	msgNoWebhook           = "There is no webhook to remove."
)

// ResponseFormatter renders the user-facing reply of every command.
type ResponseFormatter struct {
	maxLength int
}

func NewResponseFormatter() *ResponseFormatter {
	return &ResponseFormatter{maxLength: constants.DiscordLimits.MessageLength}
}

func (f *ResponseFormatter) PromptSet(text string) string {
	return f.clip(fmt.Sprintf("Successfully set the fixed prompt!\n`%s`", text))
}

func (f *ResponseFormatter) PromptRemoved() string {
	return msgPromptRemoved
}

func (f *ResponseFormatter) PromptView(text string) string {
	return f.clip(fmt.Sprintf("Your fixed prompt setting message:\n `%s`", text))
}

// TemplateList joins prepared "n. name" lines. An empty catalog gets its own
// message rather than an empty reply.
func (f *ResponseFormatter) TemplateList(lines []string) string {
	if len(lines) == 0 {
		return msgNoTemplates
	}
	return f.clip(strings.Join(lines, "\n"))
}

func (f *ResponseFormatter) TemplateSelected(name string) string {
	return f.clip(fmt.Sprintf("Now using the following fixed prompt template: \n `%s`", name))
}

func (f *ResponseFormatter) GptChannel(enabled bool) string {
	if enabled {
		return msgGptChannelOn
	}
	return msgGptChannelOff
}

func (f *ResponseFormatter) WebhookAdded() string {
	return msgWebhookAdded
}

func (f *ResponseFormatter) WebhookRemoved() string {
	return msgWebhookRemoved
}

func (f *ResponseFormatter) DirectMessageNotAllowed() string {
	return msgDirectMessage
}

func (f *ResponseFormatter) TryAgainLater() string {
	return msgTryAgainLater
}

// FormatError maps a failed command to its single reply line. Unknown and
// transient failures read "try again later".
func (f *ResponseFormatter) FormatError(cmd domain.CommandType, err error) string {
	switch errors.CodeOf(err) {
	case errors.CodeValidation:
		return f.validationMessage(err)
	case errors.CodeNotFound:
		switch cmd {
		case domain.CommandFixedPromptRemove:
			return msgNoPromptToRemove
		case domain.CommandFixedPromptView:
			return msgNoPrompt
		case domain.CommandGptChannelRemove:
			return msgNotGptChannel
		case domain.CommandWebhookRemove:
			return msgNoWebhook
		}
	case errors.CodeIndex:
		return msgBadTemplateIndex
	case errors.CodeTemplateNotViewable:
		return msgTemplateNotViewable
	case errors.CodeUnsupportedContext:
		return msgDirectMessage
	case errors.CodeRemoteCapability:
		return msgWebhookUnsupported
	}
	return msgTryAgainLater
}

func (f *ResponseFormatter) validationMessage(err error) string {
	var ve *errors.ValidationError
	if !errors.As(err, &ve) {
		return msgTryAgainLater
	}
	switch ve.Field {
	case "WEBHOOK_NAME":
		if s, _ := ve.Value.(string); s == "" {
			return msgWebhookNameEmpty
		}
		return msgWebhookNameInvalid
	case "message":
		if _, tooLong := ve.Value.(int); tooLong {
			return fmt.Sprintf("The fixed prompt message must be at most %d characters. 🚫", domain.MaxPromptLength)
		}
		return msgPromptEmpty
	}
	return msgTryAgainLater
}

func (f *ResponseFormatter) clip(s string) string {
	return util.TruncateString(s, f.maxLength)
}
