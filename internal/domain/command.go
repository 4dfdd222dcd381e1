package domain

type CommandType string

const (
	CommandFixedPromptSet    CommandType = "fixed_prompt_set"
	CommandFixedPromptRemove CommandType = "fixed_prompt_remove"
	CommandFixedPromptView   CommandType = "fixed_prompt_view"
	CommandTemplateView      CommandType = "template_view"
	CommandTemplateSelect    CommandType = "template_select"
	CommandGptChannelAdd     CommandType = "gpt_channel_add"
	CommandGptChannelRemove  CommandType = "gpt_channel_remove"
	CommandWebhookAdd        CommandType = "webhook_add"
	CommandWebhookRemove     CommandType = "webhook_remove"
	CommandUnknown           CommandType = "unknown"
)

func (c CommandType) String() string {
	return string(c)
}

func (c CommandType) IsValid() bool {
	switch c {
	case CommandFixedPromptSet, CommandFixedPromptRemove, CommandFixedPromptView,
		CommandTemplateView, CommandTemplateSelect,
		CommandGptChannelAdd, CommandGptChannelRemove,
		CommandWebhookAdd, CommandWebhookRemove:
		return true
	default:
		return false
	}
}
