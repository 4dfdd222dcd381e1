package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	CodeBotError            = "BOT_ERROR"
	CodeAPIError            = "API_ERROR"
	CodeValidation          = "VALIDATION_ERROR"
	CodeCache               = "CACHE_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeIndex               = "INDEX_ERROR"
	CodeTemplateNotViewable = "TEMPLATE_NOT_VIEWABLE"
	CodeUnsupportedContext  = "UNSUPPORTED_CONTEXT"
	CodeRemoteCapability    = "REMOTE_CAPABILITY_ERROR"
	CodeTransientStore      = "TRANSIENT_STORE_FAILURE"
)

// Sentinels for errors.Is. Matching is by Code, so any BotError (or a type
// embedding one) with the same code matches regardless of message.
var (
	ErrValidation          = &BotError{Code: CodeValidation}
	ErrNotFound            = &BotError{Code: CodeNotFound}
	ErrIndex               = &BotError{Code: CodeIndex}
	ErrTemplateNotViewable = &BotError{Code: CodeTemplateNotViewable}
	ErrUnsupportedContext  = &BotError{Code: CodeUnsupportedContext}
	ErrRemoteCapability    = &BotError{Code: CodeRemoteCapability}
	ErrTransientStore      = &BotError{Code: CodeTransientStore}
	ErrAPI                 = &BotError{Code: CodeAPIError}
	ErrCache               = &BotError{Code: CodeCache}
)

type BotError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *BotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BotError) Unwrap() error {
	return e.Cause
}

func (e *BotError) Is(target error) bool {
	t, ok := target.(*BotError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func NewBotError(message, code string, statusCode int, context map[string]any) *BotError {
	return &BotError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *BotError) WithCause(cause error) *BotError {
	e.Cause = cause
	return e
}

// Is and As forward to the standard library so callers importing this package
// as "errors" do not need a second import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// CodeOf returns the code of the first BotError in err's chain, or "".
func CodeOf(err error) string {
	var be *BotError
	if stderrors.As(err, &be) {
		return be.Code
	}
	switch {
	case stderrors.Is(err, ErrValidation):
		return CodeValidation
	case stderrors.Is(err, ErrNotFound):
		return CodeNotFound
	case stderrors.Is(err, ErrIndex):
		return CodeIndex
	case stderrors.Is(err, ErrTemplateNotViewable):
		return CodeTemplateNotViewable
	case stderrors.Is(err, ErrUnsupportedContext):
		return CodeUnsupportedContext
	case stderrors.Is(err, ErrRemoteCapability):
		return CodeRemoteCapability
	case stderrors.Is(err, ErrTransientStore):
		return CodeTransientStore
	}
	return ""
}

type APIError struct {
	*BotError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

type ValidationError struct {
	*BotError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*BotError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

// NotFoundError reports that there is no row (or remote entity) to act on.
type NotFoundError struct {
	*BotError
	Entity string
}

func NewNotFoundError(message, entity string) *NotFoundError {
	return &NotFoundError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeNotFound,
			StatusCode: 404,
			Context: map[string]any{
				"entity": entity,
			},
		},
		Entity: entity,
	}
}

// IndexError reports a 1-based template index outside [1, Length].
type IndexError struct {
	*BotError
	Index  int
	Length int
}

func NewIndexError(index, length int) *IndexError {
	return &IndexError{
		BotError: &BotError{
			Message:    fmt.Sprintf("index %d out of range [1, %d]", index, length),
			Code:       CodeIndex,
			StatusCode: 400,
			Context: map[string]any{
				"index":  index,
				"length": length,
			},
		},
		Index:  index,
		Length: length,
	}
}

func NewTemplateNotViewableError() *BotError {
	return NewBotError("template-derived prompts cannot be viewed", CodeTemplateNotViewable, 403, nil)
}

func NewUnsupportedContextError(message string) *BotError {
	return NewBotError(message, CodeUnsupportedContext, 400, nil)
}

// RemoteCapabilityError reports a channel that cannot host the requested
// remote resource (e.g. webhooks in a DM).
type RemoteCapabilityError struct {
	*BotError
	ChannelID string
	Kind      string
}

func NewRemoteCapabilityError(channelID, kind string) *RemoteCapabilityError {
	return &RemoteCapabilityError{
		BotError: &BotError{
			Message:    fmt.Sprintf("channel %s (%s) does not support webhooks", channelID, kind),
			Code:       CodeRemoteCapability,
			StatusCode: 400,
			Context: map[string]any{
				"channel_id": channelID,
				"kind":       kind,
			},
		},
		ChannelID: channelID,
		Kind:      kind,
	}
}

// StoreError is a store call that did not confirm. Callers may retry later.
type StoreError struct {
	*BotError
	Operation string
}

func NewStoreError(message, operation string, cause error) *StoreError {
	return &StoreError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeTransientStore,
			StatusCode: 503,
			Context: map[string]any{
				"operation": operation,
			},
			Cause: cause,
		},
		Operation: operation,
	}
}
