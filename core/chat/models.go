package chat

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mwalimu/core"
)

// Roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleModel     = "model" // Gemini's assistant role
)

const completionObject = "chat.completion"

// Message is an OpenAI-style chat message.
type Message struct {
	Role    string `json:"role" validate:"required"`
	Content string `json:"content"`
}

type Parameters struct {
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
	MaxTokens   *int     `json:"maxTokens,omitempty" validate:"omitempty,min=1"`
}

// Request is an OpenAI-style chat payload.
type Request struct {
	Model      string     `json:"model,omitempty"`
	Messages   []Message  `json:"messages" validate:"required,min=1,dive"`
	Parameters Parameters `json:"parameters"`
}

func (r *Request) Validate(validate *validator.Validate) error {
	r.Model = core.CleanString(r.Model)
	for i := range r.Messages {
		r.Messages[i].Role = core.CleanString(r.Messages[i].Role, true /* lower */)
	}
	return validate.Struct(r)
}

// Completion is an OpenAI-shaped chat completion object.
type Completion struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Content returns the message content of the first choice.
func (c Completion) Content() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Message.Content
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
