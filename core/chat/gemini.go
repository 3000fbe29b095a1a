package chat

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

var NowFunc = time.Now // mockable

type (
	Part struct {
		Text string `json:"text"`
	}

	Content struct {
		Role  string `json:"role,omitempty"`
		Parts []Part `json:"parts"`
	}

	GenerationConfig struct {
		Temperature     *float64 `json:"temperature,omitempty"`
		MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
	}

	// GenerateContentRequest is the Gemini generateContent payload.
	GenerateContentRequest struct {
		Contents         []Content         `json:"contents"`
		GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
	}
)

// MapRole maps an OpenAI role to a Gemini role. Gemini has no system role here,
// so system (and unknown) messages are sent as user messages.
func MapRole(role string) string {
	if role == RoleAssistant {
		return RoleModel
	}
	return RoleUser
}

// ToGemini translates an OpenAI-style request into a Gemini generateContent request.
func ToGemini(req Request) GenerateContentRequest {
	contents := make([]Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		contents = append(contents, Content{
			Role:  MapRole(msg.Role),
			Parts: []Part{{Text: msg.Content}},
		})
	}

	gReq := GenerateContentRequest{Contents: contents}
	if req.Parameters.Temperature != nil || req.Parameters.MaxTokens != nil {
		gReq.GenerationConfig = &GenerationConfig{
			Temperature:     req.Parameters.Temperature,
			MaxOutputTokens: req.Parameters.MaxTokens,
		}
	}
	return gReq
}

// FromGemini translates a Gemini generateContent response body into an OpenAI-shaped completion.
// The first candidate's first text part becomes the assistant message; it is empty when absent.
func FromGemini(body []byte, model string) (Completion, error) {
	if !gjson.ValidBytes(body) {
		return Completion{}, errors.New("invalid JSON in generateContent response")
	}
	res := gjson.ParseBytes(body)

	completion := Completion{
		ID:      "chatcmpl-" + uuid.New().String(),
		Object:  completionObject,
		Created: NowFunc().Unix(),
		Model:   model,
		Choices: []Choice{{
			Index: 0,
			Message: Message{
				Role:    RoleAssistant,
				Content: res.Get("candidates.0.content.parts.0.text").String(),
			},
			FinishReason: mapFinishReason(res.Get("candidates.0.finishReason").String()),
		}},
	}
	if usage := res.Get("usageMetadata"); usage.Exists() {
		completion.Usage = &Usage{
			PromptTokens:     int(usage.Get("promptTokenCount").Int()),
			CompletionTokens: int(usage.Get("candidatesTokenCount").Int()),
			TotalTokens:      int(usage.Get("totalTokenCount").Int()),
		}
	}
	return completion, nil
}

func mapFinishReason(reason string) string {
	switch reason {
	case "MAX_TOKENS":
		return "length"
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT":
		return "content_filter"
	default:
		return "stop"
	}
}
