// Package chat translates OpenAI-style chat requests to Gemini and back, and generates learning plans.
package chat

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/kid"
)

var (
	planTemperature = 0.7
	planMaxTokens   = 2048
)

type (
	// Generator calls Gemini's generateContent and returns the raw response body.
	// Non-2xx responses are reported as *core.UpstreamError.
	Generator interface {
		GenerateContent(ctx context.Context, apiKey, model string, req GenerateContentRequest) ([]byte, error)
	}

	Service interface {
		Complete(ctx context.Context, apiKey string, req Request) (Completion, error)
		GeneratePlan(ctx context.Context, apiKey, description string, k kid.Kid) (string, error)
	}

	service struct {
		gen          Generator
		defaultModel string
	}
)

var _ Service = (*service)(nil)

func NewService(gen Generator, defaultModel string) Service {
	return &service{gen: gen, defaultModel: defaultModel}
}

// Complete runs an OpenAI-style chat completion against Gemini.
// No network call is made when apiKey is empty.
func (svc *service) Complete(ctx context.Context, apiKey string, req Request) (Completion, error) {
	apiKey = core.CleanString(apiKey)
	if apiKey == "" {
		return Completion{}, core.ErrMissingAPIKey
	}

	model := req.Model
	if model == "" {
		model = svc.defaultModel
	}

	body, err := svc.gen.GenerateContent(ctx, apiKey, model, ToGemini(req))
	if err != nil {
		return Completion{}, errors.Wrap(err, "generating content")
	}
	completion, err := FromGemini(body, model)
	if err != nil {
		return Completion{}, errors.Wrap(err, "translating response")
	}
	return completion, nil
}

// GeneratePlan asks the model for a learning plan for the given task description and kid.
func (svc *service) GeneratePlan(ctx context.Context, apiKey, description string, k kid.Kid) (string, error) {
	prompt, err := planPrompt(description, k)
	if err != nil {
		return "", err
	}

	completion, err := svc.Complete(ctx, apiKey, Request{
		Messages: []Message{
			{Role: RoleSystem, Content: planSystemPrompt},
			{Role: RoleUser, Content: prompt},
		},
		Parameters: Parameters{Temperature: &planTemperature, MaxTokens: &planMaxTokens},
	})
	if err != nil {
		return "", err
	}
	return completion.Content(), nil
}

// GeneratePlanRequest is the body of a plan generation request.
type GeneratePlanRequest struct {
	Description string  `json:"taskDescription" validate:"required,max=2000"`
	Kid         kid.Kid `json:"kidProfile"`
	APIKey      string  `json:"apiKey"`
}

func (r *GeneratePlanRequest) Validate(validate *validator.Validate) error {
	r.Description = core.CleanString(r.Description)
	r.APIKey = core.CleanString(r.APIKey)
	return validate.Struct(r)
}
