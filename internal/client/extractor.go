package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gitbounty-lab/backend/pkg/api"
	"github.com/mitchellh/mapstructure"
)

// ErrMalformedExtraction marks a response the extraction model produced
// that cannot be interpreted. Callers treat it as fatal for the job.
var ErrMalformedExtraction = errors.New("malformed extraction response")

type ExtractedReward struct {
	Contributor string `mapstructure:"contributor"`
	Amount      int64  `mapstructure:"reward"`
}

type ExtractorCaller interface {
	// Extract returns the rewards announced in a free-text comment. A nil
	// slice with nil error means the comment is not an approval.
	Extract(ctx context.Context, comment string) ([]ExtractedReward, error)
}

const extractionPrompt = `You extract reward grants from maintainer comments on merged pull requests. ` +
	`Respond with JSON: {"rewards": [{"contributor": "<login without @>", "reward": <integer token amount>}]} ` +
	`or {"rewards": null} if the comment does not grant a reward.`

type aiExtractorCaller struct {
	generator api.Generator
	apiKey    string
	model     string
}

func NewAIExtractorCaller(endpoint, apiKey, model string) *aiExtractorCaller {
	return &aiExtractorCaller{
		generator: api.NewGenerator(endpoint),
		apiKey:    apiKey,
		model:     model,
	}
}

func (c *aiExtractorCaller) Extract(ctx context.Context, comment string) ([]ExtractedReward, error) {
	resp, err := c.generator.New("/v1/chat/completions").
		Header("Authorization", "Bearer "+c.apiKey).
		Body(api.JSON{
			"model":           c.model,
			"temperature":     0,
			"response_format": api.JSON{"type": "json_object"},
			"messages": []api.JSON{
				{"role": "system", "content": extractionPrompt},
				{"role": "user", "content": comment},
			},
		}).
		POST(ctx)
	if err != nil {
		return nil, err
	}

	if resp.Code != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrMalformedExtraction, resp.Code)
	}

	body, err := resp.JSON()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}

	content, err := firstChoiceContent(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}

	var loose struct {
		Rewards any `json:"rewards"`
	}
	if err := json.Unmarshal([]byte(content), &loose); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}

	if loose.Rewards == nil {
		return nil, nil
	}

	var rewards []ExtractedReward
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &rewards,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(loose.Rewards); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}

	filtered := rewards[:0]
	for _, r := range rewards {
		if r.Contributor != "" && r.Amount > 0 {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return nil, nil
	}

	return filtered, nil
}

func firstChoiceContent(body api.JSON) (string, error) {
	choices, err := body.GetArray("choices")
	if err != nil {
		return "", err
	}

	if len(choices) == 0 {
		return "", errors.New("no choices in response")
	}

	choice, ok := choices[0].(map[string]any)
	if !ok {
		return "", fmt.Errorf("invalid choice type %T", choices[0])
	}

	message, err := api.JSON(choice).GetJSON("message")
	if err != nil {
		return "", err
	}

	return message.GetString("content")
}
