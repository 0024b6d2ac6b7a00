package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"workpassport/internal/domain/credential"
	"workpassport/internal/domain/verification"
	"workpassport/internal/errs"
	"workpassport/internal/ports"
)

const defaultModel = "gpt-4o-mini"

// Low temperature keeps the classifier output stable across retries of
// the same record.
const temperature = 0.2

type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	CompanyPolicy string
}

// Classifier implements both oracle ports on the OpenAI chat
// completions API with JSON-object response format. It returns errors
// for transport and schema failures; fail-open defaults are applied by
// the agents.
type Classifier struct {
	client openai.Client
	cfg    Config
}

var (
	_ ports.CredentialOracle = (*Classifier)(nil)
	_ ports.CompanyOracle    = (*Classifier)(nil)
)

func NewClassifier(cfg Config) *Classifier {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	return &Classifier{
		client: openai.NewClient(opts...),
		cfg:    cfg,
	}
}

func (c *Classifier) AnalyzeCredential(ctx context.Context, in ports.CredentialAnalysis) (credential.RiskVerdict, error) {
	content, err := c.complete(ctx, credentialSystemPrompt, credentialPrompt(in))
	if err != nil {
		return credential.RiskVerdict{}, err
	}
	return parseRiskVerdict(content)
}

func (c *Classifier) AnalyzeCompany(ctx context.Context, req verification.Request) (verification.Verdict, error) {
	content, err := c.complete(ctx, companySystemPrompt(c.cfg.CompanyPolicy), companyPrompt(req))
	if err != nil {
		return verification.Verdict{}, err
	}
	return parseCompanyVerdict(content)
}

func (c *Classifier) complete(ctx context.Context, system, prompt string) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", errs.Wrap(err, "chat completion")
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	content := completion.Choices[0].Message.Content
	if content == "" {
		return "", errors.New("chat completion returned empty content")
	}
	return content, nil
}

type riskVerdictPayload struct {
	Suspicious *bool    `json:"suspicious"`
	Confidence *float64 `json:"confidence"`
	Reason     string   `json:"reason"`
	RiskLevel  string   `json:"riskLevel"`
}

// parseRiskVerdict validates the oracle JSON into a typed verdict.
// Schema mismatches are errors so the agent falls back to its default
// instead of trusting partial output.
func parseRiskVerdict(content string) (credential.RiskVerdict, error) {
	var payload riskVerdictPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return credential.RiskVerdict{}, errs.Wrap(err, "decode risk verdict")
	}

	if payload.Suspicious == nil {
		return credential.RiskVerdict{}, errors.New("risk verdict missing suspicious")
	}
	confidence, err := parseConfidence(payload.Confidence)
	if err != nil {
		return credential.RiskVerdict{}, err
	}

	level := credential.RiskLevel(payload.RiskLevel)
	if !level.Valid() {
		return credential.RiskVerdict{}, fmt.Errorf("risk verdict has invalid riskLevel %q", payload.RiskLevel)
	}

	return credential.RiskVerdict{
		Suspicious: *payload.Suspicious,
		Confidence: confidence,
		Reason:     payload.Reason,
		RiskLevel:  level,
	}, nil
}

type companyVerdictPayload struct {
	Verified    *bool    `json:"verified"`
	Confidence  *float64 `json:"confidence"`
	Reason      string   `json:"reason"`
	RiskFactors []string `json:"riskFactors"`
}

func parseCompanyVerdict(content string) (verification.Verdict, error) {
	var payload companyVerdictPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return verification.Verdict{}, errs.Wrap(err, "decode company verdict")
	}

	if payload.Verified == nil {
		return verification.Verdict{}, errors.New("company verdict missing verified")
	}
	confidence, err := parseConfidence(payload.Confidence)
	if err != nil {
		return verification.Verdict{}, err
	}

	return verification.Verdict{
		Verified:    *payload.Verified,
		Confidence:  confidence,
		Reason:      payload.Reason,
		RiskFactors: payload.RiskFactors,
	}, nil
}

func parseConfidence(raw *float64) (int, error) {
	if raw == nil {
		return 0, errors.New("verdict missing confidence")
	}
	confidence := int(*raw)
	if confidence < 0 || confidence > 100 {
		return 0, fmt.Errorf("verdict confidence %d out of range", confidence)
	}
	return confidence, nil
}
