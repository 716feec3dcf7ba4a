package debate

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"

	"github.com/signalhouse/debatewatch/debate/fileutils"
	"github.com/signalhouse/debatewatch/debate/provider"
)

// Placeholder analyses returned when the model call cannot produce a verdict.
// The pipeline logs the failure and moves on to the next thread.
const (
	AnalysisRequestFailed  = "Error from model API."
	AnalysisMalformedReply = "Error: malformed model response."
)

// Analyzer produces a textual debate analysis for one materialized thread.
// Implementations never fail: on error they return a placeholder string.
type Analyzer interface {
	Analyze(ctx context.Context, conversation string) string
}

// DebateAnalysis is the structured verdict requested from the model.
type DebateAnalysis struct {
	// Intensity classifies the thread's overall temperature.
	Intensity string `json:"intensity" jsonschema:"enum=heated_debate,enum=mild_disagreement,enum=general_controversy,enum=none"`

	// ContentionPoints are the key points of disagreement, if any.
	ContentionPoints []string `json:"contention_points"`

	// SentimentNotes flags strong sentiment (anger, insults) or unusual politeness.
	SentimentNotes string `json:"sentiment_notes"`

	// Summary is a short description of the conversation's tone and content.
	Summary string `json:"summary"`
}

// Render flattens the verdict into the short text block the pipeline logs.
func (v DebateAnalysis) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Intensity: %s\n", v.Intensity)
	if len(v.ContentionPoints) > 0 {
		b.WriteString("Contention:\n")
		for _, p := range v.ContentionPoints {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
	}
	if v.SentimentNotes != "" {
		fmt.Fprintf(&b, "Sentiment: %s\n", v.SentimentNotes)
	}
	b.WriteString(v.Summary)
	return strings.TrimSpace(b.String())
}

var debateAnalysisSchema = provider.GenerateSchema[DebateAnalysis]()

const analystInstructions = "You are a helpful analyst summarizing tweet conversations. " +
	"Your answers should be short and focus on the nature of the debate."

const analysisPromptFormat = `Below is a chronological list of tweets in one conversation (including author info).

Conversation:
%s

Your tasks:
1. Decide whether there is a heated debate, mild disagreement, a general controversy, or none of those.
2. Summarize the key points of contention or disagreement.
3. Note any strong sentiment (anger, insults, intense disagreement) or unusual politeness.
4. Provide a short, concise summary of the conversation's tone and content.

Return a single JSON object matching the schema. Do not include any additional text.`

// ModelCaller abstracts the LLM transport so analyses can be tested without a
// live endpoint.
type ModelCaller interface {
	Call(ctx context.Context, params responses.ResponseNewParams) (string, error)
}

// OpenAICaller is the production ModelCaller backed by the OpenAI API.
type OpenAICaller struct {
	Client *openai.Client
}

func (c OpenAICaller) Call(ctx context.Context, params responses.ResponseNewParams) (string, error) {
	resp, err := c.Client.Responses.New(ctx, params)
	if err != nil {
		return "", err
	}
	return resp.OutputText(), nil
}

// AnalyzerConfig configures a ThreadAnalyzer. Zero values fall back to the
// defaults documented per field.
type AnalyzerConfig struct {
	// Model names the completion model.
	Model string

	// MaxOutputTokens caps the model reply (default 500).
	MaxOutputTokens int64

	// Temperature for the completion (default 0.7).
	Temperature float64

	// MaxPromptChars caps how much conversation text is embedded in the
	// prompt (default 80000).
	MaxPromptChars int
}

func (c AnalyzerConfig) withDefaults() AnalyzerConfig {
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = 500
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.7
	}
	if c.MaxPromptChars <= 0 {
		c.MaxPromptChars = 80_000
	}
	return c
}

// ThreadAnalyzer asks the model for a DebateAnalysis of one conversation and
// renders it as text. Each analysis is a single call: a failed or malformed
// reply yields a placeholder, never a retry or an escaping error.
type ThreadAnalyzer struct {
	caller ModelCaller
	cfg    AnalyzerConfig
	logger *log.Logger
}

// NewThreadAnalyzer builds a ThreadAnalyzer. logger may be nil, in which case
// failures are logged to stderr.
func NewThreadAnalyzer(caller ModelCaller, cfg AnalyzerConfig, logger *log.Logger) *ThreadAnalyzer {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &ThreadAnalyzer{caller: caller, cfg: cfg.withDefaults(), logger: logger}
}

// Analyze sends the conversation text to the model and returns the rendered
// verdict, or a placeholder when the call fails.
func (a *ThreadAnalyzer) Analyze(ctx context.Context, conversation string) string {
	prompt := fmt.Sprintf(analysisPromptFormat, fileutils.Truncate(conversation, a.cfg.MaxPromptChars))

	params := responses.ResponseNewParams{
		Model:           a.cfg.Model,
		MaxOutputTokens: openai.Int(a.cfg.MaxOutputTokens),
		Temperature:     openai.Float(a.cfg.Temperature),
		Instructions:    openai.String(analystInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "DebateAnalysis",
					Schema:      debateAnalysisSchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Debate analysis JSON"),
					Type:        "json_schema",
				},
			},
		},
	}

	out, err := a.caller.Call(ctx, params)
	if err != nil {
		a.logger.Printf("analysis request failed: %v", err)
		return AnalysisRequestFailed
	}

	var verdict DebateAnalysis
	if err := fileutils.DecodeModelJSON(out, &verdict); err != nil {
		a.logger.Printf("analysis response malformed: %v", err)
		return AnalysisMalformedReply
	}
	return verdict.Render()
}

// AnalyzeFile analyzes the content of an already-materialized thread file.
func (a *ThreadAnalyzer) AnalyzeFile(ctx context.Context, path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("AnalyzeFile: %w", err)
	}
	return a.Analyze(ctx, string(b)), nil
}
