package extract

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sells-group/recipe-cli/internal/parse"
	"github.com/sells-group/recipe-cli/internal/resilience"
	"github.com/sells-group/recipe-cli/pkg/anthropic"
)

const (
	recipeToolName = "record_recipe"

	aiSystemPrompt = "You extract recipes from web page text. Call the record_recipe tool exactly once. " +
		"Copy ingredient lines and instruction steps as they appear, one per array element, without numbering. " +
		"Omit servings or totalTime when the page does not state them. totalTime is in minutes."
)

var recipeTool = anthropic.Tool{
	Name:        recipeToolName,
	Description: "Record the recipe found on the page.",
	Properties: map[string]any{
		"title":        map[string]any{"type": "string"},
		"ingredients":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"instructions": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"servings":     map[string]any{"type": "number"},
		"totalTime":    map[string]any{"type": "number"},
	},
	Required: []string{"title", "ingredients", "instructions"},
}

// AIConfig configures the language-model strategy.
type AIConfig struct {
	Model          string
	MaxTokens      int64
	MaxPromptChars int
	Retry          resilience.RetryConfig
	Breaker        resilience.CircuitBreakerConfig
}

// AI asks a language model to pull a recipe out of cleaned page text. The
// reply is constrained by forcing a tool whose input schema is the Result
// shape.
type AI struct {
	client  anthropic.Client
	cfg     AIConfig
	breaker *resilience.CircuitBreaker
}

// NewAI creates the AI strategy.
func NewAI(client anthropic.Client, cfg AIConfig) *AI {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Retry.ShouldRetry == nil {
		cfg.Retry.ShouldRetry = func(err error) bool {
			return anthropic.IsRetryable(err) || resilience.IsTransient(err)
		}
	}
	if cfg.Retry.OnRetry == nil {
		cfg.Retry.OnRetry = resilience.RetryLogger("anthropic.create_message")
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = "anthropic"
	}
	if cfg.Breaker.ShouldTrip == nil {
		cfg.Breaker.ShouldTrip = func(err error) bool { return !errors.Is(err, context.Canceled) }
	}
	return &AI{
		client:  client,
		cfg:     cfg,
		breaker: resilience.NewCircuitBreaker(cfg.Breaker),
	}
}

func (a *AI) Name() string { return "ai" }

// Extract sends the cleaned page text to the model. Call failures and
// unparseable replies are returned as *ModelError.
func (a *AI) Extract(ctx context.Context, page *Page) (*Result, error) {
	text, err := CleanText(page.HTML, a.cfg.MaxPromptChars)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	temp := 0.0
	req := anthropic.MessageRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		System:      aiSystemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: text}},
		Temperature: &temp,
		Tools:       []anthropic.Tool{recipeTool},
		ToolChoice:  recipeToolName,
	}

	resp, err := resilience.ExecuteVal(ctx, a.breaker, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return resilience.DoVal(ctx, a.cfg.Retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return a.client.CreateMessage(ctx, req)
		})
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			zap.L().Debug("extract: model call skipped",
				zap.String("url", page.URL),
				zap.Stringer("circuit", a.breaker.State()),
			)
		}
		return nil, &ModelError{Err: eris.Wrap(err, "extract: model call")}
	}
	resp.Usage.LogCost(a.cfg.Model, "extract")

	raw, ok := resp.ToolInput(recipeToolName)
	if !ok {
		zap.L().Debug("extract: model reply had no tool call, parsing text",
			zap.String("url", page.URL),
			zap.String("stop_reason", resp.StopReason),
		)
		raw = json.RawMessage(anthropic.CleanJSON(resp.Text()))
	}

	res, err := parseModelReply(raw)
	if err != nil {
		return nil, &ModelError{Err: err}
	}
	return res, nil
}

// parseModelReply reads the tool input (or fallback text) into a Result.
func parseModelReply(raw []byte) (*Result, error) {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return nil, eris.New("extract: model reply is not valid json")
	}
	r := gjson.ParseBytes(raw)
	if !r.IsObject() {
		return nil, eris.New("extract: model reply is not an object")
	}

	res := &Result{
		Title:        cleanText(r.Get("title").String()),
		Ingredients:  stringList(r.Get("ingredients")),
		Instructions: flattenInstructions(r.Get("instructions")),
	}

	if s := r.Get("servings"); s.Exists() && s.Type != gjson.Null {
		if v, ok := parseYield(s); ok {
			res.Servings = &v
		}
	}
	if t := r.Get("totalTime"); t.Exists() && t.Type != gjson.Null {
		var minutes int
		if t.Type == gjson.Number {
			minutes = parse.Minutes(t.Float())
		} else {
			minutes = parse.ParseTime(t.String())
		}
		res.TotalTime = &minutes
	}
	return res, nil
}
