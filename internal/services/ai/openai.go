package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/todone/todone/internal/models"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"

	maxSuggestions = 3
)

const estimateSystemPrompt = `Analizás tareas de trabajo y estimás prioridad, cuándo hacerlas y tiempo realista.

Respondé ÚNICAMENTE con JSON válido (sin markdown ni texto extra):
{"priority":"high"|"medium"|"low"|null,"priorityReason":"...","scheduledFor":"today"|"week"|null,"scheduleReason":"...","minutes":number|null,"minutesReason":"..."}

Reglas de tiempo (sé realista, no subestimes):
- Mensaje/email rápido: 5-15min
- Llamada: 15-30min
- Reunión/revisión: 30-60min
- Redactar documento: 60-120min
- Presentación, propuesta, informe: 90-180min
- Proyecto técnico, desarrollo: 120-300min
Si no hay info suficiente para un campo, devolvé null.`

const suggestSystemPrompt = `Sos un asistente de productividad para "To Done". Analizá el estado del día y generá entre 1 y 3 sugerencias breves, directas y útiles en español rioplatense.

Reglas:
- Máximo 18 palabras por sugerencia
- Sé específico: mencioná el nombre de la tarea si es relevante
- Priorizá lo más urgente o impactante para el usuario
- Tono directo y amigable, nada genérico
- Si no hay nada urgente, motivá o felicitá brevemente

Respondé ÚNICAMENTE con JSON válido (sin markdown, sin explicaciones):
{"suggestions":[{"id":"s1","text":"...","icon":"emoji","color":"#hex"}]}

Íconos disponibles: ⚠️ urgente  🎯 foco  💪 motivación  🧩 dividir tarea  📅 planificar  ✅ bien encaminado  🔥 racha  🕐 tiempo
Colores: #E07A5F rojo/urgente · #81B29A verde/positivo · #E6AA68 naranja/equilibrio · #56CCF2 azul/planificación · #9B6DB5 violeta/insight`

// OpenAIProvider implements the Provider interface using OpenAI's API
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey, baseURL, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// estimateResponse mirrors the schema the estimate prompt demands.
type estimateResponse struct {
	Priority       *string `json:"priority"`
	PriorityReason string  `json:"priorityReason"`
	ScheduledFor   *string `json:"scheduledFor"`
	ScheduleReason string  `json:"scheduleReason"`
	Minutes        *int    `json:"minutes"`
	MinutesReason  string  `json:"minutesReason"`
}

// EstimateTask asks the model to estimate one task's text.
func (p *OpenAIProvider) EstimateTask(ctx context.Context, text string) (*models.Estimate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	content, err := p.complete(ctx, "estimate_task", estimateSystemPrompt, fmt.Sprintf("Tarea: %q", text))
	if err != nil {
		return nil, fmt.Errorf("failed to estimate task: %w", err)
	}

	var parsed estimateResponse
	if err := unmarshalLenient(content, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse estimate response: %w", err)
	}

	est := &models.Estimate{
		CleanText:      text,
		PriorityReason: parsed.PriorityReason,
		ScheduleReason: parsed.ScheduleReason,
		MinutesReason:  parsed.MinutesReason,
		AI:             true,
	}
	if parsed.Priority != nil {
		switch pr := models.Priority(*parsed.Priority); pr {
		case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
			est.Priority = pr
		}
	}
	if parsed.ScheduledFor != nil {
		switch b := models.Bucket(*parsed.ScheduledFor); b {
		case models.BucketToday, models.BucketWeek:
			est.ScheduledFor = b
		}
	}
	if parsed.Minutes != nil && *parsed.Minutes > 0 {
		est.Minutes = *parsed.Minutes
	}
	if !est.HasAny() {
		return nil, nil
	}
	return est, nil
}

// SuggestNudges asks the model for day-level suggestions.
func (p *OpenAIProvider) SuggestNudges(ctx context.Context, req SuggestRequest) ([]models.Nudge, error) {
	content, err := p.complete(ctx, "suggest_nudges", suggestSystemPrompt, buildSuggestPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch suggestions: %w", err)
	}

	var parsed struct {
		Suggestions []struct {
			ID    string `json:"id"`
			Text  string `json:"text"`
			Icon  string `json:"icon"`
			Color string `json:"color"`
		} `json:"suggestions"`
	}
	if err := unmarshalLenient(content, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions response: %w", err)
	}

	var out []models.Nudge
	for i, s := range parsed.Suggestions {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		id := s.ID
		if id == "" {
			id = fmt.Sprintf("s%d", i+1)
		}
		out = append(out, models.Nudge{ID: "ai-" + id, Text: s.Text, Icon: s.Icon, Color: s.Color, AI: true})
		if len(out) == maxSuggestions {
			break
		}
	}
	return out, nil
}

func buildSuggestPrompt(req SuggestRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Son las %dhs.\n\nTareas de hoy:\n", req.Hour)
	if len(req.TodayTasks) == 0 {
		b.WriteString("Ninguna\n")
	}
	for _, t := range req.TodayTasks {
		fmt.Fprintf(&b, "- %q (%s, %dmin)\n", t.Text, priorityES(t.Priority), t.Minutes)
	}

	b.WriteString("\nEsta semana: ")
	if len(req.WeekTasks) == 0 {
		b.WriteString("ninguna")
	}
	for i, t := range req.WeekTasks {
		if i == 4 {
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q", t.Text)
	}

	fmt.Fprintf(&b, "\nCompletadas hoy: %d\n", req.DoneTodayCount)
	fmt.Fprintf(&b, "Tiempo planeado: %dmin de %dmin disponibles\n", req.TodayMinutes, req.WorkdayMinutes)
	fmt.Fprintf(&b, "Sin agendar: %d", req.UnscheduledCount)
	return b.String()
}

func priorityES(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return "alta"
	case models.PriorityLow:
		return "baja"
	default:
		return "media"
	}
}

// complete sends one system+user exchange and returns the raw content.
func (p *OpenAIProvider) complete(ctx context.Context, operation, system, user string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system),
		openai.UserMessage(user),
	}
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(user)),
			zap.String("prompt_preview", SanitizePrompt(user, true)),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", operation),
				zap.String("model", p.model),
				zap.Error(err),
				zap.Duration("latency_ms", latency),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", apiErr
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}
	content := resp.Choices[0].Message.Content
	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	return content, nil
}

// unmarshalLenient parses content as JSON, falling back to the first
// brace-delimited object when the model wrapped it in extra text.
func unmarshalLenient(content string, v any) error {
	raw := strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end <= start {
			return err
		}
		return json.Unmarshal([]byte(raw[start:end+1]), v)
	}
	return nil
}
