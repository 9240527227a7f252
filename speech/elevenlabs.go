package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const DefaultElevenLabsURL = "https://api.elevenlabs.io/v1/text-to-speech"

// VoiceSettings mirrors the ElevenLabs voice_settings object.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type ElevenLabsConfig struct {
	APIURL  string
	APIKey  string
	ModelID string
	// VoiceIDs maps catalog ids (es-ES-Standard-A...) to ElevenLabs voice ids.
	VoiceIDs map[string]string
	Settings VoiceSettings
}

type ElevenLabsProvider struct {
	httpClient *http.Client
	logger     *slog.Logger
	config     ElevenLabsConfig
}

func NewElevenLabsProvider(logger *slog.Logger, config ElevenLabsConfig) *ElevenLabsProvider {
	if config.APIURL == "" {
		config.APIURL = DefaultElevenLabsURL
	}
	if config.ModelID == "" {
		config.ModelID = "eleven_multilingual_v2"
	}
	if config.Settings == (VoiceSettings{}) {
		config.Settings = VoiceSettings{Stability: 0.5, SimilarityBoost: 0.75, UseSpeakerBoost: true}
	}
	return &ElevenLabsProvider{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     logger,
		config:     config,
	}
}

func (p *ElevenLabsProvider) Name() string { return "elevenlabs" }

func (p *ElevenLabsProvider) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	voiceID, ok := p.config.VoiceIDs[voice.ID]
	if !ok || voiceID == "" {
		return nil, &Error{Kind: KindFatal, Provider: p.Name(), Message: fmt.Sprintf("no ElevenLabs voice configured for %s", voice.ID)}
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"text":           text,
		"model_id":       p.config.ModelID,
		"voice_settings": p.config.Settings,
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request body: %w", err)
	}

	fullURL := fmt.Sprintf("%s/%s", p.config.APIURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("xi-api-key", p.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindFatal, Provider: p.Name(), Err: fmt.Errorf("error making request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindFatal, Provider: p.Name(), Err: fmt.Errorf("failed to read audio data: %w", err)}
	}
	return audio, nil
}

func (p *ElevenLabsProvider) handleErrorResponse(resp *http.Response) error {
	kind := KindFatal
	if resp.StatusCode == http.StatusTooManyRequests {
		kind = KindRateLimited
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: kind, Provider: p.Name(), StatusCode: resp.StatusCode, Message: "failed to read error response"}
	}

	var errorResp struct {
		Detail struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Detail.Message == "" {
		return &Error{Kind: kind, Provider: p.Name(), StatusCode: resp.StatusCode, Message: string(body)}
	}

	p.logger.Debug("ElevenLabs API error",
		slog.Int("status_code", resp.StatusCode),
		slog.String("error_type", errorResp.Detail.Status),
		slog.String("error_message", errorResp.Detail.Message))

	return &Error{
		Kind:       kind,
		Provider:   p.Name(),
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("%s (Type: %s)", errorResp.Detail.Message, errorResp.Detail.Status),
	}
}
