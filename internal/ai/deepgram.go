package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/praxishealth/praxis-api/pkg/circuitbreaker"
	"github.com/praxishealth/praxis-api/pkg/metrics"
)

const defaultDeepgramBaseURL = "https://api.deepgram.com/v1"

// TranscriptionResult is the normalized output of a speech-to-text run.
type TranscriptionResult struct {
	Text       string
	Confidence float64
	DurationMS int64
}

// TranscriptionClient proxies audio to a Deepgram-compatible STT endpoint.
type TranscriptionClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
	metrics    *metrics.Metrics
}

type TranscriptionClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewTranscriptionClient(cfg TranscriptionClientConfig, m *metrics.Metrics) *TranscriptionClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultDeepgramBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &TranscriptionClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "deepgram",
			MaxFailures: 3,
			Timeout:     30 * time.Second,
		}),
		metrics: m,
	}
}

type deepgramResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe sends raw audio bytes and returns the best alternative.
func (c *TranscriptionClient) Transcribe(ctx context.Context, audio []byte, contentType string) (*TranscriptionResult, error) {
	if contentType == "" {
		contentType = "audio/wav"
	}

	var result *TranscriptionResult
	start := time.Now()
	err := c.cb.Execute(func() error {
		url := c.baseURL + "/listen?model=nova-2&smart_format=true&punctuate=true"
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(audio))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Token "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to call transcription API: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("transcription API returned status %d: %s", resp.StatusCode, respBody)
		}

		var parsed deepgramResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return fmt.Errorf("failed to parse transcription response: %w", err)
		}

		if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
			return fmt.Errorf("transcription API returned no alternatives")
		}

		alt := parsed.Results.Channels[0].Alternatives[0]
		result = &TranscriptionResult{
			Text:       alt.Transcript,
			Confidence: alt.Confidence,
			DurationMS: int64(parsed.Metadata.Duration * 1000),
		}
		return nil
	})

	if c.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		c.metrics.ExternalCalls.WithLabelValues("deepgram", status).Inc()
		c.metrics.ExternalLatency.WithLabelValues("deepgram").Observe(time.Since(start).Seconds())
	}

	return result, err
}
