package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/praxishealth/praxis-api/pkg/circuitbreaker"
	"github.com/praxishealth/praxis-api/pkg/metrics"
)

const defaultTwilioBaseURL = "https://api.twilio.com/2010-04-01"

type Sender interface {
	Send(ctx context.Context, to, body string) error
}

type Config struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
	Timeout    time.Duration
}

type twilioSender struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
	metrics    *metrics.Metrics
}

func NewTwilioSender(cfg Config, m *metrics.Metrics) Sender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTwilioBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &twilioSender{
		baseURL:    cfg.BaseURL,
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.From,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "twilio",
			MaxFailures: 3,
			Timeout:     30 * time.Second,
		}),
		metrics: m,
	}
}

func (s *twilioSender) Send(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)

	start := time.Now()
	err := s.cb.Execute(func() error {
		endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth(s.accountSID, s.authToken)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to call SMS API: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			respBody, _ := io.ReadAll(resp.Body)
			var apiErr struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
				return fmt.Errorf("SMS API error: %s", apiErr.Message)
			}
			return fmt.Errorf("SMS API returned status %d", resp.StatusCode)
		}
		return nil
	})

	if s.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		s.metrics.ExternalCalls.WithLabelValues("twilio", status).Inc()
		s.metrics.ExternalLatency.WithLabelValues("twilio").Observe(time.Since(start).Seconds())
	}

	return err
}
