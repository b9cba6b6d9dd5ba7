// Package clients holds HTTP adapters for external scoring services.
package clients

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jwulff/sentiscribe/internal/sentiment"
)

// DefaultTimeout bounds a single classification request.
const DefaultTimeout = 5 * time.Second

// --- Sentiment (/sentiment) ---
type SentimentReq struct {
	Text string `json:"text"`
}
type SentimentResp struct {
	Label        string   `json:"label"`
	Polarity     *float64 `json:"polarity"`
	Subjectivity *float64 `json:"subjectivity"`
}

// SentimentClient scores text against a polarity/subjectivity service.
type SentimentClient struct {
	c *resty.Client
}

// NewSentimentClient returns a client for the service rooted at baseURL.
func NewSentimentClient(baseURL string, timeout time.Duration) *SentimentClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &SentimentClient{c: c}
}

// Classify implements sentiment.Classifier.
func (s *SentimentClient) Classify(ctx context.Context, text string) (sentiment.Score, error) {
	var out SentimentResp
	resp, err := s.c.R().
		SetContext(ctx).
		SetBody(SentimentReq{Text: text}).
		SetResult(&out).
		Post("/sentiment")
	if err != nil {
		return sentiment.Score{}, fmt.Errorf("sentiment: %w", err)
	}
	if resp.IsError() {
		return sentiment.Score{}, fmt.Errorf("sentiment %s: %s", resp.Status(), strings.TrimSpace(resp.String()))
	}
	if out.Polarity == nil {
		return sentiment.Score{}, fmt.Errorf("sentiment decode: missing polarity")
	}

	score := sentiment.Score{Label: out.Label, Polarity: *out.Polarity}
	if out.Subjectivity != nil {
		score.Subjectivity = *out.Subjectivity
	}
	return score, nil
}
