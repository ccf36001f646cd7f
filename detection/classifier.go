package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Labels the hosted classifier is trained on. Anything else passes through
// verbatim for forward compatibility.
const (
	LabelBenign   = "benign"
	LabelPhishing = "phishing"
)

// Classification is the winning candidate returned by the text classifier.
// Confidence is the probability mass assigned to the winning label.
type Classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type classifierCandidate struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ClassifierClient sends the canonical URL as raw text to a hosted binary
// text classifier and selects the highest-scoring candidate.
type ClassifierClient struct {
	endpoint string
	token    string
	client   *http.Client
	logger   zerolog.Logger
}

func NewClassifierClient(endpoint, token string, timeout time.Duration, logger zerolog.Logger) *ClassifierClient {
	return &ClassifierClient{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "classifier").Logger(),
	}
}

// Classify submits the URL text for inference. Every failure comes back as
// an UpstreamError; the orchestrator treats it as fatal for the request
// since the classifier is the primary evidence source.
func (c *ClassifierClient) Classify(ctx context.Context, u CanonicalURL) (Classification, error) {
	payload, err := json.Marshal(map[string]string{"inputs": u.String()})
	if err != nil {
		return Classification{}, &UpstreamError{Source: "classifier", Detail: "encoding request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Classification{}, &UpstreamError{Source: "classifier", Detail: "building request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", u.String()).Msg("classifier request failed")
		return Classification{}, &UpstreamError{Source: "classifier", Detail: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Classification{}, &UpstreamError{Source: "classifier", Detail: "unexpected status " + resp.Status}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Classification{}, &UpstreamError{Source: "classifier", Detail: "reading response", Err: err}
	}

	candidates, err := decodeCandidates(raw)
	if err != nil {
		return Classification{}, &UpstreamError{Source: "classifier", Detail: err.Error()}
	}

	best := candidates[0]
	for _, cand := range candidates[1:] {
		if cand.Score > best.Score {
			best = cand
		}
	}
	return Classification{Label: best.Label, Confidence: best.Score}, nil
}

// decodeCandidates accepts both the flat and the singly-nested list shapes
// the inference service produces when batching, unwrapping one level.
func decodeCandidates(raw []byte) ([]classifierCandidate, error) {
	var nested [][]classifierCandidate
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 || len(nested[0]) == 0 {
			return nil, errors.New("classifier returned no candidates")
		}
		return nested[0], nil
	}

	var flat []classifierCandidate
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("undecodable classifier response: %w", err)
	}
	if len(flat) == 0 {
		return nil, errors.New("classifier returned no candidates")
	}
	return flat, nil
}
