package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// BlocklistStatus enumerates the ways a blocklist lookup can end.
type BlocklistStatus string

const (
	BlocklistClean      BlocklistStatus = "clean"
	BlocklistFlagged    BlocklistStatus = "flagged"
	BlocklistInvalidURL BlocklistStatus = "invalid_url"
	BlocklistError      BlocklistStatus = "lookup_error"
)

// ThreatMatch is one raw Safe Browsing match, kept verbatim for the audit trail.
type ThreatMatch struct {
	ThreatType      string `json:"threatType"`
	PlatformType    string `json:"platformType"`
	ThreatEntryType string `json:"threatEntryType"`
	Threat          struct {
		URL string `json:"url"`
	} `json:"threat"`
	CacheDuration string `json:"cacheDuration,omitempty"`
}

// BlocklistOutcome is the uniform result of a blocklist lookup. A lookup
// error is never a flag: an unreachable service degrades to an unknown
// signal, not a positive one.
type BlocklistOutcome struct {
	Status  BlocklistStatus `json:"status"`
	Matches []ThreatMatch   `json:"matches,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func (o BlocklistOutcome) Flagged() bool { return o.Status == BlocklistFlagged }

// DefaultSafeBrowsingEndpoint is the production Safe Browsing v4 URL lookup.
const DefaultSafeBrowsingEndpoint = "https://safebrowsing.googleapis.com/v4/threatMatches:find"

type threatEntry struct {
	URL string `json:"url"`
}

type threatMatchesRequest struct {
	Client struct {
		ClientID      string `json:"clientId"`
		ClientVersion string `json:"clientVersion"`
	} `json:"client"`
	ThreatInfo struct {
		ThreatTypes      []string      `json:"threatTypes"`
		PlatformTypes    []string      `json:"platformTypes"`
		ThreatEntryTypes []string      `json:"threatEntryTypes"`
		ThreatEntries    []threatEntry `json:"threatEntries"`
	} `json:"threatInfo"`
}

type threatMatchesResponse struct {
	Matches []ThreatMatch `json:"matches"`
}

// SafeBrowsingClient queries the Google Safe Browsing v4 threat-matching API
// with the canonical URL as the sole entry.
type SafeBrowsingClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   zerolog.Logger
}

func NewSafeBrowsingClient(endpoint, apiKey string, timeout time.Duration, logger zerolog.Logger) *SafeBrowsingClient {
	if endpoint == "" {
		endpoint = DefaultSafeBrowsingEndpoint
	}
	return &SafeBrowsingClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "safebrowsing").Logger(),
	}
}

// Check looks the canonical URL up across the fixed threat categories and a
// wildcard platform scope.
func (c *SafeBrowsingClient) Check(ctx context.Context, u CanonicalURL) BlocklistOutcome {
	var body threatMatchesRequest
	body.Client.ClientID = "phishspotter"
	body.Client.ClientVersion = "1.0"
	body.ThreatInfo.ThreatTypes = []string{
		"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE", "POTENTIALLY_HARMFUL_APPLICATION",
	}
	body.ThreatInfo.PlatformTypes = []string{"ANY_PLATFORM"}
	body.ThreatInfo.ThreatEntryTypes = []string{"URL"}
	body.ThreatInfo.ThreatEntries = []threatEntry{{URL: u.String()}}

	payload, err := json.Marshal(body)
	if err != nil {
		return BlocklistOutcome{Status: BlocklistError, Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+c.apiKey, bytes.NewReader(payload))
	if err != nil {
		return BlocklistOutcome{Status: BlocklistError, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", u.String()).Msg("safe browsing lookup failed")
		return BlocklistOutcome{Status: BlocklistError, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		// The service rejected the entry itself, the same user-facing class
		// as a malformed URL.
		return BlocklistOutcome{Status: BlocklistInvalidURL, Error: fmt.Sprintf("safe browsing rejected request: %s", resp.Status)}
	}
	if resp.StatusCode != http.StatusOK {
		return BlocklistOutcome{Status: BlocklistError, Error: fmt.Sprintf("unexpected status %s", resp.Status)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return BlocklistOutcome{Status: BlocklistError, Error: err.Error()}
	}

	var parsed threatMatchesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return BlocklistOutcome{Status: BlocklistError, Error: "undecodable safe browsing response: " + err.Error()}
	}

	if len(parsed.Matches) == 0 {
		return BlocklistOutcome{Status: BlocklistClean}
	}

	c.logger.Info().Str("url", u.String()).Int("matches", len(parsed.Matches)).Msg("url flagged by safe browsing")
	return BlocklistOutcome{Status: BlocklistFlagged, Matches: parsed.Matches}
}
