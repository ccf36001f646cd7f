package detection

import (
	"context"
	"strings"
	"time"

	whois "github.com/likexian/whois"
	parser "github.com/likexian/whois-parser"
	"github.com/rs/zerolog"
)

// RegistrationRecord is the structured metadata a WHOIS lookup yields.
// Created stays nil when the registry omits the field or emits a layout we
// cannot parse; age is then unknown, never assumed zero.
type RegistrationRecord struct {
	Domain        string     `json:"domain"`
	Created       *time.Time `json:"createdDate,omitempty"`
	CreatedRaw    string     `json:"createdDateRaw,omitempty"`
	Registrar     string     `json:"registrar,omitempty"`
	ContactBlocks []string   `json:"contactBlocks,omitempty"`
}

// RegistrationOutcome wraps the record with its failure mode. A failed
// lookup is non-fatal: scoring treats it exactly like an unknown creation
// date.
type RegistrationOutcome struct {
	Record *RegistrationRecord `json:"record,omitempty"`
	Error  string              `json:"error,omitempty"`
}

func (o RegistrationOutcome) Failed() bool { return o.Record == nil }

// AgeDays reports elapsed days since the creation date and whether the age
// is known at all.
func (o RegistrationOutcome) AgeDays(now time.Time) (int, bool) {
	if o.Record == nil || o.Record.Created == nil {
		return 0, false
	}
	return int(now.Sub(*o.Record.Created).Hours() / 24), true
}

var privacyKeywords = []string{
	"privacy", "whoisguard", "private", "privateregistration", "perfect privacy",
}

// PrivacyRedacted reports whether any contact block matches the privacy
// proxy keyword set, case-insensitively as substrings.
func (o RegistrationOutcome) PrivacyRedacted() bool {
	if o.Record == nil {
		return false
	}
	for _, block := range o.Record.ContactBlocks {
		lowered := strings.ToLower(block)
		for _, kw := range privacyKeywords {
			if strings.Contains(lowered, kw) {
				return true
			}
		}
	}
	return false
}

// whoisQuerier is satisfied by *whois.Client.
type whoisQuerier interface {
	Whois(domain string, servers ...string) (string, error)
}

// RegistrationClient runs WHOIS lookups for the bare domain of a URL.
type RegistrationClient struct {
	querier whoisQuerier
	server  string
	logger  zerolog.Logger
}

func NewRegistrationClient(server string, timeout time.Duration, logger zerolog.Logger) *RegistrationClient {
	return &RegistrationClient{
		querier: whois.NewClient().SetTimeout(timeout),
		server:  server,
		logger:  logger.With().Str("component", "registration").Logger(),
	}
}

// Lookup queries registration data for the URL's bare domain. Every failure
// folds into the outcome's Error field; the caller never aborts on it.
func (c *RegistrationClient) Lookup(ctx context.Context, u CanonicalURL) RegistrationOutcome {
	domain := u.BareDomain()

	type whoisResult struct {
		raw string
		err error
	}
	// The whois client has its own timeout but no context support; run it in
	// a goroutine so caller cancellation is still honored.
	ch := make(chan whoisResult, 1)
	go func() {
		var res whoisResult
		if c.server != "" {
			res.raw, res.err = c.querier.Whois(domain, c.server)
		} else {
			res.raw, res.err = c.querier.Whois(domain)
		}
		ch <- res
	}()

	var raw string
	select {
	case <-ctx.Done():
		return RegistrationOutcome{Error: ctx.Err().Error()}
	case res := <-ch:
		if res.err != nil {
			c.logger.Warn().Err(res.err).Str("domain", domain).Msg("whois lookup failed")
			return RegistrationOutcome{Error: res.err.Error()}
		}
		raw = res.raw
	}

	parsed, err := parser.Parse(raw)
	if err != nil {
		c.logger.Warn().Err(err).Str("domain", domain).Msg("whois parse failed")
		return RegistrationOutcome{Error: err.Error()}
	}

	record := &RegistrationRecord{Domain: domain}
	if parsed.Registrar != nil {
		record.Registrar = parsed.Registrar.Name
	}
	if parsed.Domain != nil {
		record.CreatedRaw = strings.TrimSpace(parsed.Domain.CreatedDate)
		if t, ok := parseCreatedDate(record.CreatedRaw); ok {
			record.Created = &t
		}
	}
	record.ContactBlocks = contactBlocks(parsed)

	return RegistrationOutcome{Record: record}
}

// createdDateLayouts accepts the Zulu and explicit-offset RFC 3339 encodings
// plus the date formats registries commonly emit.
var createdDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
}

func parseCreatedDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range createdDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// contactBlocks flattens the parsed contacts into text blocks the privacy
// keyword scan can run over.
func contactBlocks(info parser.WhoisInfo) []string {
	var blocks []string
	add := func(label string, c *parser.Contact) {
		if c == nil {
			return
		}
		var parts []string
		for _, field := range []string{c.Name, c.Organization, c.Street, c.City, c.Province, c.Country, c.Email} {
			if field = strings.TrimSpace(field); field != "" {
				parts = append(parts, field)
			}
		}
		if len(parts) > 0 {
			blocks = append(blocks, label+": "+strings.Join(parts, " "))
		}
	}

	if info.Registrar != nil && info.Registrar.Name != "" {
		blocks = append(blocks, "registrar: "+info.Registrar.Name)
	}
	add("registrant", info.Registrant)
	add("administrative", info.Administrative)
	add("technical", info.Technical)
	return blocks
}
