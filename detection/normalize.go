package detection

import (
	"fmt"
	"net/url"
	"strings"
)

// CanonicalURL is a validated, normalized URL. It is built once per request
// by Normalize and never mutated afterwards.
type CanonicalURL struct {
	serialized string
	host       string
}

func (u CanonicalURL) String() string { return u.serialized }

// Host returns the normalized hostname, without any port.
func (u CanonicalURL) Host() string { return u.host }

// BareDomain returns the host with a leading "www." stripped, the form the
// registration lookup expects.
func (u CanonicalURL) BareDomain() string {
	return strings.TrimPrefix(u.host, "www.")
}

// Normalize validates raw input and canonicalizes it: the scheme defaults to
// https when missing and is lower-cased, the host is lower-cased and gets a
// "www." prefix when absent. Normalization runs even when the input already
// looks well-formed, so the canonical form is idempotent.
func Normalize(raw string) (CanonicalURL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return CanonicalURL{}, &InputError{Reason: "url is empty"}
	}

	if strings.HasPrefix(trimmed, "//") {
		trimmed = "https:" + trimmed
	} else if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return CanonicalURL{}, &InputError{Reason: fmt.Sprintf("unparseable url: %v", err)}
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return CanonicalURL{}, &InputError{Reason: fmt.Sprintf("unsupported scheme %q", parsed.Scheme)}
	}
	parsed.Scheme = scheme

	host := strings.ToLower(parsed.Host)
	if host == "" {
		return CanonicalURL{}, &InputError{Reason: "url has no host"}
	}
	if !strings.HasPrefix(host, "www.") {
		host = "www." + host
	}
	parsed.Host = host

	return CanonicalURL{serialized: parsed.String(), host: parsed.Hostname()}, nil
}
