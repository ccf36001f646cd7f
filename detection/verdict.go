package detection

// Prediction strings returned to callers.
const (
	PredictionInvalid   = "Invalid URL"
	PredictionUnsafe    = "Unsafe (Google Safe Browsing)"
	PredictionSafe      = "Safe"
	PredictionUncertain = "Uncertain"
	PredictionPhishing  = "Phishing"
)

// Verdict is the single, immutable result of evaluating one URL. Confidence
// is the classifier's probability for the winning label, fixed at 1.0 for a
// blocklist hit and 0.0 for invalid input; the suspicion score is reported
// separately.
type Verdict struct {
	OriginalURL    string               `json:"originalUrl"`
	NormalizedURL  string               `json:"normalizedUrl"`
	Prediction     string               `json:"prediction"`
	Confidence     float64              `json:"confidence"`
	SuspicionScore int                  `json:"suspicionScore"`
	Breakdown      ScoreBreakdown       `json:"scoreBreakdown"`
	SafeBrowsing   *BlocklistOutcome    `json:"safeBrowsing,omitempty"`
	WhoisInfo      *RegistrationOutcome `json:"whoisInfo,omitempty"`
}
