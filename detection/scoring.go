package detection

import "time"

// Weights and thresholds of the suspicion accumulator. The blocklist weight
// alone lands in the phishing band.
const (
	weightBlocklistFlagged = 10
	weightPhishingHighConf = 3
	weightPhishingLowConf  = 2
	weightBenignLowConf    = 1
	weightAgeUnder30Days   = 3
	weightAgeUnder90Days   = 2
	weightAgeUnder365Days  = 1
	weightAgeUnknown       = 3
	weightPrivacyRedaction = 1

	phishingConfidenceBar = 0.7
	benignConfidenceBar   = 0.6

	phishingScoreMin  = 6
	uncertainScoreMin = 3
)

// ScoreBreakdown records each rule's contribution so every verdict is
// auditable.
type ScoreBreakdown struct {
	BlocklistFlagged        int  `json:"blocklist_flagged,omitempty"`
	ClassifierPhishing      int  `json:"classifier_phishing,omitempty"`
	ClassifierLowConfidence int  `json:"classifier_low_confidence,omitempty"`
	DomainAge               int  `json:"domain_age,omitempty"`
	AgeUnknown              bool `json:"age_unknown,omitempty"`
	PrivacyRedaction        int  `json:"privacy_redaction,omitempty"`
	Total                   int  `json:"total"`
}

// ComputeScore sums the independent risk contributions in fixed order. It is
// a pure function: identical inputs always produce identical output. The
// reference time is a parameter so domain age never reads the clock.
func ComputeScore(blocklist BlocklistOutcome, cls Classification, registration RegistrationOutcome, now time.Time) ScoreBreakdown {
	var b ScoreBreakdown

	if blocklist.Status == BlocklistFlagged {
		b.BlocklistFlagged = weightBlocklistFlagged
	}

	switch cls.Label {
	case LabelPhishing:
		if cls.Confidence > phishingConfidenceBar {
			b.ClassifierPhishing = weightPhishingHighConf
		} else {
			b.ClassifierPhishing = weightPhishingLowConf
		}
	default:
		// A low-confidence "safe" is itself mildly suspicious.
		if cls.Confidence < benignConfidenceBar {
			b.ClassifierLowConfidence = weightBenignLowConf
		}
	}

	if age, known := registration.AgeDays(now); known {
		switch {
		case age < 30:
			b.DomainAge = weightAgeUnder30Days
		case age < 90:
			b.DomainAge = weightAgeUnder90Days
		case age < 365:
			b.DomainAge = weightAgeUnder365Days
		}
	} else {
		// Unknown age scores like a very new domain, a deliberate
		// conservative default rather than an oversight.
		b.DomainAge = weightAgeUnknown
		b.AgeUnknown = true
	}

	if registration.PrivacyRedacted() {
		b.PrivacyRedaction = weightPrivacyRedaction
	}

	b.Total = b.BlocklistFlagged + b.ClassifierPhishing + b.ClassifierLowConfidence + b.DomainAge + b.PrivacyRedaction
	return b
}

// LabelForScore maps a total suspicion score to a verdict label. It depends
// only on the score, never on which rules produced it.
func LabelForScore(total int) string {
	switch {
	case total >= phishingScoreMin:
		return PredictionPhishing
	case total >= uncertainScoreMin:
		return PredictionUncertain
	default:
		return PredictionSafe
	}
}
