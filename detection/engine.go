package detection

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// The three signal sources, kept behind small interfaces so the engine can
// be exercised without network access.

type BlocklistChecker interface {
	Check(ctx context.Context, u CanonicalURL) BlocklistOutcome
}

type Classifier interface {
	Classify(ctx context.Context, u CanonicalURL) (Classification, error)
}

type RegistrationLookup interface {
	Lookup(ctx context.Context, u CanonicalURL) RegistrationOutcome
}

// Engine fuses the three signal sources into one verdict per request. It
// holds no per-request state; requests never share anything mutable.
type Engine struct {
	blocklist    BlocklistChecker
	classifier   Classifier
	registration RegistrationLookup
	now          func() time.Time
	logger       zerolog.Logger
}

func NewEngine(blocklist BlocklistChecker, classifier Classifier, registration RegistrationLookup, logger zerolog.Logger) *Engine {
	return &Engine{
		blocklist:    blocklist,
		classifier:   classifier,
		registration: registration,
		now:          time.Now,
		logger:       logger.With().Str("component", "engine").Logger(),
	}
}

// Evaluate runs the decision state machine: normalize, blocklist check with
// its short-circuit outcomes, concurrent classifier + registration lookups,
// then scoring. The returned error is non-nil only when the classifier is
// unreachable; every other failure degrades into the verdict itself.
func (e *Engine) Evaluate(ctx context.Context, raw string) (*Verdict, error) {
	canonical, err := Normalize(raw)
	if err != nil {
		e.logger.Debug().Str("url", raw).Err(err).Msg("rejected invalid url")
		return &Verdict{OriginalURL: raw, Prediction: PredictionInvalid}, nil
	}

	blocklist := e.blocklist.Check(ctx, canonical)
	switch blocklist.Status {
	case BlocklistInvalidURL:
		return &Verdict{
			OriginalURL:   raw,
			NormalizedURL: canonical.String(),
			Prediction:    PredictionInvalid,
			SafeBrowsing:  &blocklist,
		}, nil
	case BlocklistFlagged:
		// Blocklist wins outright; the remaining sources are never consulted.
		e.logger.Info().Str("url", canonical.String()).Msg("blocklist short-circuit")
		return &Verdict{
			OriginalURL:    raw,
			NormalizedURL:  canonical.String(),
			Prediction:     PredictionUnsafe,
			Confidence:     1.0,
			SuspicionScore: weightBlocklistFlagged,
			Breakdown:      ScoreBreakdown{BlocklistFlagged: weightBlocklistFlagged, Total: weightBlocklistFlagged},
			SafeBrowsing:   &blocklist,
		}, nil
	}

	// Clean and lookup-error both proceed: an unreachable blocklist must not
	// decide the verdict on its own.
	var (
		cls          Classification
		registration RegistrationOutcome
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var clsErr error
		cls, clsErr = e.classifier.Classify(gctx, canonical)
		return clsErr
	})
	g.Go(func() error {
		registration = e.registration.Lookup(gctx, canonical)
		return nil
	})
	if err := g.Wait(); err != nil {
		// Without the classifier there is no meaningful verdict.
		e.logger.Error().Err(err).Str("url", canonical.String()).Msg("classifier unavailable")
		return nil, err
	}

	breakdown := ComputeScore(blocklist, cls, registration, e.now())
	verdict := &Verdict{
		OriginalURL:    raw,
		NormalizedURL:  canonical.String(),
		Prediction:     LabelForScore(breakdown.Total),
		Confidence:     cls.Confidence,
		SuspicionScore: breakdown.Total,
		Breakdown:      breakdown,
		SafeBrowsing:   &blocklist,
		WhoisInfo:      &registration,
	}

	e.logger.Info().
		Str("url", canonical.String()).
		Str("prediction", verdict.Prediction).
		Int("score", verdict.SuspicionScore).
		Float64("confidence", verdict.Confidence).
		Msg("verdict computed")
	return verdict, nil
}
