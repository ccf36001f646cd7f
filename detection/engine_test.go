package detection

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlocklist struct {
	outcome BlocklistOutcome
	calls   int
}

func (f *fakeBlocklist) Check(ctx context.Context, u CanonicalURL) BlocklistOutcome {
	f.calls++
	return f.outcome
}

type fakeClassifier struct {
	cls   Classification
	err   error
	calls int
}

func (f *fakeClassifier) Classify(ctx context.Context, u CanonicalURL) (Classification, error) {
	f.calls++
	return f.cls, f.err
}

type fakeRegistration struct {
	outcome RegistrationOutcome
	calls   int
}

func (f *fakeRegistration) Lookup(ctx context.Context, u CanonicalURL) RegistrationOutcome {
	f.calls++
	return f.outcome
}

func newTestEngine(b *fakeBlocklist, c *fakeClassifier, r *fakeRegistration) *Engine {
	e := NewEngine(b, c, r, zerolog.Nop())
	e.now = func() time.Time { return scoringNow }
	return e
}

func TestEvaluateCleanBenignUnknownAge(t *testing.T) {
	blocklist := &fakeBlocklist{outcome: BlocklistOutcome{Status: BlocklistClean}}
	classifier := &fakeClassifier{cls: Classification{Label: LabelBenign, Confidence: 0.9}}
	registration := &fakeRegistration{outcome: registrationFailed()}
	engine := newTestEngine(blocklist, classifier, registration)

	verdict, err := engine.Evaluate(context.Background(), "example.com")
	require.NoError(t, err)

	assert.Equal(t, "example.com", verdict.OriginalURL)
	assert.Equal(t, "https://www.example.com", verdict.NormalizedURL)
	assert.Equal(t, PredictionUncertain, verdict.Prediction)
	assert.Equal(t, 3, verdict.SuspicionScore)
	assert.InDelta(t, 0.9, verdict.Confidence, 1e-9)
	assert.True(t, verdict.Breakdown.AgeUnknown)
	require.NotNil(t, verdict.WhoisInfo)
	assert.True(t, verdict.WhoisInfo.Failed())
	assert.Equal(t, 1, blocklist.calls)
	assert.Equal(t, 1, classifier.calls)
	assert.Equal(t, 1, registration.calls)
}

func TestEvaluateBlocklistShortCircuit(t *testing.T) {
	blocklist := &fakeBlocklist{outcome: BlocklistOutcome{
		Status:  BlocklistFlagged,
		Matches: []ThreatMatch{{ThreatType: "SOCIAL_ENGINEERING"}},
	}}
	classifier := &fakeClassifier{}
	registration := &fakeRegistration{}
	engine := newTestEngine(blocklist, classifier, registration)

	verdict, err := engine.Evaluate(context.Background(), "evil.example")
	require.NoError(t, err)

	assert.Equal(t, PredictionUnsafe, verdict.Prediction)
	assert.Equal(t, 1.0, verdict.Confidence)
	assert.Equal(t, 10, verdict.SuspicionScore)
	require.NotNil(t, verdict.SafeBrowsing)
	assert.Len(t, verdict.SafeBrowsing.Matches, 1)

	// The expensive sources are never consulted on a blocklist hit.
	assert.Equal(t, 0, classifier.calls)
	assert.Equal(t, 0, registration.calls)
}

func TestEvaluateInvalidInput(t *testing.T) {
	blocklist := &fakeBlocklist{}
	classifier := &fakeClassifier{}
	registration := &fakeRegistration{}
	engine := newTestEngine(blocklist, classifier, registration)

	for _, input := range []string{"", "   ", "ftp://example.com"} {
		verdict, err := engine.Evaluate(context.Background(), input)
		require.NoError(t, err, input)
		assert.Equal(t, PredictionInvalid, verdict.Prediction, input)
		assert.Empty(t, verdict.NormalizedURL, input)
		assert.Zero(t, verdict.Confidence, input)
		assert.Zero(t, verdict.SuspicionScore, input)
	}

	// No network call was issued for any of them.
	assert.Equal(t, 0, blocklist.calls)
	assert.Equal(t, 0, classifier.calls)
	assert.Equal(t, 0, registration.calls)
}

func TestEvaluateBlocklistRejectedURL(t *testing.T) {
	blocklist := &fakeBlocklist{outcome: BlocklistOutcome{Status: BlocklistInvalidURL, Error: "rejected"}}
	classifier := &fakeClassifier{}
	registration := &fakeRegistration{}
	engine := newTestEngine(blocklist, classifier, registration)

	verdict, err := engine.Evaluate(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, PredictionInvalid, verdict.Prediction)
	assert.Zero(t, verdict.SuspicionScore)
	assert.Equal(t, 0, classifier.calls)
	assert.Equal(t, 0, registration.calls)
}

func TestEvaluateClassifierFailureIsFatal(t *testing.T) {
	blocklist := &fakeBlocklist{outcome: BlocklistOutcome{Status: BlocklistClean}}
	classifier := &fakeClassifier{err: &UpstreamError{Source: "classifier", Detail: "timeout"}}
	registration := &fakeRegistration{outcome: registrationAgedDays(4000)}
	engine := newTestEngine(blocklist, classifier, registration)

	verdict, err := engine.Evaluate(context.Background(), "example.com")
	require.Error(t, err)
	assert.Nil(t, verdict)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "classifier", upstream.Source)
}

func TestEvaluateBlocklistErrorDegrades(t *testing.T) {
	blocklist := &fakeBlocklist{outcome: BlocklistOutcome{Status: BlocklistError, Error: "network down"}}
	classifier := &fakeClassifier{cls: Classification{Label: LabelBenign, Confidence: 0.95}}
	registration := &fakeRegistration{outcome: registrationAgedDays(4000)}
	engine := newTestEngine(blocklist, classifier, registration)

	verdict, err := engine.Evaluate(context.Background(), "example.com")
	require.NoError(t, err)

	// An unreachable blocklist scores like an unknown signal, never a flag.
	assert.Equal(t, PredictionSafe, verdict.Prediction)
	assert.Zero(t, verdict.SuspicionScore)
	assert.Equal(t, 1, classifier.calls)
	assert.Equal(t, 1, registration.calls)
}

func TestEvaluateRegistrationFailureDoesNotAbort(t *testing.T) {
	blocklist := &fakeBlocklist{outcome: BlocklistOutcome{Status: BlocklistClean}}
	classifier := &fakeClassifier{cls: Classification{Label: LabelPhishing, Confidence: 0.95}}
	registration := &fakeRegistration{outcome: registrationFailed()}
	engine := newTestEngine(blocklist, classifier, registration)

	verdict, err := engine.Evaluate(context.Background(), "example.com")
	require.NoError(t, err)

	// phishing high confidence (+3) plus unknown age (+3).
	assert.Equal(t, 6, verdict.SuspicionScore)
	assert.Equal(t, PredictionPhishing, verdict.Prediction)
}
