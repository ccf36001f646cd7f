package detection

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClassifierTestClient(t *testing.T, token string, handler http.HandlerFunc) *ClassifierClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClassifierClient(srv.URL, token, 2*time.Second, zerolog.Nop())
}

func TestClassifyFlatResponse(t *testing.T) {
	var gotAuth string
	var gotInputs map[string]string
	client := newClassifierTestClient(t, "hf-token", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotInputs))
		_, _ = w.Write([]byte(`[{"label":"benign","score":0.12},{"label":"phishing","score":0.88}]`))
	})

	cls, err := client.Classify(context.Background(), mustNormalize(t, "example.com"))
	require.NoError(t, err)
	assert.Equal(t, LabelPhishing, cls.Label)
	assert.InDelta(t, 0.88, cls.Confidence, 1e-9)
	assert.Equal(t, "Bearer hf-token", gotAuth)
	assert.Equal(t, "https://www.example.com", gotInputs["inputs"])
}

func TestClassifyNestedResponse(t *testing.T) {
	client := newClassifierTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[{"label":"phishing","score":0.03},{"label":"benign","score":0.97}]]`))
	})

	cls, err := client.Classify(context.Background(), mustNormalize(t, "example.com"))
	require.NoError(t, err)
	assert.Equal(t, LabelBenign, cls.Label)
	assert.InDelta(t, 0.97, cls.Confidence, 1e-9)
}

func TestClassifyUnknownLabelPassesThrough(t *testing.T) {
	client := newClassifierTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"LABEL_1","score":0.76}]`))
	})

	cls, err := client.Classify(context.Background(), mustNormalize(t, "example.com"))
	require.NoError(t, err)
	assert.Equal(t, "LABEL_1", cls.Label)
}

func TestClassifyErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model loading", http.StatusServiceUnavailable)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error":"unexpected shape"}`))
			},
		},
		{
			name: "empty candidate list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[]`))
			},
		},
		{
			name: "empty nested candidate list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[[]]`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClassifierTestClient(t, "", tt.handler)
			_, err := client.Classify(context.Background(), mustNormalize(t, "example.com"))
			require.Error(t, err)
			var upstream *UpstreamError
			require.ErrorAs(t, err, &upstream)
			assert.Equal(t, "classifier", upstream.Source)
		})
	}
}

func TestClassifyUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClassifierClient(srv.URL, "", time.Second, zerolog.Nop())

	_, err := client.Classify(context.Background(), mustNormalize(t, "example.com"))
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "classifier", upstream.Source)
}
