package luis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "query": "my bike was stolen",
  "topScoringIntent": {"intent": "Theft", "score": 0.9134},
  "intents": [
    {"intent": "Theft", "score": 0.9134},
    {"intent": "None", "score": 0.02}
  ],
  "entities": [
    {"entity": "bike", "type": "StolenObject", "startIndex": 3, "endIndex": 6, "score": 0.87}
  ]
}`

func TestClassifyParsesResponse(t *testing.T) {
	var gotPath, gotKey, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("subscription-key")
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := New(srv.URL, "app-123", "secret-key")
	res, err := c.Classify(context.Background(), "my bike was stolen")
	require.NoError(t, err)

	assert.Equal(t, "/luis/v2.0/apps/app-123", gotPath)
	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, "my bike was stolen", gotQuery)

	assert.Equal(t, "my bike was stolen", res.Query)
	assert.Equal(t, "Theft", res.TopScoringIntent.Intent)
	assert.InDelta(t, 0.9134, res.TopScoringIntent.Score, 1e-9)
	require.Len(t, res.Entities, 1)
	assert.Equal(t, "bike", res.Entities[0].Entity)
	assert.Equal(t, EntityStolenObject, res.Entities[0].Type)
}

func TestClassifyEscapesQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{"query":"","topScoringIntent":{"intent":"None","score":0}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "app", "key")
	_, err := c.Classify(context.Background(), "stolen? yes & no / 100%")
	require.NoError(t, err)
	assert.Equal(t, "stolen? yes & no / 100%", gotQuery)
}

func TestClassifyNonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, "app", "key")
	_, err := c.Classify(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestClassifyBadJSONIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway timeout</html>"))
	}))
	defer srv.Close()

	c := New(srv.URL, "app", "key")
	_, err := c.Classify(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClassifyEmptyKeyFailsFast(t *testing.T) {
	c := New("http://example.invalid", "app", "")
	_, err := c.Classify(context.Background(), "anything")
	require.Error(t, err)
}

func TestFirstEntity(t *testing.T) {
	r := Result{Entities: []Entity{
		{Entity: "knife", Type: EntityWeapon},
		{Entity: "bike", Type: EntityStolenObject},
		{Entity: "wallet", Type: EntityStolenObject},
	}}

	ent := r.FirstEntity(EntityStolenObject)
	require.NotNil(t, ent)
	assert.Equal(t, "bike", ent.Entity)

	assert.Nil(t, r.FirstEntity("Location"))
}
