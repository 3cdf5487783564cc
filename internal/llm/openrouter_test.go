package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func completionBody(content string) string {
	msg, _ := json.Marshal(content)
	return fmt.Sprintf(`{"id":"x","choices":[{"message":{"role":"assistant","content":%s}}]}`, msg)
}

func newTestMapper(t *testing.T, handler http.HandlerFunc) *OpenRouterMapper {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenRouterMapper("test-key", "test/model", srv.URL+"/v1", nil)
}

func TestSuggestMappingsSkipsWithoutKey(t *testing.T) {
	t.Parallel()

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	t.Cleanup(srv.Close)

	m := NewOpenRouterMapper("", "test/model", srv.URL+"/v1", nil)
	out, err := m.SuggestMappings(context.Background(), []string{"Bidule"}, []string{"Vaisselle"})
	require.NoError(t, err)
	require.Empty(t, out)
	require.False(t, called, "no HTTP call without an api key")
}

func TestSuggestMappingsSkipsEmptyInput(t *testing.T) {
	t.Parallel()

	m := newTestMapper(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected HTTP call")
	})
	out, err := m.SuggestMappings(context.Background(), nil, []string{"Vaisselle"})
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestSuggestMappingsSuccess(t *testing.T) {
	t.Parallel()

	m := newTestMapper(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.Contains(t, r.URL.Path, "/chat/completions")

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "test/model", req["model"])

		content := `{"mappings":{"Assiettes":{"target_name":"Vaisselle","confidence":92},` +
			`"Bidule":{"target_name":"","confidence":50},` +
			`"Elektro":{"target_name":"DEEE","confidence":400}}}`
		fmt.Fprint(w, completionBody(content))
	})

	out, err := m.SuggestMappings(context.Background(), []string{"Assiettes", "Bidule", "Elektro"}, []string{"Vaisselle", "DEEE"})
	require.NoError(t, err)
	require.Len(t, out, 2, "empty targets are discarded")
	require.InDelta(t, 92.0, out["Assiettes"].Confidence, 1e-9)
	require.InDelta(t, 100.0, out["Elektro"].Confidence, 1e-9, "confidence clamped to 100")
}

func TestSuggestMappingsDoubleEncodedContent(t *testing.T) {
	t.Parallel()

	inner := `{"mappings":{"Assiettes":{"target_name":"Vaisselle","confidence":-3}}}`
	m := newTestMapper(t, func(w http.ResponseWriter, r *http.Request) {
		// content is itself a JSON string wrapping the object
		doubled, _ := json.Marshal(inner)
		fmt.Fprint(w, completionBody(string(doubled)))
	})

	out, err := m.SuggestMappings(context.Background(), []string{"Assiettes"}, []string{"Vaisselle"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.InDelta(t, 0.0, out["Assiettes"].Confidence, 1e-9, "negative confidence clamped to 0")
}

func TestSuggestMappingsServerErrorNeverRaises(t *testing.T) {
	t.Parallel()

	m := newTestMapper(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})
	out, err := m.SuggestMappings(context.Background(), []string{"Bidule"}, []string{"Vaisselle"})
	require.Error(t, err, "the failure is reported for telemetry")
	require.NotNil(t, out)
	require.Empty(t, out, "and the mapping stays empty")
}

func TestSuggestMappingsGarbageContent(t *testing.T) {
	t.Parallel()

	m := newTestMapper(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionBody("the category is probably Vaisselle"))
	})
	out, err := m.SuggestMappings(context.Background(), []string{"Assiettes"}, []string{"Vaisselle"})
	require.Error(t, err)
	require.Empty(t, out)
}

func TestClampConfidence(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0.0, ClampConfidence(-10))
	require.Equal(t, 100.0, ClampConfidence(250))
	require.Equal(t, 42.5, ClampConfidence(42.5))
}
