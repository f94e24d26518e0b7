package tagging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty", text: "", want: nil},
		{name: "bug and api", text: "Traceback in the /orders ENDPOINT", want: []string{"api", "bug"}},
		{name: "urgent feature", text: "Implement export ASAP", want: []string{"feature", "urgent"}},
		{name: "substring match", text: "prefix handling", want: []string{"bug"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestKeywords(tt.text))
		})
	}
}

func TestParseListAndMerge(t *testing.T) {
	assert.Equal(t, []string{"ui", "api"}, ParseList(" ui, ,api ,"))
	assert.Equal(t, []string{"api", "bug", "ui"}, Merge([]string{"ui", "api"}, []string{"bug", "api"}))
	assert.Nil(t, Merge())
}

func TestNew_WithoutKeyUsesKeywords(t *testing.T) {
	_, ok := New("", "", "gpt-4o-mini").(KeywordSuggester)
	assert.True(t, ok)
}

func TestOpenAISuggester_ParsesModelReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "test-model",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "API, #Backend, api."}
			}]
		}`))
	}))
	defer srv.Close()

	s := NewOpenAISuggester("test-key", srv.URL+"/v1/", "test-model")
	tags, err := s.Suggest(context.Background(), "Expose the billing endpoint")
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "backend"}, tags)
}

func TestOpenAISuggester_FallsBackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad request"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewOpenAISuggester("test-key", srv.URL+"/v1/", "test-model")
	tags, err := s.Suggest(context.Background(), "Fix the crash")
	require.NoError(t, err)
	assert.Equal(t, []string{"bug"}, tags)
}
