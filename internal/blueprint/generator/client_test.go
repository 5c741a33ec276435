package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
)

func sampleIntent() domain.ProjectIntent {
	return domain.ProjectIntent{
		ProjectType:  domain.TypeWeb,
		AgentPersona: domain.PersonaExpert,
		Description:  "متجر إلكتروني بسيط",
		Answers: map[domain.QuestionID]domain.AnswerValue{
			"web_type":    "متجر إلكتروني",
			"has_backend": true,
		},
	}
}

func TestGenerate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "web", req["project_type"])
		assert.Equal(t, "expert", req["agent_persona"])

		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"project": map[string]any{
				"project_name": "متجر عطور",
				"summary":      "متجر إلكتروني لبيع العطور",
				"features":     []string{"سلة مشتريات", "دفع إلكتروني"},
				"tech_stack":   []string{"react", "tailwindcss"},
				"files": map[string]string{
					"index.html":   "<html></html>",
					"src/index.js": "render()",
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	p, err := client.Generate(context.Background(), sampleIntent())
	require.NoError(t, err)
	assert.Equal(t, "متجر عطور", p.ProjectName)
	assert.Len(t, p.Files, 2)
}

func TestGenerate_UpstreamErrorSurfacedVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "network timeout"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Generate(context.Background(), sampleIntent())
	require.Error(t, err)

	f, ok := domain.FailureOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailGeneration, f.Kind)
	assert.Equal(t, "network timeout", f.Message)
}

func TestGenerate_RejectsMissingRequiredFields(t *testing.T) {
	cases := []struct {
		name    string
		project map[string]any
	}{
		{"no name", map[string]any{"summary": "s", "files": map[string]string{"a": "b"}}},
		{"no summary", map[string]any{"project_name": "p", "files": map[string]string{"a": "b"}}},
		{"no files", map[string]any{"project_name": "p", "summary": "s"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"ok": true, "project": tc.project})
			}))
			defer server.Close()

			client := NewClient(server.URL)
			_, err := client.Generate(context.Background(), sampleIntent())
			require.Error(t, err)
			f, ok := domain.FailureOf(err)
			require.True(t, ok)
			assert.Equal(t, domain.FailGeneration, f.Kind)
		})
	}
}

func TestGenerate_NetworkFailure(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.Generate(context.Background(), sampleIntent())
	require.Error(t, err)
	f, ok := domain.FailureOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailGeneration, f.Kind)
}
