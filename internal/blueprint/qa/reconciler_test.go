package qa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
)

type stubReviewer struct {
	report *domain.QAReport
	err    error
	got    ReviewContext
}

func (s *stubReviewer) Review(_ context.Context, rc ReviewContext) (*domain.QAReport, error) {
	s.got = rc
	return s.report, s.err
}

func sampleProject() *domain.GeneratedProject {
	return &domain.GeneratedProject{
		ID:          "proj-1",
		ProjectName: "متجر عطور",
		Summary:     "متجر إلكتروني لبيع العطور",
		Features:    []string{"سلة مشتريات"},
		TechStack:   []string{"react"},
		Files: map[string]string{
			"index.html": "<html></html>",
			"src/app.js": "app()",
		},
	}
}

func validReport() *domain.QAReport {
	return &domain.QAReport{
		Score: 95,
		Checks: []domain.QACheck{
			{ID: 1, Title: "هيكل المجلدات", Status: domain.CheckPass, Message: "ok"},
		},
		Summary: "الكود جاهز للإنتاج.",
	}
}

func TestReview_PassesMinimizedContext(t *testing.T) {
	stub := &stubReviewer{report: validReport()}
	r := NewReconciler(stub)

	report := r.Review(context.Background(), sampleProject())
	assert.Equal(t, 95, report.Score)

	// only the minimized shape goes upstream, never file contents
	assert.Equal(t, "متجر عطور", stub.got.Name)
	assert.Equal(t, 2, stub.got.FileCount)
	assert.Equal(t, []string{"react"}, stub.got.TechStack)
}

func TestReview_FallbackOnReviewerError(t *testing.T) {
	stub := &stubReviewer{err: errors.New("connection refused")}
	r := NewReconciler(stub)

	report := r.Review(context.Background(), sampleProject())
	require.NotNil(t, report)
	assert.Len(t, report.Checks, 4)
	assert.GreaterOrEqual(t, report.Score, 0)
	assert.LessOrEqual(t, report.Score, 100)
	assert.Contains(t, report.Summary, "تعذر")
}

func TestReview_FallbackOnMalformedReport(t *testing.T) {
	cases := []struct {
		name   string
		report *domain.QAReport
	}{
		{"nil report", nil},
		{"score out of range", &domain.QAReport{Score: 150, Checks: validReport().Checks, Summary: "s"}},
		{"no checks", &domain.QAReport{Score: 90, Summary: "s"}},
		{"bad status", &domain.QAReport{Score: 90, Checks: []domain.QACheck{{ID: 1, Title: "t", Status: "fail"}}, Summary: "s"}},
		{"no summary", &domain.QAReport{Score: 90, Checks: validReport().Checks}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReconciler(&stubReviewer{report: tc.report})
			report := r.Review(context.Background(), sampleProject())
			assert.Len(t, report.Checks, 4)
			assert.Contains(t, report.Summary, "تعذر")
		})
	}
}

func TestFallbackReport_IsFreshPerCall(t *testing.T) {
	a := FallbackReport()
	b := FallbackReport()
	a.Checks[0].Title = "mutated"
	assert.NotEqual(t, a.Checks[0].Title, b.Checks[0].Title)
}

func TestClient_Review(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/review", r.URL.Path)

		var rc ReviewContext
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rc))
		assert.Equal(t, 2, rc.FileCount)

		json.NewEncoder(w).Encode(map[string]any{"ok": true, "report": validReport()})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	report, err := client.Review(context.Background(), ReviewContext{Name: "p", FileCount: 2})
	require.NoError(t, err)
	assert.Equal(t, 95, report.Score)
}

func TestClient_ReviewFailureKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "model overloaded"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Review(context.Background(), ReviewContext{})
	require.Error(t, err)
	f, ok := domain.FailureOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailReview, f.Kind)
	assert.Equal(t, "model overloaded", f.Message)
}
