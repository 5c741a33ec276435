package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/draft"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/generator"
	bphttp "github.com/blueprintforge/blueprint-backend/internal/blueprint/http"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/pipeline"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/qa"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/upload"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	ctx := context.Background()
	err = client.Ping(ctx).Err()
	require.NoError(t, err)

	return client, mr
}

// memGateway doubles as the pipeline's project gateway and the handlers'
// project store, so the flow runs without PostgreSQL.
type memGateway struct {
	mu       sync.Mutex
	projects map[string]*domain.GeneratedProject
}

func newMemGateway() *memGateway {
	return &memGateway{projects: make(map[string]*domain.GeneratedProject)}
}

func (g *memGateway) SaveProject(_ context.Context, p *domain.GeneratedProject) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p.ID == "" {
		p.ID = "p-generated"
	}
	cp := *p
	g.projects[p.ID] = &cp
	return p.ID, nil
}

func (g *memGateway) GetProject(_ context.Context, id string) (*domain.GeneratedProject, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (g *memGateway) ListProjects(_ context.Context, ownerKey string) ([]domain.GeneratedProject, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := []domain.GeneratedProject{}
	for _, p := range g.projects {
		if p.OwnerKey == ownerKey {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (g *memGateway) UpdateFiles(_ context.Context, id string, files map[string]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.projects[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Files = files
	return nil
}

type instantStepper struct{}

func (instantStepper) Wait(ctx context.Context, _ pipeline.Stage) error { return ctx.Err() }

func generatorServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"project": map[string]any{
				"id":           "p-1",
				"project_name": "متجر عطور",
				"summary":      "متجر إلكتروني لبيع العطور",
				"features":     []string{"سلة مشتريات"},
				"tech_stack":   []string{"react"},
				"files": map[string]string{
					"index.html":   "<html><head></head><body></body></html>",
					"src/app.js":   "render()",
					"src/main.css": "body {}",
				},
			},
		})
	}))
}

func buildStack(t *testing.T, rdb *redis.Client, gateway *memGateway) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	genSrv := generatorServer(t)
	t.Cleanup(genSrv.Close)

	drafts := draft.NewStore(rdb)
	orchestrator := pipeline.NewOrchestrator(
		generator.NewClient(genSrv.URL),
		qa.NewReconciler(nil),
		gateway,
		drafts,
		nil,
		instantStepper{},
	)

	handler := bphttp.New(orchestrator, drafts, gateway, upload.NewClient(""), "")
	r := gin.New()
	handler.Register(r.Group("/api/v1"))
	return r
}

func post(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "owner-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("X-User-Id", "owner-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out))
}

func TestWizardFlow_IntakeToPersistedProject(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	defer mr.Close()
	defer rdb.Close()

	gateway := newMemGateway()
	router := buildStack(t, rdb, gateway)

	// start session
	rr := post(t, router, "/api/v1/wizard/sessions", nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	var started struct {
		SessionID string `json:"session_id"`
		Restored  bool   `json:"restored"`
	}
	decode(t, rr, &started)
	require.NotEmpty(t, started.SessionID)
	assert.False(t, started.Restored)
	base := "/api/v1/wizard/sessions/" + started.SessionID

	// type select
	rr = post(t, router, base+"/answers", gin.H{"project_type": "web", "agent_persona": "expert"})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = post(t, router, base+"/advance", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// details
	rr = post(t, router, base+"/answers", gin.H{
		"description": "متجر إلكتروني لبيع العطور مع سلة مشتريات",
		"answers":     gin.H{"web_type": "متجر إلكتروني", "has_backend": true},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = post(t, router, base+"/advance", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// assets step has no required input
	rr = post(t, router, base+"/advance", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// review
	rr = post(t, router, base+"/answers", gin.H{
		"contact": gin.H{"name": "Omar", "email": "omar@example.com"},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	// finalize starts the run
	rr = post(t, router, base+"/finalize", nil)
	require.Equal(t, http.StatusAccepted, rr.Code)
	var finalized struct {
		RunID string `json:"run_id"`
	}
	decode(t, rr, &finalized)
	require.NotEmpty(t, finalized.RunID)

	// poll until the run settles
	deadline := time.Now().Add(5 * time.Second)
	var state string
	for time.Now().Before(deadline) {
		rr = get(t, router, "/api/v1/runs/"+finalized.RunID)
		require.Equal(t, http.StatusOK, rr.Code)
		var snap struct {
			Run struct {
				State string `json:"state"`
			} `json:"run"`
		}
		decode(t, rr, &snap)
		state = snap.Run.State
		if state != "running" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.Equal(t, "succeeded", state)

	// the project is persisted under the caller's key
	rr = get(t, router, "/api/v1/projects")
	require.Equal(t, http.StatusOK, rr.Code)
	var listed struct {
		Projects []domain.GeneratedProject `json:"projects"`
	}
	decode(t, rr, &listed)
	require.Len(t, listed.Projects, 1)
	assert.Equal(t, "متجر عطور", listed.Projects[0].ProjectName)
	assert.Equal(t, "owner-1", listed.Projects[0].OwnerKey)

	// the draft is cleared after success
	_, ok := draft.NewStore(rdb).Load(context.Background(), "owner-1")
	assert.False(t, ok)
}

func TestWizardFlow_ValidationBlocksAdvance(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	defer mr.Close()
	defer rdb.Close()

	router := buildStack(t, rdb, newMemGateway())

	rr := post(t, router, "/api/v1/wizard/sessions", nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	var started struct {
		SessionID string `json:"session_id"`
	}
	decode(t, rr, &started)
	base := "/api/v1/wizard/sessions/" + started.SessionID

	// no project type selected yet
	rr = post(t, router, base+"/advance", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWizardFlow_DraftRestoredAcrossSessions(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	defer mr.Close()
	defer rdb.Close()

	router := buildStack(t, rdb, newMemGateway())

	// seed a draft the way the autosaver would
	drafts := draft.NewStore(rdb)
	drafts.Save(context.Background(), "owner-1", domain.WizardDraft{
		Intent: domain.ProjectIntent{
			ProjectType: domain.TypeWeb,
			Description: "متجر إلكتروني لبيع الكتب",
		},
		StepIndex: 1,
	})

	rr := post(t, router, "/api/v1/wizard/sessions", nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	var started struct {
		Restored bool   `json:"restored"`
		Step     string `json:"step"`
	}
	decode(t, rr, &started)
	assert.True(t, started.Restored)
	assert.Equal(t, "details", started.Step)
}
