package http

import (
	"context"
	"sync"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/draft"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/pipeline"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/upload"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/vfs"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/wizard"
)

// ProjectStore is the slice of the persistence gateway the handlers need.
type ProjectStore interface {
	GetProject(ctx context.Context, id string) (*domain.GeneratedProject, error)
	ListProjects(ctx context.Context, ownerKey string) ([]domain.GeneratedProject, error)
	UpdateFiles(ctx context.Context, id string, files map[string]string) error
}

// Handler handles HTTP requests for the blueprint builder.
type Handler struct {
	orchestrator *pipeline.Orchestrator
	drafts       *draft.Store
	projects     ProjectStore
	uploads      *upload.Client
	adminKey     string // grants the privileged editor operations

	mu       sync.Mutex
	wizards  map[string]*wizardSession
	sessions map[string]*vfs.Session // editor sessions keyed by project ID + owner
}

// wizardSession binds one in-flight wizard to its owner and autosaver.
type wizardSession struct {
	ID       string
	OwnerKey string
	Wizard   *wizard.Wizard
	Saver    *wizard.Autosaver
}

// New creates a new Handler.
func New(orchestrator *pipeline.Orchestrator, drafts *draft.Store, projects ProjectStore, uploads *upload.Client, adminKey string) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		drafts:       drafts,
		projects:     projects,
		uploads:      uploads,
		adminKey:     adminKey,
		wizards:      make(map[string]*wizardSession),
		sessions:     make(map[string]*vfs.Session),
	}
}
