// Package repository is the persistence gateway for generated projects and
// captured leads, backed by Postgres.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
)

// ProjectRepository provides persistence operations for generated projects.
type ProjectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

// Migrate creates the gateway tables when they do not exist yet.
func (r *ProjectRepository) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS generated_projects (
	id           TEXT PRIMARY KEY,
	owner_key    TEXT NOT NULL,
	project_name TEXT NOT NULL,
	summary      TEXT NOT NULL DEFAULT '',
	features     JSONB NOT NULL DEFAULT '[]',
	tech_stack   JSONB NOT NULL DEFAULT '[]',
	analysis     JSONB NOT NULL DEFAULT '{}',
	phases       JSONB NOT NULL DEFAULT '[]',
	files        JSONB NOT NULL DEFAULT '{}',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS generated_projects_owner_idx ON generated_projects (owner_key, created_at DESC);

CREATE TABLE IF NOT EXISTS leads (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	email        TEXT NOT NULL,
	phone        TEXT NOT NULL DEFAULT '',
	project_type TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
	if _, err := r.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("migrate gateway schema: %w", err)
	}
	return nil
}

// SaveProject inserts a newly generated project and returns its id.
func (r *ProjectRepository) SaveProject(ctx context.Context, p *domain.GeneratedProject) (string, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	features, _ := json.Marshal(orEmptyList(p.Features))
	techStack, _ := json.Marshal(orEmptyList(p.TechStack))
	analysis, _ := json.Marshal(orEmptyMap(p.Analysis))
	phases, _ := json.Marshal(orEmptyPhases(p.Phases))
	files, _ := json.Marshal(p.Files)

	const q = `
INSERT INTO generated_projects (id, owner_key, project_name, summary, features, tech_stack, analysis, phases, files)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING created_at, updated_at;
`
	err := r.pool.QueryRow(ctx, q,
		p.ID, p.OwnerKey, p.ProjectName, p.Summary, features, techStack, analysis, phases, files).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return "", domain.WrapFailure(domain.FailPersistence, "save project", err)
	}
	return p.ID, nil
}

// GetProject loads one project by id.
func (r *ProjectRepository) GetProject(ctx context.Context, id string) (*domain.GeneratedProject, error) {
	const q = `
SELECT id, owner_key, project_name, summary, features, tech_stack, analysis, phases, files, created_at, updated_at
FROM generated_projects
WHERE id = $1;
`
	p, err := scanProject(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.WrapFailure(domain.FailPersistence, "get project", err)
	}
	return p, nil
}

// ListProjects returns every project for the given owner, newest first.
func (r *ProjectRepository) ListProjects(ctx context.Context, ownerKey string) ([]domain.GeneratedProject, error) {
	const q = `
SELECT id, owner_key, project_name, summary, features, tech_stack, analysis, phases, files, created_at, updated_at
FROM generated_projects
WHERE owner_key = $1
ORDER BY created_at DESC;
`
	rows, err := r.pool.Query(ctx, q, ownerKey)
	if err != nil {
		return nil, domain.WrapFailure(domain.FailPersistence, "list projects", err)
	}
	defer rows.Close()

	out := make([]domain.GeneratedProject, 0, 8)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, domain.WrapFailure(domain.FailPersistence, "scan project", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapFailure(domain.FailPersistence, "list projects", err)
	}
	return out, nil
}

// patchColumns maps patchable top-level keys to their columns. Patch
// semantics are shallow: a key replaces the whole stored value.
var patchColumns = map[string]struct {
	column string
	isJSON bool
}{
	"project_name": {"project_name", false},
	"summary":      {"summary", false},
	"features":     {"features", true},
	"tech_stack":   {"tech_stack", true},
	"analysis":     {"analysis", true},
	"phases":       {"phases", true},
	"files":        {"files", true},
}

// UpdateProject applies a shallow top-level patch to a stored project.
// Unknown keys are rejected.
func (r *ProjectRepository) UpdateProject(ctx context.Context, id string, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}
	set := "updated_at = now()"
	args := []any{id}
	for key, value := range patch {
		col, ok := patchColumns[key]
		if !ok {
			return domain.NewFailure(domain.FailPersistence, fmt.Sprintf("unknown patch key %q", key))
		}
		if col.isJSON {
			data, err := json.Marshal(value)
			if err != nil {
				return domain.WrapFailure(domain.FailPersistence, "encode patch value", err)
			}
			value = data
		}
		args = append(args, value)
		set += fmt.Sprintf(", %s = $%d", col.column, len(args))
	}

	q := fmt.Sprintf("UPDATE generated_projects SET %s WHERE id = $1;", set)
	tag, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		return domain.WrapFailure(domain.FailPersistence, "update project", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateFiles is the editor-session save hook: replace the files map.
func (r *ProjectRepository) UpdateFiles(ctx context.Context, id string, files map[string]string) error {
	return r.UpdateProject(ctx, id, map[string]any{"files": files})
}

func scanProject(row pgx.Row) (*domain.GeneratedProject, error) {
	var p domain.GeneratedProject
	var features, techStack, analysis, phases, files []byte
	err := row.Scan(&p.ID, &p.OwnerKey, &p.ProjectName, &p.Summary,
		&features, &techStack, &analysis, &phases, &files,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(features, &p.Features); err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}
	if err := json.Unmarshal(techStack, &p.TechStack); err != nil {
		return nil, fmt.Errorf("decode tech_stack: %w", err)
	}
	if err := json.Unmarshal(analysis, &p.Analysis); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if err := json.Unmarshal(phases, &p.Phases); err != nil {
		return nil, fmt.Errorf("decode phases: %w", err)
	}
	if err := json.Unmarshal(files, &p.Files); err != nil {
		return nil, fmt.Errorf("decode files: %w", err)
	}
	return &p, nil
}

func orEmptyList(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func orEmptyMap(v map[string]any) map[string]any {
	if v == nil {
		return map[string]any{}
	}
	return v
}

func orEmptyPhases(v []domain.Phase) []domain.Phase {
	if v == nil {
		return []domain.Phase{}
	}
	return v
}
