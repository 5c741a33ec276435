package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
)

// LeadRepository stores the contact captured when an intake is finalized.
type LeadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository creates a new lead repository.
func NewLeadRepository(pool *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{pool: pool}
}

// SaveLead records one lead. Duplicate contacts are stored as-is; lead rows
// are append-only.
func (r *LeadRepository) SaveLead(ctx context.Context, c domain.Contact, projectType domain.ProjectType) error {
	const q = `
INSERT INTO leads (id, name, email, phone, project_type)
VALUES ($1, $2, $3, $4, $5);
`
	_, err := r.pool.Exec(ctx, q, uuid.New().String(), c.Name, c.Email, c.Phone, string(projectType))
	if err != nil {
		return domain.WrapFailure(domain.FailPersistence, "save lead", err)
	}
	return nil
}
