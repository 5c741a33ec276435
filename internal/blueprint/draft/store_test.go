package draft

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client), mr
}

func sampleDraft() domain.WizardDraft {
	return domain.WizardDraft{
		Intent: domain.ProjectIntent{
			ProjectType:  domain.TypeWeb,
			AgentPersona: domain.PersonaExpert,
			Description:  "متجر إلكتروني بسيط لبيع العطور",
			Answers: map[domain.QuestionID]domain.AnswerValue{
				"web_type":    "متجر إلكتروني",
				"has_backend": true,
			},
			Contact: domain.Contact{Name: "Omar", Email: "omar@example.com"},
		},
		StepIndex: 2,
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	want := sampleDraft()
	s.Save(ctx, "owner-1", want)

	got, ok := s.Load(ctx, "owner-1")
	require.True(t, ok)
	assert.Equal(t, want.StepIndex, got.StepIndex)
	assert.Equal(t, want.Intent.ProjectType, got.Intent.ProjectType)
	assert.Equal(t, want.Intent.Description, got.Intent.Description)
	assert.Equal(t, "متجر إلكتروني", got.Intent.Answers["web_type"])
	assert.Equal(t, true, got.Intent.Answers["has_backend"])
}

func TestStore_LastWriteWins(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	first := sampleDraft()
	s.Save(ctx, "owner-1", first)

	second := first
	second.StepIndex = 3
	s.Save(ctx, "owner-1", second)

	got, ok := s.Load(ctx, "owner-1")
	require.True(t, ok)
	assert.Equal(t, 3, got.StepIndex)
}

func TestStore_LoadAbsent(t *testing.T) {
	s, _ := setupStore(t)
	_, ok := s.Load(context.Background(), "nobody")
	assert.False(t, ok)
}

func TestStore_Clear(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	s.Save(ctx, "owner-1", sampleDraft())
	s.Clear(ctx, "owner-1")

	_, ok := s.Load(ctx, "owner-1")
	assert.False(t, ok)
}

func TestStore_DegradesWhenRedisDown(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()
	mr.Close()

	// none of these may panic or return an error to the caller
	s.Save(ctx, "owner-1", sampleDraft())
	_, ok := s.Load(ctx, "owner-1")
	assert.False(t, ok)
	s.Clear(ctx, "owner-1")
}

func TestStore_NilClientIsNoOp(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	s.Save(ctx, "owner-1", sampleDraft())
	_, ok := s.Load(ctx, "owner-1")
	assert.False(t, ok)
	s.Clear(ctx, "owner-1")
}

func TestStore_CorruptPayload(t *testing.T) {
	s, mr := setupStore(t)
	require.NoError(t, mr.Set(KeyPrefix+"owner-1", "{not json"))

	_, ok := s.Load(context.Background(), "owner-1")
	assert.False(t, ok)
}
