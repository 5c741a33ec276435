package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
)

func completeWizard(t *testing.T) *Wizard {
	t.Helper()
	w := New(nil)
	require.NoError(t, w.SetProjectType(domain.TypeWeb))
	require.NoError(t, w.Advance())
	require.NoError(t, w.SetAnswer("web_type", "متجر إلكتروني"))
	require.NoError(t, w.SetAnswer("has_backend", true))
	require.NoError(t, w.SetDescription("متجر إلكتروني بسيط لبيع العطور"))
	require.NoError(t, w.Advance())
	require.NoError(t, w.Advance()) // assets step needs nothing
	require.NoError(t, w.SetContact(domain.Contact{Name: "Omar", Email: "omar@example.com"}))
	return w
}

func TestAdvance_RequiresProjectType(t *testing.T) {
	w := New(nil)

	err := w.Advance()
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, StepTypeSelect, w.Step())

	require.NoError(t, w.SetProjectType(domain.TypeWeb))
	require.NoError(t, w.Advance())
	assert.Equal(t, StepDetails, w.Step())
}

func TestAdvance_DetailsValidatesByQuestionKey(t *testing.T) {
	w := New(nil)
	require.NoError(t, w.SetProjectType(domain.TypeMobile))
	require.NoError(t, w.Advance())
	require.NoError(t, w.SetDescription("تطبيق توصيل طلبات سريع"))

	// answering an irrelevant key twice must not satisfy the requirement
	require.NoError(t, w.SetAnswer("web_type", "x"))
	require.NoError(t, w.SetAnswer("irrelevant", "y"))
	err := w.Advance()
	require.Error(t, err)
	assert.Equal(t, StepDetails, w.Step())

	require.NoError(t, w.SetAnswer("platform", "Android"))
	require.NoError(t, w.SetAnswer("has_auth", false))
	require.NoError(t, w.Advance())
	assert.Equal(t, StepAssets, w.Step())
}

func TestAdvance_DetailsRequiresDescription(t *testing.T) {
	w := New(nil)
	require.NoError(t, w.SetProjectType(domain.TypeWeb))
	require.NoError(t, w.Advance())
	require.NoError(t, w.SetAnswer("web_type", "مدونة"))
	require.NoError(t, w.SetAnswer("has_backend", false))

	require.NoError(t, w.SetDescription("قصير"))
	err := w.Advance()
	require.Error(t, err)
	assert.Equal(t, StepDetails, w.Step())

	require.NoError(t, w.SetDescription("مدونة شخصية عن التقنية والبرمجة"))
	require.NoError(t, w.Advance())
}

func TestAdvance_ReviewValidatesContact(t *testing.T) {
	w := completeWizard(t)
	require.NoError(t, w.SetContact(domain.Contact{Name: "", Email: "bad"}))

	_, err := w.Finalize()
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, StepReview, w.Step())

	require.NoError(t, w.SetContact(domain.Contact{Name: "Omar", Email: "not-an-email"}))
	_, err = w.Finalize()
	require.Error(t, err)

	require.NoError(t, w.SetContact(domain.Contact{Name: "Omar", Email: "omar@example.com"}))
	_, err = w.Finalize()
	require.NoError(t, err)
}

func TestBack_AlwaysPermitted(t *testing.T) {
	w := New(nil)
	w.Back() // at step 0, stays
	assert.Equal(t, StepTypeSelect, w.Step())

	require.NoError(t, w.SetProjectType(domain.TypeAIBot))
	require.NoError(t, w.Advance())
	w.Back()
	assert.Equal(t, StepTypeSelect, w.Step())
}

func TestFinalize_ProducesIntentAndLocksWizard(t *testing.T) {
	w := completeWizard(t)

	intent, err := w.Finalize()
	require.NoError(t, err)
	assert.Equal(t, domain.TypeWeb, intent.ProjectType)
	assert.Equal(t, "Omar", intent.Contact.Name)
	assert.True(t, w.Finalized())

	// read-only while finalized
	err = w.SetDescription("changed")
	require.Error(t, err)

	// back from the result view reopens review
	w.Back()
	assert.False(t, w.Finalized())
	assert.Equal(t, StepReview, w.Step())
}

func TestSetProjectType_ResetsAnswersOnChange(t *testing.T) {
	w := New(nil)
	require.NoError(t, w.SetProjectType(domain.TypeWeb))
	require.NoError(t, w.SetAnswer("web_type", "مدونة"))

	require.NoError(t, w.SetProjectType(domain.TypeMobile))
	assert.Empty(t, w.Draft().Intent.Answers)
}

func TestAppendAssets_PreservesOrder(t *testing.T) {
	w := completeWizard(t)
	require.NoError(t, w.AppendAssets([]domain.AssetRef{{Name: "logo.png"}}))
	require.NoError(t, w.AppendAssets([]domain.AssetRef{{Name: "brand.pdf"}}))

	assets := w.Draft().Intent.UploadedAssets
	require.Len(t, assets, 2)
	assert.Equal(t, "logo.png", assets[0].Name)
	assert.Equal(t, "brand.pdf", assets[1].Name)
}

func TestRestore_ClampsBadStepIndex(t *testing.T) {
	w := Restore(domain.WizardDraft{StepIndex: 99}, nil)
	assert.Equal(t, StepTypeSelect, w.Step())

	w = Restore(domain.WizardDraft{StepIndex: 2}, nil)
	assert.Equal(t, StepAssets, w.Step())
}
