// Package wizard drives the multi-step intake flow that turns free-form
// requirements into a finalized project intent. Transitions are strictly
// forward/backward by one step; each forward transition validates the current
// step and a failure leaves the step index unchanged.
package wizard

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
)

// Step indexes the wizard sequence.
type Step int

const (
	StepTypeSelect Step = iota
	StepDetails
	StepAssets
	StepReview
	StepFinalized
)

func (s Step) String() string {
	switch s {
	case StepTypeSelect:
		return "type_select"
	case StepDetails:
		return "details"
	case StepAssets:
		return "assets"
	case StepReview:
		return "review"
	case StepFinalized:
		return "finalized"
	}
	return "unknown"
}

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Wizard is a single-user intake session. Mutations after step 0 schedule a
// debounced draft save through the attached Autosaver.
type Wizard struct {
	mu        sync.Mutex
	draft     domain.WizardDraft
	finalized bool
	autosaver *Autosaver
}

// New creates a wizard at the type-selection step.
func New(autosaver *Autosaver) *Wizard {
	return &Wizard{
		draft: domain.WizardDraft{
			Intent: domain.ProjectIntent{
				AgentPersona: domain.PersonaExpert,
				Answers:      map[domain.QuestionID]domain.AnswerValue{},
			},
		},
		autosaver: autosaver,
	}
}

// Restore creates a wizard resuming from a stored draft.
func Restore(d domain.WizardDraft, autosaver *Autosaver) *Wizard {
	if d.Intent.Answers == nil {
		d.Intent.Answers = map[domain.QuestionID]domain.AnswerValue{}
	}
	if d.Intent.AgentPersona == "" {
		d.Intent.AgentPersona = domain.PersonaExpert
	}
	if d.StepIndex < int(StepTypeSelect) || d.StepIndex > int(StepReview) {
		d.StepIndex = int(StepTypeSelect)
	}
	return &Wizard{draft: d, autosaver: autosaver}
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Step(w.draft.StepIndex)
}

// Draft returns a snapshot of the current draft.
func (w *Wizard) Draft() domain.WizardDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

func (w *Wizard) snapshot() domain.WizardDraft {
	d := w.draft
	answers := make(map[domain.QuestionID]domain.AnswerValue, len(d.Intent.Answers))
	for k, v := range d.Intent.Answers {
		answers[k] = v
	}
	d.Intent.Answers = answers
	d.Intent.UploadedAssets = append([]domain.AssetRef(nil), d.Intent.UploadedAssets...)
	return d
}

// Finalized reports whether the wizard reached its terminal state.
func (w *Wizard) Finalized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.finalized
}

func (w *Wizard) mutate(fn func(*domain.ProjectIntent)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finalized {
		return &domain.ValidationError{Message: "المشروع قيد التوليد، لا يمكن تعديل البيانات"}
	}
	fn(&w.draft.Intent)
	w.touch()
	return nil
}

// touch schedules an autosave when progress went past step 0.
// Caller holds the lock.
func (w *Wizard) touch() {
	if w.autosaver != nil && w.draft.StepIndex > 0 {
		w.autosaver.Touch(w.snapshot())
	}
}

// SetProjectType records the chosen project type and resets the answers,
// which belong to the previous type's question set.
func (w *Wizard) SetProjectType(t domain.ProjectType) error {
	if !t.Valid() {
		return &domain.ValidationError{Field: "project_type", Message: "نوع المشروع غير معروف"}
	}
	return w.mutate(func(in *domain.ProjectIntent) {
		if in.ProjectType != t {
			in.Answers = map[domain.QuestionID]domain.AnswerValue{}
		}
		in.ProjectType = t
	})
}

// SetAgentPersona records the preferred coding-agent persona.
func (w *Wizard) SetAgentPersona(p domain.AgentPersona) error {
	return w.mutate(func(in *domain.ProjectIntent) { in.AgentPersona = p })
}

// SetDescription records the free-form project description.
func (w *Wizard) SetDescription(desc string) error {
	return w.mutate(func(in *domain.ProjectIntent) { in.Description = desc })
}

// SetAnswer records the answer for one dynamic question.
func (w *Wizard) SetAnswer(id domain.QuestionID, v domain.AnswerValue) error {
	return w.mutate(func(in *domain.ProjectIntent) { in.Answers[id] = v })
}

// SetContact records the lead contact details.
func (w *Wizard) SetContact(c domain.Contact) error {
	return w.mutate(func(in *domain.ProjectIntent) { in.Contact = c })
}

// AppendAssets appends successfully uploaded assets, preserving order.
func (w *Wizard) AppendAssets(assets []domain.AssetRef) error {
	return w.mutate(func(in *domain.ProjectIntent) {
		in.UploadedAssets = append(in.UploadedAssets, assets...)
	})
}

// Advance validates the current step and moves one step forward. On a
// validation failure the step index is unchanged and the error carries the
// user-visible message.
func (w *Wizard) Advance() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finalized {
		return &domain.ValidationError{Message: "تم إنهاء المعالج بالفعل"}
	}
	step := Step(w.draft.StepIndex)
	if step >= StepReview {
		return &domain.ValidationError{Message: "استخدم finalize لبدء التوليد"}
	}
	if err := w.validateStep(step); err != nil {
		return err
	}
	w.draft.StepIndex++
	w.touch()
	return nil
}

// Back moves one step backward. Always permitted, never validates.
func (w *Wizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finalized {
		// back from the result view reopens the review step
		w.finalized = false
		w.draft.StepIndex = int(StepReview)
		return
	}
	if w.draft.StepIndex > 0 {
		w.draft.StepIndex--
	}
}

// Finalize validates everything up to and including the review step and
// returns the immutable project intent. The wizard becomes read-only.
func (w *Wizard) Finalize() (domain.ProjectIntent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finalized {
		return domain.ProjectIntent{}, &domain.ValidationError{Message: "تم إنهاء المعالج بالفعل"}
	}
	if Step(w.draft.StepIndex) != StepReview {
		return domain.ProjectIntent{}, &domain.ValidationError{Message: "أكمل جميع الخطوات قبل البدء"}
	}
	for _, s := range []Step{StepTypeSelect, StepDetails, StepReview} {
		if err := w.validateStep(s); err != nil {
			return domain.ProjectIntent{}, err
		}
	}
	w.finalized = true
	w.draft.StepIndex = int(StepFinalized)
	snap := w.snapshot()
	return snap.Intent, nil
}

// validateStep checks the requirements for leaving a step.
// Caller holds the lock.
func (w *Wizard) validateStep(s Step) error {
	in := w.draft.Intent
	switch s {
	case StepTypeSelect:
		if !in.ProjectType.Valid() {
			return &domain.ValidationError{Field: "project_type", Message: "يرجى اختيار نوع المشروع للمتابعة"}
		}
	case StepDetails:
		// validate by key presence per registered question, not by count
		for _, q := range QuestionsFor(in.ProjectType) {
			if _, ok := in.Answers[q.ID]; !ok {
				return &domain.ValidationError{Field: string(q.ID), Message: "يرجى الإجابة على جميع الأسئلة للمتابعة"}
			}
		}
		if utf8.RuneCountInString(strings.TrimSpace(in.Description)) < 10 {
			return &domain.ValidationError{Field: "description", Message: "يرجى كتابة وصف أطول لفكرتك لضمان جودة التحليل"}
		}
	case StepAssets:
		// enrichment only, nothing required
	case StepReview:
		if strings.TrimSpace(in.Contact.Name) == "" {
			return &domain.ValidationError{Field: "name", Message: "يرجى إكمال بياناتك (الاسم) للمتابعة"}
		}
		if !emailRx.MatchString(in.Contact.Email) {
			return &domain.ValidationError{Field: "email", Message: "يرجى إدخال بريد إلكتروني صحيح"}
		}
	}
	return nil
}
