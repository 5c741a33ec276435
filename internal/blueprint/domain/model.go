package domain

import "time"

// ProjectType identifies the kind of project a client is asking for.
type ProjectType string

const (
	TypeWeb    ProjectType = "web"
	TypeMobile ProjectType = "mobile"
	TypeAIBot  ProjectType = "ai-bot"
)

// Valid reports whether t is one of the known project types.
func (t ProjectType) Valid() bool {
	switch t {
	case TypeWeb, TypeMobile, TypeAIBot:
		return true
	}
	return false
}

// AgentPersona selects the coding-agent personality used during generation.
type AgentPersona string

const (
	PersonaExpert   AgentPersona = "expert"
	PersonaCreative AgentPersona = "creative"
	PersonaBusiness AgentPersona = "business"
)

// QuestionID keys an answer to one of the dynamic intake questions.
type QuestionID string

// AnswerValue holds a single intake answer (string option or boolean).
type AnswerValue any

// AssetRef describes one uploaded asset attached to the intake.
type AssetRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// Contact carries the lead details collected at the review step.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// ProjectIntent is the finalized output of the intake wizard.
// It is treated as immutable once the wizard reaches its terminal state.
type ProjectIntent struct {
	ProjectType    ProjectType               `json:"project_type"`
	AgentPersona   AgentPersona              `json:"agent_persona"`
	Description    string                    `json:"description"`
	Answers        map[QuestionID]AnswerValue `json:"answers"`
	UploadedAssets []AssetRef                `json:"uploaded_assets,omitempty"`
	Contact        Contact                   `json:"contact"`
}

// WizardDraft is the auto-saved, restorable snapshot of wizard progress.
type WizardDraft struct {
	Intent    ProjectIntent `json:"intent"`
	StepIndex int           `json:"step_index"`
}

// Phase is one entry of the generated delivery roadmap.
type Phase struct {
	Name     string `json:"name"`
	Duration string `json:"duration"`
}

// GeneratedProject is the blueprint produced by the Generator: metadata plus
// a flat map of virtual file paths to contents. Path uniqueness is the only
// structural invariant of Files; there are no real filesystem semantics.
type GeneratedProject struct {
	ID          string            `json:"id"`
	OwnerKey    string            `json:"owner_key,omitempty"`
	ProjectName string            `json:"project_name"`
	Summary     string            `json:"summary"`
	Features    []string          `json:"features"`
	TechStack   []string          `json:"tech_stack"`
	Analysis    map[string]any    `json:"analysis,omitempty"`
	Phases      []Phase           `json:"phases,omitempty"`
	Files       map[string]string `json:"files"`
	CreatedAt   time.Time         `json:"created_at,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at,omitempty"`
}

// CheckStatus is the outcome of one quality check.
type CheckStatus string

const (
	CheckPass    CheckStatus = "pass"
	CheckWarning CheckStatus = "warning"
)

// QACheck is a single entry of a quality report.
type QACheck struct {
	ID      int         `json:"id"`
	Title   string      `json:"title"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
}

// QAReport is produced once per generated project and never mutated;
// a re-generation yields a fresh report.
type QAReport struct {
	Score   int       `json:"score"`
	Checks  []QACheck `json:"checks"`
	Summary string    `json:"summary"`
}
