package pipeline

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
	"github.com/blueprintforge/blueprint-backend/internal/logging"
)

// RunState is the lifecycle state of one pipeline run.
type RunState string

const (
	RunRunning   RunState = "running"
	RunSucceeded RunState = "succeeded"
	RunFailed    RunState = "failed"
)

// Generator turns a finalized intent into a generated project.
type Generator interface {
	Generate(ctx context.Context, intent domain.ProjectIntent) (*domain.GeneratedProject, error)
}

// QAReviewer produces the quality report. It never fails; it degrades to a
// fallback report internally.
type QAReviewer interface {
	Review(ctx context.Context, p *domain.GeneratedProject) *domain.QAReport
}

// ProjectGateway persists finished projects.
type ProjectGateway interface {
	SaveProject(ctx context.Context, p *domain.GeneratedProject) (string, error)
}

// DraftClearer removes the wizard draft after a successful run.
type DraftClearer interface {
	Clear(ctx context.Context, ownerKey string)
}

// LeadSaver captures the intake contact when a run starts.
type LeadSaver interface {
	SaveLead(ctx context.Context, c domain.Contact, t domain.ProjectType) error
}

// Stepper paces stage transitions. The production stepper sleeps; tests
// inject an instant one so the machine can be driven without timers.
type Stepper interface {
	Wait(ctx context.Context, s Stage) error
}

// TimedStepper paces stages with a base delay plus random jitter, matching
// the scripted narration rhythm.
type TimedStepper struct {
	Base   time.Duration
	Jitter time.Duration
}

// NewTimedStepper returns the default production pacing.
func NewTimedStepper() *TimedStepper {
	return &TimedStepper{Base: 2 * time.Second, Jitter: 2 * time.Second}
}

func (t *TimedStepper) Wait(ctx context.Context, _ Stage) error {
	d := t.Base
	if t.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(t.Jitter)))
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Run is one pipeline execution. All mutation happens on the driver
// goroutine; readers take the lock for snapshots.
type Run struct {
	ID       string
	OwnerKey string

	mu        sync.RWMutex
	machine   *Machine
	state     RunState
	project   *domain.GeneratedProject
	report    *domain.QAReport
	errMsg    string
	updatedAt time.Time
	done      chan struct{}
}

// Snapshot is a consistent read-only view of a run.
type Snapshot struct {
	ID        string                   `json:"id"`
	State     RunState                 `json:"state"`
	Stage     string                   `json:"stage"`
	Log       []LogEntry               `json:"log"`
	Project   *domain.GeneratedProject `json:"project,omitempty"`
	Report    *domain.QAReport         `json:"report,omitempty"`
	Error     string                   `json:"error,omitempty"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// Snapshot returns the current run view with the visible log window.
func (r *Run) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		ID:        r.ID,
		State:     r.state,
		Stage:     r.machine.Stage().Label(),
		Log:       r.machine.Visible(),
		Project:   r.project,
		Report:    r.report,
		Error:     r.errMsg,
		UpdatedAt: r.updatedAt,
	}
}

// FullLog returns the complete log sequence.
func (r *Run) FullLog() []LogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.machine.Entries()
}

// Done closes when the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} { return r.done }

// State returns the current run state.
func (r *Run) State() RunState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Result returns the generated project and report after a successful run.
func (r *Run) Result() (*domain.GeneratedProject, *domain.QAReport) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.project, r.report
}

// Orchestrator owns the run registry and drives each run on its own single
// sequential goroutine, so log entries stay causally ordered.
type Orchestrator struct {
	generator Generator
	qa        QAReviewer
	projects  ProjectGateway
	drafts    DraftClearer
	leads     LeadSaver
	stepper   Stepper

	// StackHints are merged into the project analysis when the generator
	// left no stack suggestion for the project type.
	StackHints map[domain.ProjectType][]string

	mu   sync.RWMutex
	runs map[string]*Run
}

// NewOrchestrator wires the pipeline collaborators.
func NewOrchestrator(gen Generator, qa QAReviewer, projects ProjectGateway, drafts DraftClearer, leads LeadSaver, stepper Stepper) *Orchestrator {
	if stepper == nil {
		stepper = NewTimedStepper()
	}
	return &Orchestrator{
		generator: gen,
		qa:        qa,
		projects:  projects,
		drafts:    drafts,
		leads:     leads,
		stepper:   stepper,
		runs:      make(map[string]*Run),
	}
}

// Start begins a run for a finalized intent and returns immediately.
func (o *Orchestrator) Start(ctx context.Context, ownerKey string, intent domain.ProjectIntent) *Run {
	run := &Run{
		ID:        uuid.New().String(),
		OwnerKey:  ownerKey,
		machine:   NewMachine(),
		state:     RunRunning,
		updatedAt: time.Now(),
		done:      make(chan struct{}),
	}
	o.mu.Lock()
	o.runs[run.ID] = run
	o.mu.Unlock()

	go o.drive(ctx, run, intent)
	return run
}

// Get returns a run by id.
func (o *Orchestrator) Get(id string) (*Run, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	run, ok := o.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return run, nil
}

// drive is the single sequential driver for one run. Stage pacing, the
// generator call, QA reconciliation and persistence all happen here in
// order; nothing else mutates the run.
func (o *Orchestrator) drive(ctx context.Context, run *Run, intent domain.ProjectIntent) {
	logger := logging.NewLogger(ctx)
	defer close(run.done)

	// lead capture is best-effort and never blocks the run
	if o.leads != nil {
		if err := o.leads.SaveLead(ctx, intent.Contact, intent.ProjectType); err != nil {
			logger.LogWarnf("pipeline", "save lead: %v", err)
		}
	}

	for {
		run.mu.RLock()
		done := run.machine.Done()
		stage := run.machine.Stage()
		run.mu.RUnlock()
		if done {
			break
		}
		if err := o.stepper.Wait(ctx, stage); err != nil {
			// abandoned mid-run: discard, never persist a partial project
			o.fail(run, "تم إلغاء العملية", err)
			return
		}
		run.mu.Lock()
		run.machine.Advance()
		run.updatedAt = time.Now()
		run.mu.Unlock()
	}

	project, err := o.generator.Generate(ctx, intent)
	if err != nil {
		// surfaced verbatim, no retry; the wizard draft is kept so the
		// user can retry without re-entering data
		o.fail(run, failureMessage(err), err)
		return
	}
	project.OwnerKey = run.OwnerKey
	o.mergeStackHints(project, intent.ProjectType)

	report := o.qa.Review(ctx, project)

	if o.projects != nil {
		if _, err := o.projects.SaveProject(ctx, project); err != nil {
			o.fail(run, failureMessage(err), err)
			return
		}
	}

	if o.drafts != nil {
		o.drafts.Clear(ctx, run.OwnerKey)
	}

	run.mu.Lock()
	run.machine.append(StagePackaging, "✅ مشروعك جاهز للتحميل!")
	run.state = RunSucceeded
	run.project = project
	run.report = report
	run.updatedAt = time.Now()
	run.mu.Unlock()
	logger.LogInfof("pipeline", "run %s finished with %d files", run.ID, len(project.Files))
}

func (o *Orchestrator) fail(run *Run, message string, err error) {
	run.mu.Lock()
	defer run.mu.Unlock()
	run.machine.Fail(message)
	run.state = RunFailed
	run.errMsg = message
	run.updatedAt = time.Now()
	logging.NewLogger(context.Background()).LogErrorf("pipeline", "run %s failed: %v", run.ID, err)
}

func (o *Orchestrator) mergeStackHints(p *domain.GeneratedProject, t domain.ProjectType) {
	hints, ok := o.StackHints[t]
	if !ok {
		return
	}
	if p.Analysis == nil {
		p.Analysis = map[string]any{}
	}
	if _, exists := p.Analysis["suggested_stack"]; !exists {
		p.Analysis["suggested_stack"] = hints
	}
}

func failureMessage(err error) string {
	var f *domain.Failure
	if errors.As(err, &f) {
		return f.Message
	}
	return err.Error()
}
