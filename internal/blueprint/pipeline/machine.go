// Package pipeline runs the simulated build pipeline: a strictly ordered
// stage machine narrating progress, driven by a single sequential driver
// that invokes the Generator and QA collaborators on completion.
package pipeline

import (
	"time"
)

// Stage is one phase of the build narrative.
type Stage int

const (
	StageAnalysis Stage = iota
	StageStructure
	StageCoding
	StageQA
	StagePackaging
	StageDone
)

// Label returns the stable wire label for a stage.
func (s Stage) Label() string {
	switch s {
	case StageAnalysis:
		return "analysis"
	case StageStructure:
		return "structure"
	case StageCoding:
		return "coding"
	case StageQA:
		return "qa"
	case StagePackaging:
		return "packaging"
	case StageDone:
		return "done"
	}
	return "unknown"
}

// stageTitles is the user-facing narration for each stage.
var stageTitles = map[Stage]string{
	StageAnalysis:  "تحليل المتطلبات وهندسة البرومبتات",
	StageStructure: "بناء هيكل المجلدات والملفات",
	StageCoding:    "توليد الكود البرمجي (AI Coding)",
	StageQA:        "فحص الجودة والمعايير",
	StagePackaging: "تجهيز ملف الـ ZIP والوثائق",
}

// qaSubMessages is the scripted QA narration emitted before the QA stage
// completes. It paces the UI; it is not derived from real analysis.
var qaSubMessages = []string{
	"فحص جودة الكود (Lint Check)...",
	"فحص الثغرات الأمنية الأساسية...",
	"اكتمل فحص الجودة بنجاح",
}

// VisibleLogWindow bounds how many trailing entries a snapshot exposes.
// The full log is kept; only the visible window is bounded.
const VisibleLogWindow = 5

// LogEntry is one appended line of the pipeline log.
type LogEntry struct {
	Seq     int       `json:"seq"`
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Machine is the pure stage state machine. It owns no timers and no
// goroutines; the driver advances it. Not safe for concurrent use; the
// driver serializes all access.
type Machine struct {
	stage Stage
	seq   int
	log   []LogEntry
}

// NewMachine starts a machine at the analysis stage with the opening
// narration already logged.
func NewMachine() *Machine {
	m := &Machine{stage: StageAnalysis}
	m.append(StageAnalysis, "🚀 بدأ وكيل البرمجة العمل على مشروعك...")
	m.append(StageAnalysis, "جاري تنفيذ: "+stageTitles[StageAnalysis]+"...")
	return m
}

func (m *Machine) append(s Stage, msg string) {
	m.seq++
	m.log = append(m.log, LogEntry{Seq: m.seq, Stage: s.Label(), Message: msg, At: time.Now()})
}

// Stage returns the current stage.
func (m *Machine) Stage() Stage { return m.stage }

// Done reports whether the machine reached its terminal stage.
func (m *Machine) Done() bool { return m.stage == StageDone }

// Advance completes the current stage and enters the next one, appending the
// narration for both. The QA stage additionally emits its scripted
// sub-messages before completing. Advancing a done machine is a no-op.
func (m *Machine) Advance() Stage {
	if m.stage == StageDone {
		return m.stage
	}
	if m.stage == StageQA {
		for _, msg := range qaSubMessages {
			m.append(StageQA, msg)
		}
	}
	m.append(m.stage, "✅ اكتملت مرحلة "+stageTitles[m.stage])
	m.stage++
	if m.stage != StageDone {
		m.append(m.stage, "جاري تنفيذ: "+stageTitles[m.stage]+"...")
	}
	return m.stage
}

// Fail appends a terminal error line without advancing the stage order.
// Failures after the narrative finished are logged under packaging so the
// stage labels never go past the fixed order.
func (m *Machine) Fail(message string) {
	s := m.stage
	if s == StageDone {
		s = StagePackaging
	}
	m.append(s, "❌ "+message)
}

// Entries returns a copy of the full log.
func (m *Machine) Entries() []LogEntry {
	out := make([]LogEntry, len(m.log))
	copy(out, m.log)
	return out
}

// Visible returns the last VisibleLogWindow entries.
func (m *Machine) Visible() []LogEntry {
	start := len(m.log) - VisibleLogWindow
	if start < 0 {
		start = 0
	}
	out := make([]LogEntry, len(m.log)-start)
	copy(out, m.log[start:])
	return out
}
