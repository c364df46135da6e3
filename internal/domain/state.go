package domain

import (
	"slices"
	"time"
)

type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseAnalyzing    Phase = "analyzing"
	PhasePlanning     Phase = "planning"
	PhaseCreating     Phase = "creating"
	PhaseRepurposing  Phase = "repurposing"
	PhaseValidating   Phase = "validating"
	PhasePublishing   Phase = "publishing"
	PhaseMonitoring   Phase = "monitoring"
	PhaseCompleted    Phase = "completed"
	PhaseFailed       Phase = "failed"
	PhasePaused       Phase = "paused"
)

func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

type Stage string

const (
	StageAnalyzeLandscape Stage = "analyze_landscape"
	StageGenerateStrategy Stage = "generate_strategy"
	StageCreateContent    Stage = "create_content"
	StageRepurpose        Stage = "repurpose_content"
	StageValidate         Stage = "validate_content"
	StagePublish          Stage = "publish_content"
	StageSetupMonitoring  Stage = "setup_monitoring"
)

// Stages is the fixed execution order.
var Stages = []Stage{
	StageAnalyzeLandscape,
	StageGenerateStrategy,
	StageCreateContent,
	StageRepurpose,
	StageValidate,
	StagePublish,
	StageSetupMonitoring,
}

func (s Stage) Phase() Phase {
	switch s {
	case StageAnalyzeLandscape:
		return PhaseAnalyzing
	case StageGenerateStrategy:
		return PhasePlanning
	case StageCreateContent:
		return PhaseCreating
	case StageRepurpose:
		return PhaseRepurposing
	case StageValidate:
		return PhaseValidating
	case StagePublish:
		return PhasePublishing
	case StageSetupMonitoring:
		return PhaseMonitoring
	default:
		return PhaseInitializing
	}
}

func (s Stage) Label() string {
	switch s {
	case StageAnalyzeLandscape:
		return "Analyzing market landscape"
	case StageGenerateStrategy:
		return "Generating marketing strategy"
	case StageCreateContent:
		return "Creating content"
	case StageRepurpose:
		return "Repurposing content for platforms"
	case StageValidate:
		return "Validating content"
	case StagePublish:
		return "Publishing content"
	case StageSetupMonitoring:
		return "Setting up monitoring"
	default:
		return string(s)
	}
}

// Progress checkpoints. Item-based stages interpolate between the previous
// checkpoint and their own.
const (
	ProgressLandscape    = 15
	ProgressStrategy     = 30
	ProgressContentEnd   = 45
	ProgressRepurposeEnd = 65
	ProgressValidation   = 75
	ProgressPublishEnd   = 95
	ProgressComplete     = 100
)

type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Stage     Stage     `json:"stage,omitempty"`
	Message   string    `json:"message"`
}

type Metrics struct {
	ContentCreated    int     `json:"content_created"`
	ContentRepurposed int     `json:"content_repurposed"`
	ContentPublished  int     `json:"content_published"`
	PublishAttempts   int     `json:"publish_attempts"`
	PublishFailures   int     `json:"publish_failures"`
	EstimatedReach    int64   `json:"estimated_reach"`
	BudgetUsed        float64 `json:"budget_used"`
	BudgetRemaining   float64 `json:"budget_remaining"`
}

// Cursor records how many items of Stage have been fully processed.
type Cursor struct {
	Stage Stage `json:"stage,omitempty"`
	Item  int   `json:"item"`
}

type OrchestrationState struct {
	CampaignID          string     `json:"campaign_id"`
	ProfileID           string     `json:"profile_id"`
	Phase               Phase      `json:"phase"`
	Progress            int        `json:"progress"`
	CurrentStep         string     `json:"current_step"`
	StepsCompleted      []Stage    `json:"steps_completed"`
	StepsRemaining      []Stage    `json:"steps_remaining"`
	StartedAt           time.Time  `json:"started_at"`
	EstimatedCompletion *time.Time `json:"estimated_completion,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
	AwaitingApproval    bool       `json:"awaiting_approval"`
	Cursor              Cursor     `json:"cursor"`
	Metrics             Metrics    `json:"metrics"`
	Log                 []LogEntry `json:"log"`
}

func NewOrchestrationState(campaignID, profileID string, budget float64, now time.Time) OrchestrationState {
	return OrchestrationState{
		CampaignID:     campaignID,
		ProfileID:      profileID,
		Phase:          PhaseAnalyzing,
		Progress:       0,
		CurrentStep:    StageAnalyzeLandscape.Label(),
		StepsCompleted: []Stage{},
		StepsRemaining: slices.Clone(Stages),
		StartedAt:      now,
		UpdatedAt:      now,
		Metrics:        Metrics{BudgetRemaining: budget},
		Log:            []LogEntry{},
	}
}

// CampaignStatus is the fixed projection of phase onto campaign status.
func (s OrchestrationState) CampaignStatus() CampaignStatus {
	if s.AwaitingApproval {
		return CampaignStatusPaused
	}
	switch s.Phase {
	case PhaseCompleted:
		return CampaignStatusActive
	case PhaseFailed:
		return CampaignStatusFailed
	case PhasePaused:
		return CampaignStatusPaused
	default:
		return CampaignStatusGenerating
	}
}

// Resumable reports whether no driver is expected to own the campaign.
func (s OrchestrationState) Resumable() bool {
	return s.AwaitingApproval || s.Phase == PhasePaused || s.Phase == PhaseFailed
}

func (s OrchestrationState) StageCompleted(stage Stage) bool {
	return slices.Contains(s.StepsCompleted, stage)
}

// NextStage returns the first stage in execution order that has not completed.
func (s OrchestrationState) NextStage() (Stage, bool) {
	for _, stage := range Stages {
		if !s.StageCompleted(stage) {
			return stage, true
		}
	}
	return "", false
}

// BeginStage moves the cursor onto stage, keeping the item offset when the
// stage is being re-entered after a pause.
func (s *OrchestrationState) BeginStage(stage Stage, now time.Time) {
	s.Phase = stage.Phase()
	s.CurrentStep = stage.Label()
	if s.Cursor.Stage != stage {
		s.Cursor = Cursor{Stage: stage}
	}
	s.UpdatedAt = now
}

func (s *OrchestrationState) CompleteStage(stage Stage, progress int, now time.Time) {
	if !s.StageCompleted(stage) {
		s.StepsCompleted = append(s.StepsCompleted, stage)
	}
	s.StepsRemaining = slices.DeleteFunc(s.StepsRemaining, func(item Stage) bool { return item == stage })
	s.SetProgress(progress)
	s.Cursor = Cursor{}
	s.UpdatedAt = now
}

// SetProgress never moves progress backwards.
func (s *OrchestrationState) SetProgress(progress int) {
	if progress > ProgressComplete {
		progress = ProgressComplete
	}
	if progress > s.Progress {
		s.Progress = progress
	}
}

func (s *OrchestrationState) AdvanceItem(progress int, now time.Time) {
	s.Cursor.Item++
	s.SetProgress(progress)
	s.UpdatedAt = now
}

// AppendLog appends entry and keeps at most window entries in the snapshot.
// A window <= 0 keeps everything.
func (s *OrchestrationState) AppendLog(entry LogEntry, window int) {
	s.Log = append(s.Log, entry)
	if window > 0 && len(s.Log) > window {
		s.Log = slices.Clone(s.Log[len(s.Log)-window:])
	}
}

func (s *OrchestrationState) RecordSpend(total, allocated float64) {
	if total > s.Metrics.BudgetUsed {
		s.Metrics.BudgetUsed = total
	}
	remaining := allocated - s.Metrics.BudgetUsed
	if remaining < 0 {
		remaining = 0
	}
	s.Metrics.BudgetRemaining = remaining
}

func (s OrchestrationState) Clone() OrchestrationState {
	out := s
	out.StepsCompleted = slices.Clone(s.StepsCompleted)
	out.StepsRemaining = slices.Clone(s.StepsRemaining)
	out.Log = slices.Clone(s.Log)
	if s.EstimatedCompletion != nil {
		at := *s.EstimatedCompletion
		out.EstimatedCompletion = &at
	}
	return out
}

// Interpolate maps done/total onto [from, to]. An empty range lands on to.
func Interpolate(from, to, done, total int) int {
	if total <= 0 {
		return to
	}
	if done > total {
		done = total
	}
	return from + (to-from)*done/total
}
