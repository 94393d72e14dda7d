package models

// StepStatus is the state of a thinking step.
//
// Valid transitions: pending -> in-progress -> completed | failed.
// completed and failed are terminal.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in-progress"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
)

// Terminal reports whether no further status transitions are allowed.
func (s StepStatus) Terminal() bool {
	return s == StepCompleted || s == StepFailed
}

// SubItemType classifies a step artifact.
type SubItemType string

const (
	SubItemSearchResult  SubItemType = "search_result"
	SubItemFileWrite     SubItemType = "file_write"
	SubItemAPICall       SubItemType = "api_call"
	SubItemCodeExecution SubItemType = "code_execution"
)

// StepSubItem is a previewable artifact referenced by a thinking step,
// e.g. a search result or the arguments of an API call.
type StepSubItem struct {
	ID          string      `json:"id"`
	Type        SubItemType `json:"type"`
	Title       string      `json:"title"`
	Source      string      `json:"source,omitempty"`
	Content     string      `json:"content,omitempty"`
	Previewable bool        `json:"previewable"`
}

// ThinkingStep is one visible unit of agent reasoning or tool use.
// Steps are keyed by ID: an incoming step sharing an existing ID replaces
// that entry in place, so a tool call transitioning from in-progress to
// completed stays a single timeline entry.
type ThinkingStep struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Status   StepStatus    `json:"status"`
	Content  string        `json:"content,omitempty"`
	Group    string        `json:"group,omitempty"`
	SubItems []StepSubItem `json:"sub_items,omitempty"`
}

// StepGroup is a run of consecutive steps sharing the same non-empty
// group label, or a single ungrouped step.
type StepGroup struct {
	Label string
	Steps []ThinkingStep
}

// GroupSteps clusters steps for rendering. Grouping is positional: a run
// breaks as soon as an ungrouped step or a different label intervenes, so
// two non-adjacent steps with the same label form separate clusters.
func GroupSteps(steps []ThinkingStep) []StepGroup {
	var groups []StepGroup
	for _, step := range steps {
		n := len(groups)
		if step.Group != "" && n > 0 && groups[n-1].Label == step.Group {
			groups[n-1].Steps = append(groups[n-1].Steps, step)
			continue
		}
		groups = append(groups, StepGroup{Label: step.Group, Steps: []ThinkingStep{step}})
	}
	return groups
}
