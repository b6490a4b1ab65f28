package entity

// StageState represents the lifecycle state of one pipeline stage
type StageState string

const (
	StageStateNotStarted StageState = "NOT_STARTED"
	StageStateInProgress StageState = "IN_PROGRESS"
	StageStateDone       StageState = "DONE"
	StageStateSkipped    StageState = "SKIPPED"
	StageStateError      StageState = "ERROR"
)

// StageDTO is one entry of the progress report sent back to the platform
type StageDTO struct {
	Name    string     `json:"name"`
	Weight  int        `json:"weight"`
	State   StageState `json:"state"`
	Message string     `json:"message,omitempty"`
}

// StatusUpdateDTO is the payload of one status callback. Result is only set
// on the final update of a successful run.
type StatusUpdateDTO struct {
	Stages []StageDTO   `json:"stages"`
	Result string       `json:"result,omitempty"`
	Tokens []TokenUsage `json:"tokens,omitempty"`
}
