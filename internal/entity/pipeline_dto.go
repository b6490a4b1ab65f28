package entity

// PipelineSettings carries the per-run callback credentials of the platform
type PipelineSettings struct {
	AuthenticationToken string `json:"authenticationToken"`
	PlatformBaseURL     string `json:"platformBaseUrl"`
}

type CourseDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type ExerciseDTO struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	ProblemStatement    string `json:"problemStatement"`
	ProgrammingLanguage string `json:"programmingLanguage,omitempty"`
}

type BuildLogEntryDTO struct {
	Time    string `json:"time,omitempty"`
	Message string `json:"message"`
}

// SubmissionDTO is the student's latest submission, when one exists
type SubmissionDTO struct {
	ID              int64              `json:"id"`
	Repository      map[string]string  `json:"repository,omitempty"`
	BuildFailed     bool               `json:"buildFailed"`
	BuildLogEntries []BuildLogEntryDTO `json:"buildLogEntries,omitempty"`
}

// ExerciseChatPipelineExecutionDTO is the execution context for the
// exercise-grounded tutor pipeline
type ExerciseChatPipelineExecutionDTO struct {
	Settings    PipelineSettings `json:"settings"`
	Course      CourseDTO        `json:"course"`
	Exercise    ExerciseDTO      `json:"exercise"`
	Submission  *SubmissionDTO   `json:"submission,omitempty"`
	ChatHistory []ChatMessage    `json:"chatHistory"`
}

// LectureChatPipelineExecutionDTO is the execution context for the
// lecture-grounded pipeline branch
type LectureChatPipelineExecutionDTO struct {
	Settings    PipelineSettings `json:"settings"`
	Course      CourseDTO        `json:"course"`
	ChatHistory []ChatMessage    `json:"chatHistory"`
}
