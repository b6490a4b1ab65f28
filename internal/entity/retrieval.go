package entity

// PassageProperties is the fixed set of lecture-chunk properties returned by
// the vector store. Keys are part of the downstream prompt-assembly contract.
type PassageProperties struct {
	PageTextContent      string `json:"page_text_content"`
	PageImageDescription string `json:"page_image_description"`
	CourseName           string `json:"course_name"`
	LectureName          string `json:"lecture_name"`
	PageNumber           int    `json:"page_number"`
	CourseID             int64  `json:"course_id,omitempty"`
	LectureID            int64  `json:"lecture_id,omitempty"`
	CourseLanguage       string `json:"course_language,omitempty"`
}

// RetrievalChunk is one indexed lecture passage. Two chunks with the same ID
// are the same underlying passage regardless of which retrieval path found it.
type RetrievalChunk struct {
	ID         string
	Properties PassageProperties
}

// RetrievalQuery carries everything one lecture-retrieval invocation needs.
// CourseID == 0 means no course filter is applied.
type RetrievalQuery struct {
	ChatHistory      []ChatMessage
	StudentQuery     string
	CourseName       string
	CourseID         int64
	ProblemStatement string
	ExerciseTitle    string
	ResultLimit      int
	HybridAlpha      float64
}

// HybridSearchRequest is one keyword/vector blended query against the
// lecture index. CourseID == 0 means no course filter.
type HybridSearchRequest struct {
	QueryText   string
	QueryVector []float32
	Alpha       float64
	Limit       int
	CourseID    int64
}

// CompletionArguments configures one chat-completion call
type CompletionArguments struct {
	Temperature  float64
	MaxTokens    int
	JSONResponse bool
}
