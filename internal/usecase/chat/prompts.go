package chat

import (
	"fmt"
	"strings"

	"github.com/studiumlab/tutor-backend/internal/entity"
)

const exerciseDraftPromptTemplate = `You are an AI tutor helping a student with a programming exercise on a
university learning platform.

Exercise: %s
Problem statement:
%s
%s
Relevant lecture material:
%s

Write a direct, technically precise answer to the student's latest question,
using the exercise context and the lecture material above.`

const exerciseGuidePromptTemplate = `You are an AI tutor. Below is a draft answer to a student's question about a
programming exercise. Rewrite it into a guiding response: do not hand over
complete solutions, lead the student towards the solution with explanations,
hints and questions instead. Keep every technical fact of the draft that the
student needs.

Draft answer:
%s`

const lectureAnswerPromptTemplate = `You are an AI tutor on a university learning platform, answering questions
about the course %s.

Relevant lecture material:
%s

Answer the student's latest question using the lecture material above. When
the material does not cover the question, say so instead of guessing.`

const noPassagesPlaceholder = "(no lecture material was found for this question)"

func formatPassages(passages []entity.PassageProperties) string {
	if len(passages) == 0 {
		return noPassagesPlaceholder
	}
	var b strings.Builder
	for _, p := range passages {
		fmt.Fprintf(&b, "- %s, page %d: %s", p.LectureName, p.PageNumber, strings.TrimSpace(p.PageTextContent))
		if desc := strings.TrimSpace(p.PageImageDescription); desc != "" {
			fmt.Fprintf(&b, " [slide image: %s]", desc)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// formatBuildContext renders the submission's build failure for the prompt.
// Returns "" when there is nothing useful to show.
func formatBuildContext(submission *entity.SubmissionDTO) string {
	if submission == nil || !submission.BuildFailed {
		return ""
	}
	var b strings.Builder
	b.WriteString("The student's latest submission failed to build. Build log:\n")
	for _, entry := range submission.BuildLogEntries {
		fmt.Fprintf(&b, "\t%s\n", entry.Message)
	}
	return b.String()
}
