// Package lessongen writes narrated lessons for a problem and answers the
// questions asked while one plays.
package lessongen

import (
	"github.com/abhisek/doceo/internal/lesson"
	"github.com/abhisek/doceo/internal/llm"
)

// Problem is what the learner wants explained.
type Problem struct {
	Text    string
	Subject string

	// Image is an optional photo or scan of the problem.
	Image *llm.Image
}

// Lesson is a generated lesson ready to stream.
type Lesson struct {
	Title   string
	Subject string
	Steps   []*lesson.Step

	// Fallback is set when the built-in lesson was substituted because
	// generation failed.
	Fallback bool
}

// ChatTurn is one message of a question thread.
type ChatTurn struct {
	Role    string `json:"role" yaml:"role"`
	Message string `json:"message" yaml:"message"`
}

// Answer is the tutor's reply to a question.
type Answer struct {
	Role        string             `json:"role" yaml:"role"`
	Message     string             `json:"message" yaml:"message"`
	Narration   string             `json:"narration,omitempty" yaml:"narration"`
	MathBlocks  []lesson.MathBlock `json:"math_blocks" yaml:"math_blocks"`
	RelatedStep *int               `json:"related_step,omitempty" yaml:"related_step"`
}

// Chat roles.
const (
	RoleStudent = "student"
	RoleTutor   = "tutor"
)
