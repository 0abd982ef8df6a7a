package retrieval

import (
	"errors"
	"fmt"
)

// ErrCourseNotFound is returned by Course when no course has the given title.
var ErrCourseNotFound = errors.New("course not found")

// Query is a content search with optional course and lesson filters.
type Query struct {
	Text         string
	CourseName   string // resolved to a canonical title before filtering
	LessonNumber *int
}

// Passage is one matched chunk of course material.
type Passage struct {
	Text         string
	CourseTitle  string
	LessonNumber *int
	Score        float64
}

// Lesson belongs to exactly one Course.
type Lesson struct {
	Number int    `yaml:"number" json:"number"`
	Title  string `yaml:"title" json:"title"`
	Link   string `yaml:"link,omitempty" json:"link,omitempty"`
	// Chunks are pre-split passages of the lesson transcript.
	Chunks []string `yaml:"chunks,omitempty" json:"-"`
}

// Course is the catalog entry for one course.
type Course struct {
	Title      string   `yaml:"title" json:"title"`
	Instructor string   `yaml:"instructor,omitempty" json:"instructor,omitempty"`
	Link       string   `yaml:"link,omitempty" json:"link,omitempty"`
	Lessons    []Lesson `yaml:"lessons" json:"lessons"`
}

// Lesson returns the lesson with number n.
func (c *Course) Lesson(n int) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.Number == n {
			return l, true
		}
	}
	return Lesson{}, false
}

// Validate checks the fields the stores rely on.
func (c *Course) Validate() error {
	if c.Title == "" {
		return fmt.Errorf("course title cannot be empty")
	}
	seen := make(map[int]struct{}, len(c.Lessons))
	for i, l := range c.Lessons {
		if _, dup := seen[l.Number]; dup {
			return fmt.Errorf("course %q: duplicate lesson number %d at index %d", c.Title, l.Number, i)
		}
		seen[l.Number] = struct{}{}
	}
	return nil
}
