package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/petasbytes/course-agent/internal/provider"
	"github.com/petasbytes/course-agent/internal/retrieval"
)

// Searcher finds passages and resolves lesson links for citations.
type Searcher interface {
	Search(ctx context.Context, q retrieval.Query) ([]retrieval.Passage, error)
	LessonLink(ctx context.Context, course string, lesson int) (string, bool, error)
}

type SearchContentInput struct {
	Query        string `json:"query" jsonschema_description:"What to search for in the course content."`
	CourseName   string `json:"course_name,omitempty" jsonschema_description:"Course title; partial matches work (e.g. 'MCP', 'Introduction')."`
	LessonNumber *int   `json:"lesson_number,omitempty" jsonschema_description:"Specific lesson number to search within (e.g. 1, 2, 3)."`
}

const SearchContentName = "search_course_content"

var SearchContentInputSchema = GenerateSchema[SearchContentInput]()

// SearchContentTool searches course material, optionally filtered by course
// and lesson, and cites every passage it returns.
type SearchContentTool struct {
	store Searcher
}

func NewSearchContentTool(store Searcher) *SearchContentTool {
	return &SearchContentTool{store: store}
}

func (t *SearchContentTool) Definition() provider.ToolDefinition {
	return provider.ToolDefinition{
		Name:        SearchContentName,
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: SearchContentInputSchema,
	}
}

func (t *SearchContentTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	var in SearchContentInput
	if err := decodeArgs(args, &in); err != nil {
		return Result{}, err
	}

	passages, err := t.store.Search(ctx, retrieval.Query{
		Text:         in.Query,
		CourseName:   in.CourseName,
		LessonNumber: in.LessonNumber,
	})
	if err != nil {
		return Failed("Search error: " + err.Error()), nil
	}

	if len(passages) == 0 {
		msg := "No relevant content found"
		if in.CourseName != "" {
			msg += fmt.Sprintf(" in course '%s'", in.CourseName)
		}
		if in.LessonNumber != nil {
			msg += fmt.Sprintf(" in lesson %d", *in.LessonNumber)
		}
		return OK(msg + "."), nil
	}

	parts := make([]string, 0, len(passages))
	cites := make([]Citation, 0, len(passages))
	for _, p := range passages {
		label := p.CourseTitle
		link := ""
		if p.LessonNumber != nil {
			label = fmt.Sprintf("%s - Lesson %d", p.CourseTitle, *p.LessonNumber)
			// A missing link only leaves the citation unlinked.
			if l, ok, err := t.store.LessonLink(ctx, p.CourseTitle, *p.LessonNumber); err == nil && ok {
				link = l
			}
		}
		parts = append(parts, fmt.Sprintf("[%s]\n%s", label, p.Text))
		cites = append(cites, Citation{Label: label, Link: link})
	}
	return OK(strings.Join(parts, "\n\n"), cites...), nil
}
