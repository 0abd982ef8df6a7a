package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/petasbytes/course-agent/internal/provider"
	"github.com/petasbytes/course-agent/internal/retrieval"
)

// CourseCatalog resolves partial course names and returns course metadata.
type CourseCatalog interface {
	ResolveCourseName(ctx context.Context, partial string) (string, bool, error)
	Course(ctx context.Context, title string) (*retrieval.Course, error)
}

type CourseOutlineInput struct {
	CourseTitle string `json:"course_title" jsonschema_description:"Course title; partial matches work (e.g. 'MCP', 'Introduction')."`
}

const CourseOutlineName = "get_course_outline"

var CourseOutlineInputSchema = GenerateSchema[CourseOutlineInput]()

type CourseOutlineTool struct {
	catalog CourseCatalog
}

func NewCourseOutlineTool(catalog CourseCatalog) *CourseOutlineTool {
	return &CourseOutlineTool{catalog: catalog}
}

func (t *CourseOutlineTool) Definition() provider.ToolDefinition {
	return provider.ToolDefinition{
		Name:        CourseOutlineName,
		Description: "Get the complete outline of a course: title, instructor, course link and every lesson with its number, title and link",
		InputSchema: CourseOutlineInputSchema,
	}
}

func (t *CourseOutlineTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	var in CourseOutlineInput
	if err := decodeArgs(args, &in); err != nil {
		return Result{}, err
	}

	title, ok, err := t.catalog.ResolveCourseName(ctx, in.CourseTitle)
	if err != nil {
		return Failed("Outline error: " + err.Error()), nil
	}
	if !ok {
		return OK(fmt.Sprintf("No course found matching '%s'", in.CourseTitle)), nil
	}
	course, err := t.catalog.Course(ctx, title)
	if err != nil {
		return Failed("Outline error: " + err.Error()), nil
	}
	return OK(formatOutline(course)), nil
}

func formatOutline(c *retrieval.Course) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Course:** %s\n", c.Title)
	if c.Instructor != "" {
		fmt.Fprintf(&b, "**Instructor:** %s\n", c.Instructor)
	}
	if c.Link != "" {
		fmt.Fprintf(&b, "**Course Link:** %s\n", c.Link)
	}
	fmt.Fprintf(&b, "\n**Lessons (%d total):**\n", len(c.Lessons))
	for _, l := range c.Lessons {
		if l.Link != "" {
			fmt.Fprintf(&b, "%d. %s (%s)\n", l.Number, l.Title, l.Link)
		} else {
			fmt.Fprintf(&b, "%d. %s\n", l.Number, l.Title)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
