package tools_test

import (
	"context"
	"errors"
	"testing"

	"github.com/petasbytes/course-agent/internal/retrieval"
	"github.com/petasbytes/course-agent/tools"
)

type fakeCatalog struct {
	resolved   string
	resolveErr error
	course     *retrieval.Course
	courseErr  error
}

func (f *fakeCatalog) ResolveCourseName(context.Context, string) (string, bool, error) {
	return f.resolved, f.resolved != "", f.resolveErr
}

func (f *fakeCatalog) Course(context.Context, string) (*retrieval.Course, error) {
	return f.course, f.courseErr
}

func TestCourseOutline_Formats(t *testing.T) {
	cat := &fakeCatalog{
		resolved: "Test Course",
		course: &retrieval.Course{
			Title:      "Test Course",
			Instructor: "Test Instructor",
			Link:       "https://example.com/course",
			Lessons: []retrieval.Lesson{
				{Number: 1, Title: "Intro", Link: "https://example.com/lesson1"},
				{Number: 2, Title: "Deep Dive"},
			},
		},
	}
	res, err := tools.NewCourseOutlineTool(cat).Execute(context.Background(), map[string]any{"course_title": "test"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := "**Course:** Test Course\n" +
		"**Instructor:** Test Instructor\n" +
		"**Course Link:** https://example.com/course\n" +
		"\n**Lessons (2 total):**\n" +
		"1. Intro (https://example.com/lesson1)\n" +
		"2. Deep Dive"
	if res.Failed() || res.Content() != want {
		t.Fatalf("content = %q", res.Content())
	}
	if len(res.Citations()) != 0 {
		t.Fatalf("outline should not cite")
	}
}

func TestCourseOutline_NotFound(t *testing.T) {
	res, _ := tools.NewCourseOutlineTool(&fakeCatalog{}).Execute(context.Background(), map[string]any{"course_title": "Nonexistent Course"})
	if res.Failed() || res.Content() != "No course found matching 'Nonexistent Course'" {
		t.Fatalf("got failed=%v %q", res.Failed(), res.Content())
	}
}

func TestCourseOutline_CatalogErrors(t *testing.T) {
	res, _ := tools.NewCourseOutlineTool(&fakeCatalog{resolveErr: errors.New("down")}).Execute(context.Background(), map[string]any{"course_title": "x"})
	if !res.Failed() || res.Content() != "Outline error: down" {
		t.Fatalf("resolve error: %q", res.Content())
	}
	res, _ = tools.NewCourseOutlineTool(&fakeCatalog{resolved: "X", courseErr: retrieval.ErrCourseNotFound}).Execute(context.Background(), map[string]any{"course_title": "x"})
	if !res.Failed() || res.Content() != "Outline error: course not found" {
		t.Fatalf("course error: %q", res.Content())
	}
}

func TestCourseOutline_SchemaRequiresTitle(t *testing.T) {
	def := tools.NewCourseOutlineTool(&fakeCatalog{}).Definition()
	if def.Name != "get_course_outline" {
		t.Fatalf("name = %q", def.Name)
	}
	if len(def.InputSchema.Required) != 1 || def.InputSchema.Required[0] != "course_title" {
		t.Fatalf("required = %v", def.InputSchema.Required)
	}
}
