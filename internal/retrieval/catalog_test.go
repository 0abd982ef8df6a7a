package retrieval_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/course-agent/internal/retrieval"
)

const catalogYAML = `
courses:
  - title: Building RAG Apps
    instructor: Jane Doe
    link: https://example.com/rag
    lessons:
      - number: 1
        title: Introduction
        link: https://example.com/rag/1
        chunks:
          - Retrieval augmented generation combines search with a model.
      - number: 2
        title: Chunking
        chunks: ["Chunking splits documents."]
`

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "courses.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadCatalog(t *testing.T) {
	courses, err := retrieval.LoadCatalog(writeFile(t, catalogYAML))
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Jane Doe", courses[0].Instructor)
	require.Len(t, courses[0].Lessons, 2)
	assert.Equal(t, []string{"Chunking splits documents."}, courses[0].Lessons[1].Chunks)
}

func TestLoadCatalog_MissingFileIsEmpty(t *testing.T) {
	courses, err := retrieval.LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestLoadCatalog_RejectsDuplicateLessons(t *testing.T) {
	body := `
courses:
  - title: X
    lessons:
      - {number: 1, title: a}
      - {number: 1, title: b}
`
	_, err := retrieval.LoadCatalog(writeFile(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate lesson number 1")
}

func TestLoadInto(t *testing.T) {
	s := retrieval.NewMemoryStore(5)
	n, err := retrieval.LoadInto(context.Background(), s, writeFile(t, catalogYAML))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	titles, _ := s.CourseTitles(context.Background())
	assert.Equal(t, []string{"Building RAG Apps"}, titles)
}
