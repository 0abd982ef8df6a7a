package retrieval

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk layout of a course catalog:
//
//	courses:
//	  - title: Building RAG Apps
//	    instructor: Jane Doe
//	    link: https://example.com/rag
//	    lessons:
//	      - number: 1
//	        title: Introduction
//	        link: https://example.com/rag/1
//	        chunks: ["...", "..."]
type catalogFile struct {
	Courses []Course `yaml:"courses"`
}

// LoadCatalog reads a YAML catalog. A missing file yields no courses and no error.
func LoadCatalog(path string) ([]Course, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for i := range f.Courses {
		if err := f.Courses[i].Validate(); err != nil {
			return nil, fmt.Errorf("catalog %s: course %d: %w", path, i, err)
		}
	}
	return f.Courses, nil
}

// Loader is implemented by stores that accept catalog entries.
type Loader interface {
	AddCourse(ctx context.Context, c Course) error
}

// LoadInto reads the catalog at path and adds every course to dst. It returns
// the number of courses loaded.
func LoadInto(ctx context.Context, dst Loader, path string) (int, error) {
	courses, err := LoadCatalog(path)
	if err != nil {
		return 0, err
	}
	for _, c := range courses {
		if err := dst.AddCourse(ctx, c); err != nil {
			return 0, fmt.Errorf("add course %q: %w", c.Title, err)
		}
	}
	return len(courses), nil
}
