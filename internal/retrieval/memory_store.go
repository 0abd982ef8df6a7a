package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// MemoryStore keeps the catalog in process and scores passages by query-term
// overlap. It is meant for small catalogs and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	courses    []Course
	byTitle    map[string]int // lower-cased title -> index into courses
	maxResults int
}

// NewMemoryStore returns an empty store returning at most maxResults passages
// per search. maxResults <= 0 makes every search come back empty.
func NewMemoryStore(maxResults int) *MemoryStore {
	return &MemoryStore{byTitle: make(map[string]int), maxResults: maxResults}
}

// AddCourse inserts or replaces a course by title.
func (s *MemoryStore) AddCourse(_ context.Context, c Course) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(c.Title)
	if i, ok := s.byTitle[key]; ok {
		s.courses[i] = c
		return nil
	}
	s.byTitle[key] = len(s.courses)
	s.courses = append(s.courses, c)
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, q Query) ([]Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	course := ""
	if q.CourseName != "" {
		title, ok, _ := s.ResolveCourseName(ctx, q.CourseName)
		if !ok {
			return nil, fmt.Errorf("No course found matching '%s'", q.CourseName)
		}
		course = title
	}
	if s.maxResults <= 0 {
		return nil, nil
	}

	terms := tokenize(q.Text)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Passage
	for _, c := range s.courses {
		if course != "" && c.Title != course {
			continue
		}
		for _, l := range c.Lessons {
			if q.LessonNumber != nil && l.Number != *q.LessonNumber {
				continue
			}
			for _, chunk := range l.Chunks {
				score := overlap(terms, chunk)
				if score == 0 {
					continue
				}
				n := l.Number
				out = append(out, Passage{Text: chunk, CourseTitle: c.Title, LessonNumber: &n, Score: score})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > s.maxResults {
		out = out[:s.maxResults]
	}
	return out, nil
}

// ResolveCourseName matches case-insensitively: exact title first, then the
// first title containing partial (or contained in it), in catalog order.
func (s *MemoryStore) ResolveCourseName(_ context.Context, partial string) (string, bool, error) {
	p := strings.ToLower(strings.TrimSpace(partial))
	if p == "" {
		return "", false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.byTitle[p]; ok {
		return s.courses[i].Title, true, nil
	}
	for _, c := range s.courses {
		t := strings.ToLower(c.Title)
		if strings.Contains(t, p) || strings.Contains(p, t) {
			return c.Title, true, nil
		}
	}
	return "", false, nil
}

func (s *MemoryStore) LessonLink(_ context.Context, course string, lesson int) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byTitle[strings.ToLower(course)]
	if !ok {
		return "", false, nil
	}
	l, ok := s.courses[i].Lesson(lesson)
	if !ok || l.Link == "" {
		return "", false, nil
	}
	return l.Link, true, nil
}

func (s *MemoryStore) Course(_ context.Context, title string) (*Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byTitle[strings.ToLower(title)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, title)
	}
	c := s.courses[i]
	return &c, nil
}

func (s *MemoryStore) CourseTitles(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	titles := make([]string, 0, len(s.courses))
	for _, c := range s.courses {
		titles = append(titles, c.Title)
	}
	return titles, nil
}

// tokenize lower-cases s and splits it on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// overlap is the fraction of distinct query terms present in text.
func overlap(terms []string, text string) float64 {
	if len(terms) == 0 {
		return 0
	}
	words := make(map[string]struct{})
	for _, w := range tokenize(text) {
		words[w] = struct{}{}
	}
	seen := make(map[string]struct{}, len(terms))
	hits := 0
	for _, t := range terms {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := words[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(seen))
}
