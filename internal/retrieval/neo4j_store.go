package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Neo4jStore keeps the catalog as a graph:
//
//	(:Course)-[:HAS_LESSON]->(:Lesson)-[:HAS_CHUNK]->(:Chunk)
//
// Passages are matched lexically with CONTAINS over lower-cased chunk text.
type Neo4jStore struct {
	driver     neo4j.DriverWithContext
	maxResults int
	logger     *zap.Logger
}

func NewNeo4jStore(driver neo4j.DriverWithContext, maxResults int, logger *zap.Logger) *Neo4jStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Neo4jStore{driver: driver, maxResults: maxResults, logger: logger}
}

// Connect opens a driver and verifies connectivity.
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify neo4j connectivity: %w", err)
	}
	return driver, nil
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Neo4jStore) readSession(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
}

// EnsureSchema creates the uniqueness constraint on course titles.
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`CREATE CONSTRAINT course_title IF NOT EXISTS FOR (c:Course) REQUIRE c.title IS UNIQUE`, nil)
	if err != nil {
		return fmt.Errorf("failed to create course constraint: %w", err)
	}
	return nil
}

// AddCourse replaces the course, its lessons and their chunks in one write
// transaction.
func (s *Neo4jStore) AddCourse(ctx context.Context, c Course) error {
	if err := c.Validate(); err != nil {
		return err
	}
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	lessons := make([]map[string]any, 0, len(c.Lessons))
	for _, l := range c.Lessons {
		chunks := make([]any, 0, len(l.Chunks))
		for _, ch := range l.Chunks {
			chunks = append(chunks, ch)
		}
		lessons = append(lessons, map[string]any{
			"number": l.Number,
			"title":  l.Title,
			"link":   l.Link,
			"chunks": chunks,
		})
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		upsert := `
			MERGE (c:Course {title: $title})
			SET c.title_lower = toLower($title),
			    c.instructor = $instructor,
			    c.link = $link
			WITH c
			OPTIONAL MATCH (c)-[:HAS_LESSON]->(old:Lesson)
			OPTIONAL MATCH (old)-[:HAS_CHUNK]->(oldChunk:Chunk)
			DETACH DELETE old, oldChunk
		`
		if _, err := tx.Run(ctx, upsert, map[string]any{
			"title":      c.Title,
			"instructor": c.Instructor,
			"link":       c.Link,
		}); err != nil {
			return nil, err
		}

		create := `
			MATCH (c:Course {title: $title})
			UNWIND $lessons AS lesson
			CREATE (c)-[:HAS_LESSON]->(l:Lesson {number: lesson.number, title: lesson.title, link: lesson.link})
			WITH l, lesson
			UNWIND range(0, size(lesson.chunks) - 1) AS i
			CREATE (l)-[:HAS_CHUNK]->(:Chunk {idx: i, content: lesson.chunks[i], content_lower: toLower(lesson.chunks[i])})
		`
		_, err := tx.Run(ctx, create, map[string]any{"title": c.Title, "lessons": lessons})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to store course: %w", err)
	}
	s.logger.Debug("Stored course",
		zap.String("title", c.Title),
		zap.Int("lessons", len(c.Lessons)),
	)
	return nil
}

func (s *Neo4jStore) Search(ctx context.Context, q Query) ([]Passage, error) {
	course := ""
	if q.CourseName != "" {
		title, ok, err := s.ResolveCourseName(ctx, q.CourseName)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("No course found matching '%s'", q.CourseName)
		}
		course = title
	}
	if s.maxResults <= 0 {
		return nil, nil
	}
	terms := distinct(tokenize(q.Text))
	if len(terms) == 0 {
		return nil, nil
	}

	session := s.readSession(ctx)
	defer session.Close(ctx)

	params := map[string]any{
		"terms":  terms,
		"course": nil,
		"lesson": nil,
		"limit":  s.maxResults,
	}
	if course != "" {
		params["course"] = course
	}
	if q.LessonNumber != nil {
		params["lesson"] = *q.LessonNumber
	}

	query := `
		MATCH (c:Course)-[:HAS_LESSON]->(l:Lesson)-[:HAS_CHUNK]->(ch:Chunk)
		WHERE ($course IS NULL OR c.title = $course)
		  AND ($lesson IS NULL OR l.number = $lesson)
		WITH c, l, ch, size([t IN $terms WHERE ch.content_lower CONTAINS t]) AS hits
		WHERE hits > 0
		RETURN ch.content AS content, c.title AS course, l.number AS lesson,
		       toFloat(hits) / size($terms) AS score
		ORDER BY score DESC, c.title, l.number, ch.idx
		LIMIT $limit
	`
	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to search passages: %w", err)
	}

	var out []Passage
	for result.Next(ctx) {
		record := result.Record()
		n := getIntFromRecord(record, "lesson")
		out = append(out, Passage{
			Text:         getStringFromRecord(record, "content"),
			CourseTitle:  getStringFromRecord(record, "course"),
			LessonNumber: &n,
			Score:        getFloat64FromRecord(record, "score"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read passages: %w", err)
	}
	return out, nil
}

// ResolveCourseName prefers an exact case-insensitive title, then any title
// containing partial or contained in it.
func (s *Neo4jStore) ResolveCourseName(ctx context.Context, partial string) (string, bool, error) {
	p := strings.ToLower(strings.TrimSpace(partial))
	if p == "" {
		return "", false, nil
	}
	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (c:Course)
		WHERE c.title_lower = $p OR c.title_lower CONTAINS $p OR $p CONTAINS c.title_lower
		RETURN c.title AS title
		ORDER BY CASE WHEN c.title_lower = $p THEN 0 ELSE 1 END, c.title
		LIMIT 1
	`
	result, err := session.Run(ctx, query, map[string]any{"p": p})
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve course: %w", err)
	}
	if result.Next(ctx) {
		return getStringFromRecord(result.Record(), "title"), true, nil
	}
	return "", false, result.Err()
}

func (s *Neo4jStore) LessonLink(ctx context.Context, course string, lesson int) (string, bool, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (:Course {title: $title})-[:HAS_LESSON]->(l:Lesson {number: $number})
		RETURN l.link AS link
		LIMIT 1
	`
	result, err := session.Run(ctx, query, map[string]any{"title": course, "number": lesson})
	if err != nil {
		return "", false, fmt.Errorf("failed to get lesson link: %w", err)
	}
	if result.Next(ctx) {
		link := getStringFromRecord(result.Record(), "link")
		return link, link != "", nil
	}
	return "", false, result.Err()
}

func (s *Neo4jStore) Course(ctx context.Context, title string) (*Course, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (c:Course {title: $title})
		OPTIONAL MATCH (c)-[:HAS_LESSON]->(l:Lesson)
		WITH c, l ORDER BY l.number
		RETURN c.title AS title, c.instructor AS instructor, c.link AS link,
		       collect(CASE WHEN l IS NULL THEN NULL
		               ELSE {number: l.number, title: l.title, link: l.link} END) AS lessons
	`
	result, err := session.Run(ctx, query, map[string]any{"title": title})
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, title)
	}
	record := result.Record()
	c := &Course{
		Title:      getStringFromRecord(record, "title"),
		Instructor: getStringFromRecord(record, "instructor"),
		Link:       getStringFromRecord(record, "link"),
	}
	if raw, ok := record.Get("lessons"); ok {
		if items, ok := raw.([]any); ok {
			for _, item := range items {
				m, ok := item.(map[string]any)
				if !ok {
					continue
				}
				c.Lessons = append(c.Lessons, Lesson{
					Number: asInt(m["number"]),
					Title:  asString(m["title"]),
					Link:   asString(m["link"]),
				})
			}
		}
	}
	return c, nil
}

func (s *Neo4jStore) CourseTitles(ctx context.Context) ([]string, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `MATCH (c:Course) RETURN c.title AS title ORDER BY c.title`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	titles := []string{}
	for result.Next(ctx) {
		titles = append(titles, getStringFromRecord(result.Record(), "title"))
	}
	return titles, result.Err()
}

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok {
		return ""
	}
	return asString(val)
}

func getIntFromRecord(record *neo4j.Record, key string) int {
	val, ok := record.Get(key)
	if !ok {
		return 0
	}
	return asInt(val)
}

func getFloat64FromRecord(record *neo4j.Record, key string) float64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0.0
	}
	switch f := val.(type) {
	case float64:
		return f
	case int64:
		return float64(f)
	}
	return 0.0
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asInt(v any) int {
	switch i := v.(type) {
	case int64:
		return int(i)
	case int:
		return i
	}
	return 0
}

func distinct(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
