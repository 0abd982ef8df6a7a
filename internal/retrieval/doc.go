// Package retrieval provides the course catalog and passage search used by
// the agent's tools.
//
// Two stores implement the same surface: MemoryStore, loaded from a YAML
// catalog, and Neo4jStore, which keeps courses, lessons and chunks as a graph.
// Both score passages lexically; neither does embedding search.
package retrieval
