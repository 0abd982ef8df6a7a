// Package api exposes the agent over HTTP with gin.
//
// Routes:
//
//	GET    /health
//	POST   /api/query          {query, session_id?} -> {answer, sources, session_id}
//	GET    /api/courses        -> {total_courses, course_titles}
//	DELETE /api/sessions/:id
package api
