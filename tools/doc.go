// Package tools defines the tools the model may call and the registry that
// dispatches them.
//
// Includes:
//   - Tool: a definition (name, description, JSON input schema) plus Execute.
//   - Result: tagged success/failure; failures become is_error tool results.
//   - Registry: name lookup, failure capture, per-query citation scopes.
//   - search_course_content and get_course_outline over the course catalog.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
package tools
