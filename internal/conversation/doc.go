// Package conversation wraps the tool loop with session history and
// citation collection.
package conversation
