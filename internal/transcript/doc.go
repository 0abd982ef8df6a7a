// Package transcript checks the tool_use/tool_result structure of a message
// buffer before it is sent back to the model.
package transcript
