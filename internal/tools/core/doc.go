// Package core provides the filesystem tools exposed to the model.
//
// Tools:
//   - read_file: Read file contents, optionally a line range
//   - write_file: Write content to a file (gated by the approval policy)
//   - list_files: List directory contents
//   - glob: Find files matching a pattern
//   - grep: Search file contents with regex
package core
