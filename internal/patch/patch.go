// Package patch implements the structured patch envelope the model uses for
// file edits:
//
//	*** Begin Patch
//	*** Update File: path/to/file
//	@@ optional locator
//	 context line
//	-removed line
//	+added line
//	*** Add File: path/to/new
//	*** Delete File: path/to/old
//	*** End Patch
//
// An update may be followed by "*** Move to: newpath" to rename the file.
package patch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPatch is the sentinel wrapped by all parse and apply failures.
var ErrInvalidPatch = errors.New("invalid patch")

// Envelope markers.
const (
	markerBegin  = "*** Begin Patch"
	markerEnd    = "*** End Patch"
	markerUpdate = "*** Update File: "
	markerAdd    = "*** Add File: "
	markerDelete = "*** Delete File: "
	markerMove   = "*** Move to: "
)

// ActionType is the kind of change applied to a file.
type ActionType string

const (
	ActionAdd    ActionType = "add"
	ActionDelete ActionType = "delete"
	ActionUpdate ActionType = "update"
)

// Chunk is one hunk of an update: the lines to find (context plus removals)
// and the lines that replace them (context plus additions).
type Chunk struct {
	DelLines []string
	InsLines []string
}

// Action is the parsed change for a single file.
type Action struct {
	Type       ActionType
	NewContent string // ActionAdd only
	Chunks     []Chunk
	MovePath   string
}

// Patch is a parsed envelope. Order preserves the file sequence of the text.
type Patch struct {
	Actions map[string]*Action
	Order   []string
}

// FileChange is one resolved change in a commit.
type FileChange struct {
	Type       ActionType
	OldContent string
	NewContent string
	MovePath   string
}

// Commit maps file paths to their resolved changes, ready to write.
// Order preserves the file sequence of the patch text.
type Commit struct {
	Changes map[string]FileChange
	Order   []string
}

// FilesNeeded lists the paths a patch reads (updates and deletes).
func FilesNeeded(text string) []string {
	var files []string
	for _, line := range strings.Split(text, "\n") {
		if path, ok := strings.CutPrefix(line, markerUpdate); ok {
			files = append(files, path)
		} else if path, ok := strings.CutPrefix(line, markerDelete); ok {
			files = append(files, path)
		}
	}
	return files
}

// FilesAdded lists the paths a patch creates.
func FilesAdded(text string) []string {
	var files []string
	for _, line := range strings.Split(text, "\n") {
		if path, ok := strings.CutPrefix(line, markerAdd); ok {
			files = append(files, path)
		}
	}
	return files
}

// ToCommit resolves a patch against the original file contents.
func (p *Patch) ToCommit(orig map[string]string) (*Commit, error) {
	commit := &Commit{Changes: make(map[string]FileChange), Order: p.Order}
	for _, path := range p.Order {
		action := p.Actions[path]
		switch action.Type {
		case ActionDelete:
			commit.Changes[path] = FileChange{Type: ActionDelete, OldContent: orig[path]}
		case ActionAdd:
			commit.Changes[path] = FileChange{Type: ActionAdd, NewContent: action.NewContent}
		case ActionUpdate:
			updated, err := applyChunks(orig[path], action, path)
			if err != nil {
				return nil, err
			}
			commit.Changes[path] = FileChange{
				Type:       ActionUpdate,
				OldContent: orig[path],
				NewContent: updated,
				MovePath:   action.MovePath,
			}
		}
	}
	return commit, nil
}

// applyChunks splices each chunk's insert lines over its located context.
func applyChunks(text string, action *Action, path string) (string, error) {
	if action.Type != ActionUpdate {
		return "", fmt.Errorf("%w: unexpected action type %s for %s", ErrInvalidPatch, action.Type, path)
	}

	newLines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")

	// Search in the partially-updated content with a moving offset so later
	// chunks land after earlier ones even when line counts change.
	searchFrom := 0
	for _, chunk := range action.Chunks {
		start, end, err := findContext(newLines, chunk.DelLines, searchFrom, false)
		if err != nil {
			return "", fmt.Errorf("%w: failed to apply chunk in %s: %v", ErrInvalidPatch, path, err)
		}
		replaced := make([]string, 0, len(newLines)-(end-start)+len(chunk.InsLines))
		replaced = append(replaced, newLines[:start]...)
		replaced = append(replaced, chunk.InsLines...)
		replaced = append(replaced, newLines[end:]...)
		newLines = replaced
		searchFrom = start + len(chunk.InsLines)
	}

	result := strings.Join(newLines, "\n")
	if strings.HasSuffix(text, "\n") {
		result += "\n"
	}
	return result, nil
}

// findContext locates context within lines starting at start. With eof set,
// a context whose final line falls exactly at end-of-file still matches.
func findContext(lines, context []string, start int, eof bool) (int, int, error) {
	if len(context) == 0 {
		return start, start, nil
	}

	for i := start; i < len(lines); i++ {
		match := true
		for j, ctx := range context {
			if i+j >= len(lines) {
				if eof && j == len(context)-1 {
					return i, i + j, nil
				}
				match = false
				break
			}
			if lines[i+j] != ctx {
				match = false
				break
			}
		}
		if match {
			return i, i + len(context), nil
		}
	}
	return 0, 0, fmt.Errorf("%w: context not found", ErrInvalidPatch)
}
