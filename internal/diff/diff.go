// Package diff renders unified diffs for patch previews shown at
// approval prompts. Diff computation is delegated to sergi/go-diff
// with a line-level reduction so hunks fall on line boundaries.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType classifies a rendered diff line.
type LineType int

const (
	LineContext LineType = iota
	LineAdded
	LineRemoved
)

// Line is a single line within a hunk.
type Line struct {
	Content string
	Type    LineType
}

// Hunk is a contiguous group of changes with surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff is the diff of one file.
type FileDiff struct {
	OldPath  string
	NewPath  string
	Hunks    []Hunk
	IsNew    bool
	IsDelete bool
}

// contextLines is the number of unchanged lines kept around each change.
const contextLines = 3

// Compute diffs oldContent against newContent for the given path.
// An empty side marks the file as added or deleted.
func Compute(oldPath, newPath, oldContent, newContent string) *FileDiff {
	fd := &FileDiff{
		OldPath:  oldPath,
		NewPath:  newPath,
		IsNew:    oldContent == "",
		IsDelete: newContent == "",
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	a, b, lineArray := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	fd.Hunks = groupHunks(lineOps(diffs))
	return fd
}

// Changed reports whether the diff has any hunks.
func (fd *FileDiff) Changed() bool { return len(fd.Hunks) > 0 }

// Render produces unified-diff text for the file.
func (fd *FileDiff) Render() string {
	if !fd.Changed() {
		return ""
	}
	var sb strings.Builder
	oldPath, newPath := fd.OldPath, fd.NewPath
	if fd.IsNew {
		oldPath = "/dev/null"
	}
	if fd.IsDelete {
		newPath = "/dev/null"
	}
	fmt.Fprintf(&sb, "--- %s\n", oldPath)
	fmt.Fprintf(&sb, "+++ %s\n", newPath)
	for _, h := range fd.Hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		for _, line := range h.Lines {
			switch line.Type {
			case LineAdded:
				sb.WriteString("+")
			case LineRemoved:
				sb.WriteString("-")
			default:
				sb.WriteString(" ")
			}
			sb.WriteString(line.Content)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Stats counts added and removed lines across all hunks.
func (fd *FileDiff) Stats() (added, removed int) {
	for _, h := range fd.Hunks {
		for _, line := range h.Lines {
			switch line.Type {
			case LineAdded:
				added++
			case LineRemoved:
				removed++
			}
		}
	}
	return added, removed
}

// op is one line position across both sides of the diff.
type op struct {
	typ     LineType
	oldLine int // 0-based, -1 for additions
	newLine int // 0-based, -1 for removals
	content string
}

func lineOps(diffs []diffmatchpatch.Diff) []op {
	var ops []op
	oldLine, newLine := 0, 0
	for _, d := range diffs {
		lines := strings.Split(d.Text, "\n")
		if n := len(lines); n > 0 && lines[n-1] == "" {
			lines = lines[:n-1]
		}
		for _, line := range lines {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				ops = append(ops, op{LineContext, oldLine, newLine, line})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				ops = append(ops, op{LineRemoved, oldLine, -1, line})
				oldLine++
			case diffmatchpatch.DiffInsert:
				ops = append(ops, op{LineAdded, -1, newLine, line})
				newLine++
			}
		}
	}
	return ops
}

func groupHunks(ops []op) []Hunk {
	var hunks []Hunk
	var cur *Hunk
	lastChange := -1

	for i, o := range ops {
		if o.typ != LineContext {
			if cur == nil {
				start := i - contextLines
				if start < 0 {
					start = 0
				}
				cur = &Hunk{
					OldStart: ops[start].oldLine + 1,
					NewStart: ops[start].newLine + 1,
				}
				if ops[start].oldLine < 0 {
					cur.OldStart = 0
				}
				if ops[start].newLine < 0 {
					cur.NewStart = 0
				}
				for j := start; j < i; j++ {
					cur.Lines = append(cur.Lines, Line{Content: ops[j].content, Type: ops[j].typ})
				}
			}
			lastChange = i
		}

		if cur == nil {
			continue
		}
		cur.Lines = append(cur.Lines, Line{Content: o.content, Type: o.typ})

		if o.typ == LineContext && i-lastChange >= contextLines {
			// Keep accumulating when another change sits within the
			// context window, otherwise the hunks would overlap.
			merge := false
			for j := i + 1; j < len(ops) && j <= i+contextLines; j++ {
				if ops[j].typ != LineContext {
					merge = true
					break
				}
			}
			if merge {
				continue
			}
			finishHunk(cur)
			hunks = append(hunks, *cur)
			cur = nil
		}
	}

	if cur != nil && len(cur.Lines) > 0 {
		finishHunk(cur)
		hunks = append(hunks, *cur)
	}
	return hunks
}

func finishHunk(h *Hunk) {
	for _, line := range h.Lines {
		if line.Type != LineAdded {
			h.OldCount++
		}
		if line.Type != LineRemoved {
			h.NewCount++
		}
	}
}
