package patch

import (
	"fmt"
	"strings"
)

// parser walks the envelope line by line.
type parser struct {
	currentFiles map[string]string
	lines        []string
	index        int
	patch        *Patch
}

// Parse parses patch text against the current contents of the files it
// touches. Updates and deletes of unknown files are rejected here, before
// anything is written.
func Parse(text string, currentFiles map[string]string) (*Patch, error) {
	if !strings.HasPrefix(text, markerBegin) {
		return nil, fmt.Errorf("%w: patch must start with %q", ErrInvalidPatch, markerBegin)
	}

	p := &parser{
		currentFiles: currentFiles,
		lines:        strings.Split(text, "\n"),
		patch:        &Patch{Actions: make(map[string]*Action)},
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.patch, nil
}

func (p *parser) done(prefixes ...string) bool {
	if p.index >= len(p.lines) {
		return true
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(p.lines[p.index], prefix) {
			return true
		}
	}
	return false
}

func (p *parser) current() string {
	if p.index >= len(p.lines) {
		return ""
	}
	return p.lines[p.index]
}

// take consumes the current line if it starts with prefix and returns the
// remainder; ok is false when the prefix does not match.
func (p *parser) take(prefix string) (string, bool) {
	if p.index >= len(p.lines) {
		return "", false
	}
	rest, ok := strings.CutPrefix(p.lines[p.index], prefix)
	if !ok {
		return "", false
	}
	p.index++
	return rest, true
}

func (p *parser) addAction(path string, action *Action) error {
	if _, exists := p.patch.Actions[path]; exists {
		return fmt.Errorf("%w: duplicate path %s", ErrInvalidPatch, path)
	}
	p.patch.Actions[path] = action
	p.patch.Order = append(p.patch.Order, path)
	return nil
}

func (p *parser) parse() error {
	if _, ok := p.take(markerBegin); !ok {
		return fmt.Errorf("%w: missing %q", ErrInvalidPatch, markerBegin)
	}

	for !p.done(markerEnd) {
		if path, ok := p.take(markerUpdate); ok {
			movePath, _ := p.take(markerMove)
			if _, exists := p.currentFiles[path]; !exists {
				return fmt.Errorf("%w: update of missing file %s", ErrInvalidPatch, path)
			}
			action, err := p.parseUpdate()
			if err != nil {
				return err
			}
			action.MovePath = movePath
			if err := p.addAction(path, action); err != nil {
				return err
			}
			continue
		}

		if path, ok := p.take(markerAdd); ok {
			if err := p.addAction(path, p.parseAdd()); err != nil {
				return err
			}
			continue
		}

		if path, ok := p.take(markerDelete); ok {
			if _, exists := p.currentFiles[path]; !exists {
				return fmt.Errorf("%w: delete of missing file %s", ErrInvalidPatch, path)
			}
			if err := p.addAction(path, &Action{Type: ActionDelete}); err != nil {
				return err
			}
			continue
		}

		return fmt.Errorf("%w: unexpected line %q", ErrInvalidPatch, p.current())
	}
	return nil
}

// parseUpdate reads "@@" hunks until the next "*** " marker.
func (p *parser) parseUpdate() (*Action, error) {
	action := &Action{Type: ActionUpdate}

	for !p.done("*** ") {
		if _, ok := p.take("@@"); !ok {
			return nil, fmt.Errorf("%w: expected @@ hunk header, got %q", ErrInvalidPatch, p.current())
		}

		chunk := Chunk{}
		for !p.done("@@", "*** ") {
			line := p.lines[p.index]
			p.index++
			switch {
			case strings.HasPrefix(line, "-"):
				chunk.DelLines = append(chunk.DelLines, line[1:])
			case strings.HasPrefix(line, "+"):
				chunk.InsLines = append(chunk.InsLines, line[1:])
			default:
				// Context line: present on both sides, taken verbatim.
				chunk.DelLines = append(chunk.DelLines, line)
				chunk.InsLines = append(chunk.InsLines, line)
			}
		}
		action.Chunks = append(action.Chunks, chunk)
	}

	if len(action.Chunks) == 0 {
		return nil, fmt.Errorf("%w: update without hunks", ErrInvalidPatch)
	}
	return action, nil
}

// parseAdd reads content lines until the next "*** " marker. Lines may
// carry a leading "+" like update hunks do; it is stripped when present.
func (p *parser) parseAdd() *Action {
	var lines []string
	for !p.done("*** ") {
		line := p.lines[p.index]
		p.index++
		lines = append(lines, strings.TrimPrefix(line, "+"))
	}
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	return &Action{Type: ActionAdd, NewContent: content}
}
