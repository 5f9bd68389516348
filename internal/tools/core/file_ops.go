package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"opencodex/internal/logging"
	"opencodex/internal/tools"
)

// ReadFileTool returns a tool for reading file contents.
func ReadFileTool() *tools.Tool {
	return &tools.Tool{
		Name:        "read_file",
		Description: "Read the contents of a file, optionally a line range",
		Category:    tools.CategoryFile,
		Execute:     executeReadFile,
		Schema: tools.Schema{
			Required: []string{"path"},
			Properties: map[string]tools.Property{
				"path": {
					Type:        "string",
					Description: "The file path to read",
				},
				"start_line": {
					Type:        "integer",
					Description: "Starting line number (1-indexed, optional)",
				},
				"end_line": {
					Type:        "integer",
					Description: "Ending line number (inclusive, optional)",
				},
			},
		},
	}
}

func executeReadFile(ctx context.Context, args map[string]any) (string, error) {
	path := tools.StringArg(args, "path", "")
	if path == "" {
		return "", fmt.Errorf("path is required")
	}

	logging.ToolsDebug("read_file: path=%s", path)

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	result := string(content)

	startLine := tools.IntArg(args, "start_line", 0)
	endLine := tools.IntArg(args, "end_line", 0)
	if startLine > 0 || endLine > 0 {
		lines := strings.Split(result, "\n")
		if startLine <= 0 {
			startLine = 1
		}
		if endLine <= 0 || endLine > len(lines) {
			endLine = len(lines)
		}
		if startLine > len(lines) {
			startLine = len(lines)
		}
		if endLine < startLine {
			return "", fmt.Errorf("end_line %d is before start_line %d", endLine, startLine)
		}
		result = strings.Join(lines[startLine-1:endLine], "\n")
	}

	logging.Tools("read_file completed: %s (%d bytes)", path, len(result))
	return result, nil
}

// WriteFileTool returns a tool for writing content to a file.
// Counts as an edit for approval purposes.
func WriteFileTool() *tools.Tool {
	return &tools.Tool{
		Name:             "write_file",
		Description:      "Write content to a file, creating it if it doesn't exist",
		Category:         tools.CategoryFile,
		Execute:          executeWriteFile,
		RequiresApproval: true,
		Schema: tools.Schema{
			Required: []string{"path", "content"},
			Properties: map[string]tools.Property{
				"path": {
					Type:        "string",
					Description: "The file path to write",
				},
				"content": {
					Type:        "string",
					Description: "The content to write",
				},
				"create_dirs": {
					Type:        "boolean",
					Description: "Create parent directories if they don't exist (default: true)",
					Default:     true,
				},
			},
		},
	}
}

func executeWriteFile(ctx context.Context, args map[string]any) (string, error) {
	path := tools.StringArg(args, "path", "")
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	content, _ := args["content"].(string)

	logging.ToolsDebug("write_file: path=%s size=%d", path, len(content))

	if tools.BoolArg(args, "create_dirs", true) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("failed to create directories: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	logging.Tools("write_file completed: %s (%d bytes)", path, len(content))
	return fmt.Sprintf("Wrote %d bytes to %s", len(content), path), nil
}

// ListFilesTool returns a tool for listing directory contents.
func ListFilesTool() *tools.Tool {
	return &tools.Tool{
		Name:        "list_files",
		Description: "List files in a directory",
		Category:    tools.CategoryFile,
		Execute:     executeListFiles,
		Schema: tools.Schema{
			Required: []string{"path"},
			Properties: map[string]tools.Property{
				"path": {
					Type:        "string",
					Description: "The directory path to list",
				},
				"recursive": {
					Type:        "boolean",
					Description: "List recursively (default: false)",
					Default:     false,
				},
				"include_hidden": {
					Type:        "boolean",
					Description: "Include hidden files (default: false)",
					Default:     false,
				},
			},
		},
	}
}

func executeListFiles(ctx context.Context, args map[string]any) (string, error) {
	path := tools.StringArg(args, "path", ".")
	recursive := tools.BoolArg(args, "recursive", false)
	includeHidden := tools.BoolArg(args, "include_hidden", false)

	logging.ToolsDebug("list_files: path=%s recursive=%v", path, recursive)

	var files []string
	if recursive {
		err := filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			name := info.Name()
			if !includeHidden && strings.HasPrefix(name, ".") {
				if info.IsDir() && p != path {
					return filepath.SkipDir
				}
				if !info.IsDir() {
					return nil
				}
			}
			relPath, _ := filepath.Rel(path, p)
			if relPath == "." {
				return nil
			}
			if info.IsDir() {
				files = append(files, relPath+"/")
			} else {
				files = append(files, relPath)
			}
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to walk directory: %w", err)
		}
	} else {
		entries, err := os.ReadDir(path)
		if err != nil {
			return "", fmt.Errorf("failed to read directory: %w", err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if !includeHidden && strings.HasPrefix(name, ".") {
				continue
			}
			if entry.IsDir() {
				files = append(files, name+"/")
			} else {
				files = append(files, name)
			}
		}
	}

	logging.Tools("list_files completed: %s (%d entries)", path, len(files))
	return strings.Join(files, "\n"), nil
}
