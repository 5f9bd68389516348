package core

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"opencodex/internal/logging"
	"opencodex/internal/tools"
)

// GlobTool returns a tool for finding files matching a pattern.
func GlobTool() *tools.Tool {
	return &tools.Tool{
		Name:        "glob",
		Description: "Find files matching a glob pattern",
		Category:    tools.CategoryFile,
		Execute:     executeGlob,
		Schema: tools.Schema{
			Required: []string{"pattern"},
			Properties: map[string]tools.Property{
				"pattern": {
					Type:        "string",
					Description: "Glob pattern (e.g., '**/*.go', 'src/*.ts')",
				},
				"base_path": {
					Type:        "string",
					Description: "Base directory for search (default: current directory)",
				},
				"max_results": {
					Type:        "integer",
					Description: "Maximum number of results (default: 100)",
					Default:     100,
				},
			},
		},
	}
}

func executeGlob(ctx context.Context, args map[string]any) (string, error) {
	pattern := tools.StringArg(args, "pattern", "")
	if pattern == "" {
		return "", fmt.Errorf("pattern is required")
	}
	basePath := tools.StringArg(args, "base_path", ".")
	maxResults := tools.IntArg(args, "max_results", 100)
	if maxResults <= 0 {
		maxResults = 100
	}

	logging.ToolsDebug("glob: pattern=%s base=%s", pattern, basePath)

	var matches []string
	if strings.Contains(pattern, "**") {
		parts := strings.SplitN(pattern, "**", 2)
		prefix := strings.TrimSuffix(parts[0], "/")
		suffix := strings.TrimPrefix(parts[1], "/")

		searchPath := basePath
		if prefix != "" {
			searchPath = filepath.Join(basePath, prefix)
		}

		err := filepath.Walk(searchPath, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if len(matches) >= maxResults {
				return filepath.SkipAll
			}
			if info.IsDir() {
				if strings.HasPrefix(info.Name(), ".") && path != searchPath {
					return filepath.SkipDir
				}
				return nil
			}
			matched := suffix == ""
			if !matched {
				matched, _ = filepath.Match(suffix, info.Name())
			}
			if !matched {
				relPath, _ := filepath.Rel(searchPath, path)
				matched, _ = filepath.Match(suffix, relPath)
			}
			if matched {
				relPath, _ := filepath.Rel(basePath, path)
				matches = append(matches, relPath)
			}
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to walk directory: %w", err)
		}
	} else {
		globMatches, err := filepath.Glob(filepath.Join(basePath, pattern))
		if err != nil {
			return "", fmt.Errorf("invalid glob pattern: %w", err)
		}
		for i, m := range globMatches {
			if i >= maxResults {
				break
			}
			relPath, _ := filepath.Rel(basePath, m)
			matches = append(matches, relPath)
		}
	}

	logging.Tools("glob completed: %s (%d matches)", pattern, len(matches))

	if len(matches) == 0 {
		return "No files found matching pattern: " + pattern, nil
	}
	return strings.Join(matches, "\n"), nil
}

// GrepTool returns a tool for searching file contents with a regex.
func GrepTool() *tools.Tool {
	return &tools.Tool{
		Name:        "grep",
		Description: "Search for a pattern in file contents",
		Category:    tools.CategoryFile,
		Execute:     executeGrep,
		Schema: tools.Schema{
			Required: []string{"pattern"},
			Properties: map[string]tools.Property{
				"pattern": {
					Type:        "string",
					Description: "Regular expression pattern to search for",
				},
				"path": {
					Type:        "string",
					Description: "File or directory to search (default: current directory)",
				},
				"file_pattern": {
					Type:        "string",
					Description: "Glob pattern for files to search (e.g., '*.go')",
				},
				"max_results": {
					Type:        "integer",
					Description: "Maximum number of matches (default: 50)",
					Default:     50,
				},
				"ignore_case": {
					Type:        "boolean",
					Description: "Case insensitive search (default: false)",
					Default:     false,
				},
			},
		},
	}
}

func executeGrep(ctx context.Context, args map[string]any) (string, error) {
	pattern := tools.StringArg(args, "pattern", "")
	if pattern == "" {
		return "", fmt.Errorf("pattern is required")
	}
	path := tools.StringArg(args, "path", ".")
	filePattern := tools.StringArg(args, "file_pattern", "")
	maxResults := tools.IntArg(args, "max_results", 50)
	if maxResults <= 0 {
		maxResults = 50
	}
	if tools.BoolArg(args, "ignore_case", false) {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid regex pattern: %w", err)
	}

	logging.ToolsDebug("grep: pattern=%s path=%s", pattern, path)

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("path not found: %w", err)
	}

	var files []string
	if info.IsDir() {
		err := filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if info.IsDir() {
				name := info.Name()
				if (strings.HasPrefix(name, ".") && p != path) || name == "node_modules" || name == "vendor" {
					return filepath.SkipDir
				}
				return nil
			}
			if filePattern != "" {
				matched, _ := filepath.Match(filePattern, info.Name())
				if !matched {
					return nil
				}
			}
			files = append(files, p)
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to walk directory: %w", err)
		}
	} else {
		files = []string{path}
	}

	var sb strings.Builder
	count := 0
	for _, file := range files {
		if count >= maxResults {
			break
		}
		n, err := searchFile(&sb, file, re, maxResults-count)
		if err != nil {
			continue
		}
		count += n
	}

	logging.Tools("grep completed: %s (%d matches)", pattern, count)

	if count == 0 {
		return "No matches found for pattern: " + pattern, nil
	}
	return sb.String(), nil
}

func searchFile(sb *strings.Builder, path string, re *regexp.Regexp, maxMatches int) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	count := 0
	lineNum := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if re.MatchString(line) {
			fmt.Fprintf(sb, "%s:%d: %s\n", path, lineNum, strings.TrimSpace(line))
			count++
			if count >= maxMatches {
				break
			}
		}
	}
	return count, scanner.Err()
}
