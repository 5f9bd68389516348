// Package shell exposes sandboxed command execution as a model tool.
package shell

import (
	"context"
	"fmt"
	"strings"
	"time"

	"opencodex/internal/logging"
	"opencodex/internal/sandbox"
	"opencodex/internal/tools"
)

// ShellTool returns the command execution tool backed by the given sandbox.
// Approval gating happens in the agent loop before Execute is called.
func ShellTool(sb *sandbox.Sandbox, fullOutput bool) *tools.Tool {
	return &tools.Tool{
		Name:             "shell",
		Description:      "Execute a shell command and return its output",
		Category:         tools.CategoryShell,
		RequiresApproval: true,
		Execute:          executeShell(sb, fullOutput),
		Schema: tools.Schema{
			Required: []string{"command"},
			Properties: map[string]tools.Property{
				"command": {
					Type:        "string",
					Description: "The command to execute",
				},
				"working_dir": {
					Type:        "string",
					Description: "Working directory for the command",
				},
				"timeout_seconds": {
					Type:        "integer",
					Description: "Timeout in seconds (default: 60)",
					Default:     60,
				},
			},
		},
	}
}

func executeShell(sb *sandbox.Sandbox, fullOutput bool) tools.ExecuteFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		command := tools.StringArg(args, "command", "")
		if command == "" {
			return "", fmt.Errorf("command is required")
		}

		// cd does not persist across tool calls, each command runs in a
		// fresh shell. Steer the model toward working_dir instead.
		if strings.HasPrefix(strings.TrimSpace(command), "cd ") {
			return "", fmt.Errorf("cd does not persist between commands; pass working_dir instead")
		}

		workingDir := tools.StringArg(args, "working_dir", "")
		timeout := time.Duration(tools.IntArg(args, "timeout_seconds", 0)) * time.Second

		logging.ToolsDebug("shell: cmd=%s dir=%s timeout=%s", command, workingDir, timeout)

		result := sb.Exec(ctx, command, sandbox.Options{
			WorkingDir: workingDir,
			Timeout:    timeout,
			FullOutput: fullOutput,
		})
		if result.Err != nil {
			return result.Combined(), result.Err
		}

		output := result.Combined()
		if result.ExitCode != 0 {
			return output, fmt.Errorf("command exited with code %d", result.ExitCode)
		}
		if output == "" {
			output = "(no output)"
		}
		return output, nil
	}
}

// RegisterAll registers the shell tools with the given registry.
func RegisterAll(registry *tools.Registry, sb *sandbox.Sandbox, fullOutput bool) error {
	return registry.Register(ShellTool(sb, fullOutput))
}
