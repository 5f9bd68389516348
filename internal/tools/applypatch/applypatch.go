// Package applypatch exposes the structured patch envelope as a model tool.
package applypatch

import (
	"context"
	"fmt"

	"opencodex/internal/logging"
	"opencodex/internal/patch"
	"opencodex/internal/tools"
)

const description = `Apply a structured patch to files in the workspace.

The patch must use this envelope format:
*** Begin Patch
*** Update File: path/to/file
@@ context line
-removed line
+added line
*** End Patch

Also supported: "*** Add File: path" followed by the full file content,
"*** Delete File: path", and "*** Move to: new/path" after an update header.`

// Tool returns the apply_patch tool rooted at dir.
// Approval gating happens in the agent loop before Execute is called.
func Tool(dir string) *tools.Tool {
	fs := patch.OSFileSystem(dir)
	return &tools.Tool{
		Name:             "apply_patch",
		Description:      description,
		Category:         tools.CategoryPatch,
		RequiresApproval: true,
		Execute:          executeApplyPatch(fs),
		Schema: tools.Schema{
			Required: []string{"patch"},
			Properties: map[string]tools.Property{
				"patch": {
					Type:        "string",
					Description: "The full patch envelope, including Begin/End markers",
				},
			},
		},
	}
}

func executeApplyPatch(fs patch.FileSystem) tools.ExecuteFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		text := tools.StringArg(args, "patch", "")
		if text == "" {
			return "", fmt.Errorf("patch is required")
		}

		logging.PatchDebug("apply_patch: %d bytes", len(text))

		summary, err := patch.Process(text, fs)
		if err != nil {
			return "", err
		}
		logging.Patch("apply_patch applied:\n%s", summary)
		return "Done!\n" + summary, nil
	}
}

// Register registers apply_patch with the given registry, rooted at dir.
func Register(registry *tools.Registry, dir string) error {
	return registry.Register(Tool(dir))
}
