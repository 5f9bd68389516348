package core

import (
	"opencodex/internal/tools"
)

// RegisterAll registers the filesystem tools with the given registry.
func RegisterAll(registry *tools.Registry) error {
	allTools := []*tools.Tool{
		ReadFileTool(),
		WriteFileTool(),
		ListFilesTool(),

		GlobTool(),
		GrepTool(),
	}

	for _, tool := range allTools {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}
