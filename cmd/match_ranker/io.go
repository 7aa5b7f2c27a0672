package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/match-ranker/internal/schemas"
)

// readRequest reads a JSON request file, validates it against an embedded
// schema and decodes it into v.
func readRequest(path, schemaName string, v any) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read input file %s: %w", path, err)
	}

	if err := schemas.ValidateDocument(schemaName, content); err != nil {
		return fmt.Errorf("input %s does not match schema: %w", path, err)
	}

	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("failed to unmarshal input JSON: %w", err)
	}
	return nil
}

// writeJSON writes v as indented JSON, creating the output directory if needed.
func writeJSON(path string, v any) error {
	jsonOutput, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output to JSON: %w", err)
	}

	// Ensure output directory exists
	outputDir := filepath.Dir(path)
	if outputDir != "" && outputDir != "." {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
		}
	}

	if err := os.WriteFile(path, jsonOutput, 0644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", path, err)
	}
	return nil
}
