// Package schemas embeds the JSON Schemas for the CLI request documents.
package schemas

import (
	"embed"
	"fmt"
)

// Schema file names.
const (
	RankRequest   = "rank_request.schema.json"
	FilterRequest = "filter_request.schema.json"
)

//go:embed *.schema.json
var files embed.FS

// Load returns the content of an embedded schema file.
func Load(name string) (string, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read embedded schema %s: %w", name, err)
	}
	return string(data), nil
}

// Names lists every embedded schema file.
func Names() []string {
	return []string{RankRequest, FilterRequest}
}
