package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
)

// SchemaJSON reflects the configuration structure into a JSON schema.
func SchemaJSON() ([]byte, error) {
	r := new(jsonschema.Reflector)
	schema := r.Reflect(&Config{})

	schema.ID = "https://github.com/emberhost/emberview/config.schema.json"
	schema.Title = "emberview Configuration"
	schema.Description = "Configuration schema for emberview, an embedded mini-app view manager"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("config: marshaling schema: %w", err)
	}
	return data, nil
}

// GenerateSchemaFile writes config.schema.json into dir.
func GenerateSchemaFile(dir string) error {
	data, err := SchemaJSON()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "config.schema.json")
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("config: writing schema file: %w", err)
	}
	return nil
}
