package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/grovetools/extdev/config"
)

// Regenerates the base configuration schema from the config types.
// Run from the repository root after changing anything in
// config/types.go, then fold the changes into
// schema/extdev.embedded.schema.json by hand.
func main() {
	schemaBytes, err := config.GenerateSchema()
	if err != nil {
		log.Fatalf("Error generating schema: %v", err)
	}

	outputDir := filepath.Join("schema", "definitions")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("Error creating schema directory: %v", err)
	}

	outputPath := filepath.Join(outputDir, "base.schema.json")
	if err := os.WriteFile(outputPath, schemaBytes, 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated base schema at %s", outputPath)
}
