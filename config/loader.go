package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"propertyreport/internal/models"
)

// LoadInputFile reads a YAML report input. Relative image paths and the
// image directory are resolved against the directory of the file.
func LoadInputFile(path string) (models.ReportInput, error) {
	var in models.ReportInput

	data, err := os.ReadFile(path)
	if err != nil {
		return in, fmt.Errorf("failed to read input file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil {
		return in, fmt.Errorf("failed to parse input file %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for section, paths := range in.Images {
		resolved := make([]string, len(paths))
		for i, p := range paths {
			resolved[i] = resolvePath(base, p)
		}
		in.Images[section] = resolved
	}
	if in.ImageDir != "" {
		in.ImageDir = resolvePath(base, in.ImageDir)
	}
	return in, nil
}

// SaveInputFile writes a report input as YAML.
func SaveInputFile(path string, in models.ReportInput) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(in); err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write input file: %w", err)
	}
	return nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
