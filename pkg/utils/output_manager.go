package utils

import (
	"path/filepath"
	"strings"
)

// OutputManager places conversion outputs under a base directory.
type OutputManager struct {
	BaseOutputDir string
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// Resolve returns the path a destination is written to. Absolute paths and
// an empty or "." base leave the destination untouched.
func (om *OutputManager) Resolve(dest string) string {
	if filepath.IsAbs(dest) || om.BaseOutputDir == "" || om.BaseOutputDir == "." {
		return filepath.Clean(dest)
	}
	return filepath.Join(om.BaseOutputDir, dest)
}

// GetFileType determines the file type based on extension
func (om *OutputManager) GetFileType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return "csv"
	case ".json", ".jsonl", ".ndjson":
		return "json"
	case ".txt":
		return "text"
	default:
		return "unknown"
	}
}
