package errors

import (
	"strings"
	"unicode"
)

// ValidateLevelName validates a level directory name for safety and correctness.
// It rejects names that could be used for path traversal or injection attacks.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - No null bytes
//   - Maximum length of 128 characters
func ValidateLevelName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidLevel, "level name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidLevel, "level name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidLevel, "level name contains invalid control characters")
		}
	}

	// A level name is a single directory component
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidLevel, "level name cannot contain path separators")
	}
	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidLevel, "level name cannot contain path traversal sequences (..)")
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidLevel, "level name cannot be a hidden directory")
	}

	return nil
}

// ValidateRefPath validates an asset reference path read from a container file.
// Reference paths come from files the engine does not control, so anything
// that could escape the level or game directory is rejected.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//
// Absolute-looking paths such as "/levels/west_coast/art/x.dds" are allowed:
// the game's own container formats write them, and the resolver maps them
// back under its configured roots.
func ValidateRefPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "reference path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "reference path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "reference path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "reference path cannot contain path traversal sequences (..)")
	}

	return nil
}

// ValidateNodeName validates an asset node name (display or internal).
// Node names key duplicate detection and reference rewriting, so control
// characters and NDJSON-breaking newlines are rejected.
func ValidateNodeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "node name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "node name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node name contains invalid control characters")
		}
	}

	return nil
}
