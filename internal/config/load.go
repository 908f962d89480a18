package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// DefaultPath is the conventional config location used when no -config
// flag is given.
const DefaultPath = "./config.yaml"

// Load reads and decodes a config file. YAML and JSON are both
// accepted; either way the document is decoded strictly so unknown
// keys fail fast. Load does not validate cross-references; call
// Config.Validate for that.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, b)
}

// Parse decodes config bytes. The path is only used to pick the
// decoder (by extension) and for error messages.
//
// Duplicate keys: YAML input fails on a repeated mapping key (the
// parser enforces it); JSON input follows encoding/json, where the
// last duplicate wins.
func Parse(path string, b []byte) (*Config, error) {
	jb, format, err := toJSON(path, b)
	if err != nil {
		return nil, fmt.Errorf("parse %s config %s: %w", format, path, err)
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("decode config %s: trailing data", path)
		}
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return &cfg, nil
}
