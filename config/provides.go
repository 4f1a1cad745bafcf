// Package config loads Provides values from configuration files so that
// override descriptors can be fed from YAML documents and dotenv files.
//
// Example:
//
//	base, err := config.LoadYAML("config.yaml")
//	env, err := config.LoadEnv(".env")
//	d := nasc.Descriptor{Provides: config.Overlay(base, env)}
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	nasc "github.com/toutaio/toutago-nasc-resolver"
)

// DecodeYAML decodes a YAML mapping into Provides. Top-level keys become
// provide names; nested mappings are kept as map[string]any values.
// An empty document yields empty Provides.
func DecodeYAML(r io.Reader) (nasc.Provides, error) {
	provides := nasc.Provides{}
	if err := yaml.NewDecoder(r).Decode(&provides); err != nil {
		if errors.Is(err, io.EOF) {
			return nasc.Provides{}, nil
		}
		return nil, fmt.Errorf("failed to decode provides: %w", err)
	}
	if provides == nil {
		// A document holding only null.
		provides = nasc.Provides{}
	}
	return provides, nil
}

// LoadYAML reads Provides from the YAML file at path.
func LoadYAML(path string) (nasc.Provides, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	provides, err := DecodeYAML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return provides, nil
}

// LoadEnv reads dotenv files into Provides. Values are strings. Later
// files win on duplicate keys. The process environment is left untouched.
// With no paths, ".env" is read.
func LoadEnv(paths ...string) (nasc.Provides, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	provides := nasc.Provides{}
	for _, path := range paths {
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for k, v := range values {
			provides[k] = v
		}
	}
	return provides, nil
}

// Overlay merges layers into a fresh Provides. Later layers win, the same
// way an override descriptor's Provides win over the base.
func Overlay(layers ...nasc.Provides) nasc.Provides {
	merged := nasc.Provides{}
	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}
	return merged
}
