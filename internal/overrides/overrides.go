// Package overrides holds static identity corrections for entities whose
// upstream records carry wrong or missing handles, logos or display names.
// The tables live in tables.yaml and are embedded at build time.
package overrides

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var rawTables []byte

type tables struct {
	Handles      map[string]string `yaml:"handles"`
	Logos        map[string]string `yaml:"logos"`
	DisplayNames map[string]string `yaml:"display_names"`
	Exclusions   []string          `yaml:"exclusions"`
}

var (
	tbl        tables
	exclusions map[string]bool
)

func init() {
	if err := yaml.Unmarshal(rawTables, &tbl); err != nil {
		panic(fmt.Sprintf("overrides: parse tables.yaml: %v", err))
	}
	exclusions = make(map[string]bool, len(tbl.Exclusions))
	for _, name := range tbl.Exclusions {
		exclusions[strings.ToLower(name)] = true
	}
}

// Handle resolves the X handle for an entity. The entity-name entry wins;
// failing that, a correction keyed by the fallback handle itself applies;
// otherwise the fallback is returned unchanged.
func Handle(entityName, fallback string) string {
	if h, ok := tbl.Handles[strings.ToLower(strings.TrimSpace(entityName))]; ok {
		return h
	}
	if h, ok := tbl.Handles[strings.ToLower(strings.TrimSpace(fallback))]; ok {
		return h
	}
	return fallback
}

// Logo resolves the logo URL for an entity, preferring the override entry.
func Logo(entityName, fallback string) string {
	if u, ok := tbl.Logos[strings.ToLower(strings.TrimSpace(entityName))]; ok {
		return u
	}
	return fallback
}

// DisplayName returns the corrected display name, or the name unchanged.
func DisplayName(entityName string) string {
	if n, ok := tbl.DisplayNames[strings.ToLower(strings.TrimSpace(entityName))]; ok {
		return n
	}
	return entityName
}

// Excluded reports whether an entity is on the static exclusion list.
// Excluded entities are dropped before any metric resolution.
func Excluded(entityName string) bool {
	return exclusions[strings.ToLower(strings.TrimSpace(entityName))]
}
