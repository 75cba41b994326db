package schema

import (
	"errors"
	"fmt"

	"github.com/spektr-org/sockenstudie/engine"
)

// ============================================================================
// SCHEMA — Declarative survey layout consumed by the engine
// ============================================================================
// Each survey part maps to one aggregator kind plus the columns, bounds and
// display metadata it needs. Shipped embedded (Default), loaded from YAML or
// JSON (Load/Parse), or drafted from a dataset (Discover).
// ============================================================================

// ErrSectionNotFound is returned when a section id is not configured.
var ErrSectionNotFound = errors.New("section not found")

// Config describes a complete survey.
type Config struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Columns Columns `json:"columns" yaml:"columns"`

	// AllTags are group filter values that select every respondent.
	AllTags []string `json:"allTags,omitempty" yaml:"allTags,omitempty"`

	// UnknownLabel replaces a missing respondent name.
	UnknownLabel string `json:"unknownLabel,omitempty" yaml:"unknownLabel,omitempty"`

	// Placeholder is shown for questions without data.
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`

	Sections []engine.Section `json:"sections" yaml:"sections" validate:"required,min=1,dive"`

	// Auto-discovery metadata
	DiscoveredFrom string          `json:"discoveredFrom,omitempty" yaml:"discoveredFrom,omitempty"`
	SkippedColumns []SkippedColumn `json:"skippedColumns,omitempty" yaml:"skippedColumns,omitempty"`
}

// Columns names the respondent metadata columns.
type Columns struct {
	Group string `json:"group" yaml:"group" validate:"required"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Age   string `json:"age,omitempty" yaml:"age,omitempty"`
}

// SkippedColumn records why a column was left out during auto-discovery.
type SkippedColumn struct {
	Column string `json:"column" yaml:"column"`
	Reason string `json:"reason" yaml:"reason"`
}

// MissingColumn is a configured column that a dataset does not provide.
type MissingColumn struct {
	Column  string `json:"column"`
	Section string `json:"section,omitempty"` // empty for metadata columns
}

// Survey converts the config into the engine's layout.
func (c Config) Survey() engine.Survey {
	return engine.Survey{
		Tags: engine.TagKeys{
			Group:   c.Columns.Group,
			Name:    c.Columns.Name,
			Age:     c.Columns.Age,
			Unknown: c.UnknownLabel,
		},
		AllTags:  c.AllTags,
		Sections: c.Sections,
	}
}

// Engine builds an engine bound to this survey. The config placeholder is
// applied unless opts override it.
func (c Config) Engine(opts ...engine.Option) *engine.Engine {
	all := append([]engine.Option{engine.WithPlaceholder(c.Placeholder)}, opts...)
	return engine.New(c.Survey(), all...)
}

// Section looks up a section by id.
func (c Config) Section(id string) (engine.Section, error) {
	for _, s := range c.Sections {
		if s.ID == id {
			return s, nil
		}
	}
	return engine.Section{}, fmt.Errorf("%w: %q", ErrSectionNotFound, id)
}

// SectionIDs returns all section ids in declaration order.
func (c Config) SectionIDs() []string {
	ids := make([]string, len(c.Sections))
	for i, s := range c.Sections {
		ids[i] = s.ID
	}
	return ids
}

// ColumnKeys returns every column the survey reads, metadata first,
// without duplicates.
func (c Config) ColumnKeys() []string {
	seen := make(map[string]bool)
	var keys []string
	add := func(k string) {
		if k != "" && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	add(c.Columns.Group)
	add(c.Columns.Name)
	add(c.Columns.Age)
	for _, s := range c.Sections {
		for _, k := range s.Columns() {
			add(k)
		}
	}
	return keys
}

// CheckColumns reports configured columns absent from headers, metadata
// columns first, then section columns in declaration order.
func CheckColumns(c Config, headers []string) []MissingColumn {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	var missing []MissingColumn
	seen := make(map[string]bool)
	for _, k := range []string{c.Columns.Group, c.Columns.Name, c.Columns.Age} {
		if k != "" && !present[k] && !seen[k] {
			seen[k] = true
			missing = append(missing, MissingColumn{Column: k})
		}
	}
	for _, s := range c.Sections {
		for _, k := range s.Columns() {
			if !present[k] && !seen[k] {
				seen[k] = true
				missing = append(missing, MissingColumn{Column: k, Section: s.ID})
			}
		}
	}
	return missing
}
