package models

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var aliasesYAML []byte

// AliasTable maps normalised header text to a canonical column name.
type AliasTable struct {
	byHeader map[string]string
}

var (
	defaultAliases     *AliasTable
	defaultAliasesErr  error
	defaultAliasesOnce sync.Once
)

// DefaultAliases returns the alias table compiled into the binary.
// It panics if the embedded data is malformed, which only a broken build can cause.
func DefaultAliases() *AliasTable {
	defaultAliasesOnce.Do(func() {
		defaultAliases, defaultAliasesErr = ParseAliases(aliasesYAML)
	})
	if defaultAliasesErr != nil {
		panic(fmt.Sprintf("embedded alias table: %v", defaultAliasesErr))
	}
	return defaultAliases
}

// ParseAliases builds an alias table from YAML of the form `column: [header, ...]`.
// Every canonical column also matches itself, and a header may belong to only one column.
func ParseAliases(data []byte) (*AliasTable, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse alias table: %w", err)
	}

	t := &AliasTable{byHeader: make(map[string]string)}
	for _, col := range SourceColumns {
		t.byHeader[NormalizeHeader(col)] = col
	}

	known := make(map[string]bool, len(SourceColumns))
	for _, col := range SourceColumns {
		known[col] = true
	}

	for col, headers := range raw {
		if !known[col] {
			return nil, fmt.Errorf("alias table names unknown column %q", col)
		}
		for _, h := range headers {
			key := NormalizeHeader(h)
			if key == "" {
				continue
			}
			if existing, ok := t.byHeader[key]; ok && existing != col {
				return nil, fmt.Errorf("header %q maps to both %s and %s", h, existing, col)
			}
			t.byHeader[key] = col
		}
	}
	return t, nil
}

// Canonical resolves a raw header to its canonical column.
func (t *AliasTable) Canonical(header string) (string, bool) {
	col, ok := t.byHeader[NormalizeHeader(header)]
	return col, ok
}

// With returns a copy of the table where header additionally maps to column,
// taking precedence over any existing mapping for that header.
func (t *AliasTable) With(header, column string) *AliasTable {
	out := &AliasTable{byHeader: make(map[string]string, len(t.byHeader)+1)}
	for k, v := range t.byHeader {
		out.byHeader[k] = v
	}
	if key := NormalizeHeader(header); key != "" {
		out.byHeader[key] = column
	}
	return out
}

// NormalizeHeader lower-cases a header and collapses internal whitespace.
// Underscores count as spaces so "pcb_sr_no" and "PCB Sr No" meet.
func NormalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "_", " ")
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}
