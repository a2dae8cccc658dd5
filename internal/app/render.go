package app

import (
	"encoding/json"
	"fmt"

	"sesearch/internal/cli/scheme/colours"
	"sesearch/internal/domain/source"

	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// SourceEntry is one dc:source URL and the provider it maps to
type SourceEntry struct {
	URL      string          `json:"url" yaml:"url"`
	Provider source.Provider `json:"provider" yaml:"provider"`
}

// HathiEntry is one resolved HathiTrust catalog record
type HathiEntry struct {
	Catalog string `json:"catalog" yaml:"catalog"`
	ID      string `json:"id" yaml:"id"`
}

func (ss *SourceSearch) render(res source.Result) error {
	switch ss.format {
	case formatText:
		for _, m := range res.Matches {
			colours.Provider.Fprintf(ss.out, "%-20s", m.Provider)
			colours.URL.Fprintln(ss.out, m.SearchURL)
		}
		return nil
	default:
		return ss.encode(res)
	}
}

func (ss *SourceSearch) renderSources(entries []SourceEntry) error {
	switch ss.format {
	case formatText:
		for _, e := range entries {
			colours.Provider.Fprintf(ss.out, "%-20s", e.Provider)
			fmt.Fprintln(ss.out, e.URL)
		}
		return nil
	default:
		return ss.encode(entries)
	}
}

func (ss *SourceSearch) renderHathi(entries []HathiEntry) error {
	switch ss.format {
	case formatText:
		for _, e := range entries {
			fmt.Fprintf(ss.out, "%s\t", e.Catalog)
			colours.Success.Fprintln(ss.out, e.ID)
		}
		return nil
	default:
		return ss.encode(entries)
	}
}

func (ss *SourceSearch) encode(v any) error {
	switch ss.format {
	case formatJSON:
		encoder := json.NewEncoder(ss.out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	case formatYAML:
		encoder := yaml.NewEncoder(ss.out)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", ss.format)
	}
}
