package decision

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed weights.yaml
var defaultWeightsYAML []byte

// SlotProfile maps personality traits and context fields to signed
// coefficients for one option slot of a decision kind.
type SlotProfile struct {
	Traits  map[string]float64 `yaml:"traits"`
	Context map[string]float64 `yaml:"context"`
}

type tableFile struct {
	Decisions map[string]struct {
		Options []SlotProfile `yaml:"options"`
	} `yaml:"decisions"`
}

// Table holds the per-decision-kind weight configuration. Tables are
// read-only once loaded and safe to share across concurrent trials.
type Table struct {
	profiles map[Kind][]SlotProfile
}

var defaultTable = mustParseTable(defaultWeightsYAML)

// DefaultTable returns the embedded weight configuration.
func DefaultTable() *Table {
	return defaultTable
}

// LoadTable reads a weight table from a YAML file, for balance experiments
// that tweak decision tendencies without recompiling.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weight table: %w", err)
	}
	t, err := parseTable(data)
	if err != nil {
		return nil, fmt.Errorf("weight table %s: %w", path, err)
	}
	return t, nil
}

func parseTable(data []byte) (*Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	t := &Table{profiles: make(map[Kind][]SlotProfile, len(Kinds))}
	for _, kind := range Kinds {
		entry, ok := file.Decisions[string(kind)]
		if !ok || len(entry.Options) == 0 {
			return nil, fmt.Errorf("decision kind %q has no option profiles", kind)
		}
		for i, slot := range entry.Options {
			for name, c := range slot.Traits {
				if c < -1 || c > 1 {
					return nil, fmt.Errorf("decision %q option %d trait %q coefficient %v outside [-1,1]", kind, i, name, c)
				}
			}
			for name, c := range slot.Context {
				if c < -1 || c > 1 {
					return nil, fmt.Errorf("decision %q option %d context %q coefficient %v outside [-1,1]", kind, i, name, c)
				}
			}
		}
		t.profiles[kind] = entry.Options
	}

	for name := range file.Decisions {
		if _, ok := t.profiles[Kind(name)]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, name)
		}
	}
	return t, nil
}

func mustParseTable(data []byte) *Table {
	t, err := parseTable(data)
	if err != nil {
		panic(fmt.Sprintf("decision: embedded weight table invalid: %v", err))
	}
	return t
}

// profile returns the slot profile for an option index, repeating the last
// profile when the request has more options than configured slots.
func (t *Table) profile(kind Kind, slot int) (SlotProfile, bool) {
	slots, ok := t.profiles[kind]
	if !ok {
		return SlotProfile{}, false
	}
	if slot >= len(slots) {
		slot = len(slots) - 1
	}
	return slots[slot], true
}

// Override replaces the profiles of one kind, returning a new table that
// shares the remaining kinds. Used by scripted behavior profiles.
func (t *Table) Override(kind Kind, slots []SlotProfile) (*Table, error) {
	if _, ok := t.profiles[kind]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("decision kind %q has no option profiles", kind)
	}

	out := &Table{profiles: make(map[Kind][]SlotProfile, len(t.profiles))}
	for k, v := range t.profiles {
		out.profiles[k] = v
	}
	out.profiles[kind] = slots
	return out, nil
}
