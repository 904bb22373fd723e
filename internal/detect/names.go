package detect

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Names maps class indices to class names.
type Names map[int]string

// Name returns the class name for idx.
func (n Names) Name(idx int) (string, bool) {
	name, ok := n[idx]
	return name, ok
}

// Lookup returns the index of the class called name. When several indices
// share a name the smallest one wins.
func (n Names) Lookup(name string) (int, bool) {
	best, found := 0, false
	for idx, v := range n {
		if v == name && (!found || idx < best) {
			best, found = idx, true
		}
	}
	return best, found
}

// Sorted returns the class names ordered by index.
func (n Names) Sorted() []string {
	idx := make([]int, 0, len(n))
	for i := range n {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]string, len(idx))
	for i, k := range idx {
		out[i] = n[k]
	}
	return out
}

// namesEntry matches one `0: 'person'` pair of the dict literal Ultralytics
// stores in exported model metadata.
var namesEntry = regexp.MustCompile(`(\d+)\s*:\s*(?:'([^']*)'|"([^"]*)")`)

// ParseNames parses the `names` metadata string written by the Ultralytics
// exporter, e.g. "{0: 'person', 1: 'bicycle'}".
func ParseNames(s string) (Names, error) {
	matches := namesEntry.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("detect: no class names in %q", truncate(s, 64))
	}
	names := make(Names, len(matches))
	for _, m := range matches {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("detect: invalid class index %q: %w", m[1], err)
		}
		name := m[2]
		if name == "" {
			name = m[3]
		}
		names[idx] = name
	}
	return names, nil
}

// LoadNames reads class names from a YAML file. The `names` key may be a
// mapping of index to name or a list, as in Ultralytics dataset files.
func LoadNames(path string) (Names, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect: reading names file: %w", err)
	}

	var doc struct {
		Names yaml.Node `yaml:"names"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("detect: parsing names file: %w", err)
	}

	names := make(Names)
	switch doc.Names.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(doc.Names.Content); i += 2 {
			key, val := doc.Names.Content[i], doc.Names.Content[i+1]
			idx, err := strconv.Atoi(key.Value)
			if err != nil {
				return nil, fmt.Errorf("detect: names key %q is not an integer", key.Value)
			}
			names[idx] = val.Value
		}
	case yaml.SequenceNode:
		for i, val := range doc.Names.Content {
			names[i] = val.Value
		}
	default:
		return nil, fmt.Errorf("detect: %s has no names mapping or list", path)
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("detect: %s lists no class names", path)
	}
	return names, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
