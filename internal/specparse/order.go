package specparse

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MereWhiplash/specrag/internal/types"
)

// orderIndex records source key order that the typed loader discards:
// path order, request-body media type order and response code order.
type orderIndex struct {
	root      *yaml.Node
	paths     []string
	content   map[string][]string
	responses map[string][]string
}

func opKey(path, verb string) string {
	return verb + " " + path
}

func buildOrderIndex(data []byte) (*orderIndex, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	idx := &orderIndex{
		root:      root,
		content:   make(map[string][]string),
		responses: make(map[string][]string),
	}

	paths := mappingValue(root, "paths")
	if paths == nil || paths.Kind != yaml.MappingNode {
		return idx, nil
	}

	for i := 0; i+1 < len(paths.Content); i += 2 {
		path := paths.Content[i].Value
		idx.paths = append(idx.paths, path)

		item := idx.resolve(paths.Content[i+1])
		for _, verb := range types.Verbs {
			op := idx.resolve(mappingValue(item, verb))
			if op == nil {
				continue
			}
			key := opKey(path, verb)
			if body := idx.resolve(mappingValue(op, "requestBody")); body != nil {
				idx.content[key] = mappingKeys(mappingValue(body, "content"))
			}
			idx.responses[key] = mappingKeys(idx.resolve(mappingValue(op, "responses")))
		}
	}

	return idx, nil
}

// resolve follows local "#/..." references inside the document.
func (idx *orderIndex) resolve(node *yaml.Node) *yaml.Node {
	for depth := 0; node != nil && depth < 16; depth++ {
		ref := mappingValue(node, "$ref")
		if ref == nil || !strings.HasPrefix(ref.Value, "#/") {
			return node
		}
		target := idx.root
		for _, seg := range strings.Split(strings.TrimPrefix(ref.Value, "#/"), "/") {
			seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
			target = mappingValue(target, seg)
			if target == nil {
				return node
			}
		}
		node = target
	}
	return node
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func mappingKeys(node *yaml.Node) []string {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	return keys
}

// ordered returns the keys of present in source order, followed by any keys
// the source order did not cover, sorted.
func ordered[V any](present map[string]V, order []string) []string {
	out := make([]string, 0, len(present))
	seen := make(map[string]bool, len(present))
	for _, k := range order {
		if _, ok := present[k]; ok && !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range present {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
