package schema

import (
	"strings"
	"sync"
)

// TagRegistry holds composed-tag definitions: a named tag that expands into
// other tags, the way meta-annotations compose in mapping frameworks. A
// composed tag may reference further composed tags; resolution recurses
// depth-first with a visited set so self-referential definitions terminate.
type TagRegistry struct {
	mu   sync.RWMutex
	defs map[string][]Tag
}

// NewTagRegistry returns a registry pre-loaded with the built-in composed
// tags: createdAt (timestamp on insert) and updatedAt (timestamp on insert and
// update).
func NewTagRegistry() *TagRegistry {
	r := &TagRegistry{defs: make(map[string][]Tag)}
	r.Define("createdAt", Tag{Name: "generated", Args: map[string]string{"value": "timestamp"}})
	r.Define("updatedAt", Tag{Name: "generated", Args: map[string]string{"value": "timestamp", "onUpdate": "true"}})
	return r
}

// Define registers a composed tag. Redefining replaces the previous expansion.
func (r *TagRegistry) Define(name string, expansion ...Tag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[name] = expansion
}

// Resolve expands every composed tag in the declared list. The result keeps
// declaration order, includes the composed tag names themselves ahead of their
// expansions, and keeps only the first occurrence of each tag name.
func (r *TagRegistry) Resolve(declared []Tag) []Tag {
	all := r.ResolveAll(declared)
	out := make([]Tag, 0, len(all))
	seen := make(map[string]bool, len(all))
	for _, t := range all {
		if seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		out = append(out, t)
	}
	return out
}

// ResolveAll is Resolve without the per-name deduplication: repeatable tags
// (several generated rules on one field) keep every occurrence. Each declared
// tag is expanded depth-first; a composed tag already on the current expansion
// is skipped, which breaks self-referential and mutually recursive
// definitions.
func (r *TagRegistry) ResolveAll(declared []Tag) []Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Tag
	for _, t := range declared {
		out = r.expand(t, out, make(map[string]bool))
	}
	return out
}

func (r *TagRegistry) expand(t Tag, out []Tag, visiting map[string]bool) []Tag {
	if visiting[t.Name] {
		return out
	}
	visiting[t.Name] = true

	out = append(out, t)
	for _, sub := range r.defs[t.Name] {
		out = r.expand(sub, out, visiting)
	}
	return out
}

// parseTagList parses the contents of a `kuru:"..."` struct tag. Tags are
// comma-separated; each tag is "name", "name=value", or "name=value;flag;k=v".
func parseTagList(raw string) []Tag {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []Tag
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ";")
		tag := Tag{Args: make(map[string]string)}
		for i, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			key, value, hasValue := strings.Cut(part, "=")
			if i == 0 {
				tag.Name = key
				if hasValue {
					tag.Args["value"] = value
				}
				continue
			}
			if hasValue {
				tag.Args[key] = value
			} else {
				tag.Args[key] = "true"
			}
		}
		if tag.Name != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
