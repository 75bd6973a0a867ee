package baseline

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ChangeKind classifies one configuration difference between two baselines.
type ChangeKind string

const (
	PluginAdded    ChangeKind = "plugin_added"
	PluginRemoved  ChangeKind = "plugin_removed"
	PluginChanged  ChangeKind = "plugin_changed"
	FilterAdded    ChangeKind = "filter_added"
	FilterRemoved  ChangeKind = "filter_removed"
	FilterChanged  ChangeKind = "filter_changed"
	WordlistRehash ChangeKind = "wordlist_rehashed"
)

// Change describes how a plugin or filter configuration moved between runs.
type Change struct {
	Kind    ChangeKind
	Subject string // plugin name or filter path
	Param   string // empty for added/removed
	Old     any
	New     any
}

func (c Change) String() string {
	switch c.Kind {
	case PluginAdded, PluginRemoved, FilterAdded, FilterRemoved:
		return fmt.Sprintf("%s %s", c.Kind, c.Subject)
	}
	return fmt.Sprintf("%s %s.%s: %v -> %v", c.Kind, c.Subject, c.Param, c.Old, c.New)
}

// Drift compares the configuration recorded in prev with cur. It only
// reports; recorded results are never invalidated by a difference.
func Drift(prev, cur *Baseline) []Change {
	var out []Change

	oldP := map[string]map[string]any{}
	for _, p := range prev.PluginsUsed {
		oldP[p.Name] = p.Params
	}
	newP := map[string]bool{}
	for _, p := range cur.PluginsUsed {
		newP[p.Name] = true
		old, ok := oldP[p.Name]
		if !ok {
			out = append(out, Change{Kind: PluginAdded, Subject: p.Name})
			continue
		}
		out = append(out, paramChanges(PluginChanged, p.Name, old, p.Params)...)
	}
	for _, p := range prev.PluginsUsed {
		if !newP[p.Name] {
			out = append(out, Change{Kind: PluginRemoved, Subject: p.Name})
		}
	}

	oldF := map[string]map[string]any{}
	for _, f := range prev.FiltersUsed {
		oldF[f.Path] = f.Params
	}
	newF := map[string]bool{}
	for _, f := range cur.FiltersUsed {
		newF[f.Path] = true
		old, ok := oldF[f.Path]
		if !ok {
			out = append(out, Change{Kind: FilterAdded, Subject: f.Path})
			continue
		}
		for _, c := range paramChanges(FilterChanged, f.Path, old, f.Params) {
			if c.Param == "file_hash" {
				c.Kind = WordlistRehash
			}
			out = append(out, c)
		}
	}
	for _, f := range prev.FiltersUsed {
		if !newF[f.Path] {
			out = append(out, Change{Kind: FilterRemoved, Subject: f.Path})
		}
	}
	return out
}

// paramChanges compares parameters by their JSON form so that a value read
// back from disk equals the one produced in memory.
func paramChanges(kind ChangeKind, subject string, old, cur map[string]any) []Change {
	var out []Change
	seen := map[string]bool{}
	for _, k := range sortedKeys(cur) {
		seen[k] = true
		if canonical(old[k]) != canonical(cur[k]) {
			out = append(out, Change{Kind: kind, Subject: subject, Param: k, Old: old[k], New: cur[k]})
		}
	}
	for _, k := range sortedKeys(old) {
		if !seen[k] {
			out = append(out, Change{Kind: kind, Subject: subject, Param: k, Old: old[k]})
		}
	}
	return out
}

func canonical(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	// json.Number and float64 forms of the same value must compare equal
	var round any
	if json.Unmarshal(b, &round) == nil {
		if b2, err := json.Marshal(round); err == nil {
			return string(b2)
		}
	}
	return string(b)
}

func sortedKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
