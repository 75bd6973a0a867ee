package baseline

import (
	"fmt"

	"github.com/blang/semver/v4"
	"github.com/redactyl/baseliner/internal/filters"
)

// migration rewrites a decoded baseline from the previous version to To.
// Transforms are pure apart from mutating the map they are given.
type migration struct {
	To    semver.Version
	Apply func(raw map[string]any) error
}

var migrations = []migration{
	{To: semver.MustParse("1.0.0"), Apply: migrateLegacy},
	{To: semver.MustParse("1.1.0"), Apply: migrateClassification},
}

// Upgrade brings a decoded baseline to CurrentVersion, applying every
// migration newer than its recorded version exactly once, in order.
// A baseline already at the current version is returned unchanged.
func Upgrade(raw map[string]any) (map[string]any, error) {
	vs, ok := raw["version"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: version must be a string, got %T", ErrMigration, raw["version"])
	}
	v, err := semver.ParseTolerant(vs)
	if err != nil {
		return nil, fmt.Errorf("%w: version %q: %v", ErrMigration, vs, err)
	}
	current := semver.MustParse(CurrentVersion)
	if v.GT(current) {
		return nil, fmt.Errorf("%w: version %s is newer than supported %s", ErrMigration, v, current)
	}
	for _, m := range migrations {
		if v.GTE(m.To) {
			continue
		}
		if err := m.Apply(raw); err != nil {
			return nil, fmt.Errorf("upgrade to %s: %w", m.To, err)
		}
		v = m.To
		raw["version"] = v.String()
	}
	return raw, nil
}

// migrateLegacy handles 0.x documents: records gain a filename, entropy
// limits share one parameter name and the top-level exclude block becomes
// regex filters.
func migrateLegacy(raw map[string]any) error {
	plugins, err := listOfMaps(raw, "plugins_used")
	if err != nil {
		return err
	}
	for _, p := range plugins {
		if _, ok := p["name"].(string); !ok {
			return fmt.Errorf("%w: plugin without a name", ErrMigration)
		}
		for _, old := range []string{"hex_limit", "base64_limit"} {
			if v, ok := p[old]; ok {
				p["limit"] = v
				delete(p, old)
			}
		}
	}

	results, ok := raw["results"].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: results must be an object, got %T", ErrMigration, raw["results"])
	}
	for name, v := range results {
		list, ok := v.([]any)
		if !ok {
			return fmt.Errorf("%w: results[%q] must be a list, got %T", ErrMigration, name, v)
		}
		for _, item := range list {
			rec, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: results[%q] holds %T", ErrMigration, name, item)
			}
			rec["filename"] = name
		}
	}

	var fs []any
	if existing, ok := raw["filters_used"]; ok {
		if fs, ok = existing.([]any); !ok {
			return fmt.Errorf("%w: filters_used must be a list, got %T", ErrMigration, existing)
		}
	} else {
		for _, c := range filters.DefaultConfigs() {
			fs = append(fs, map[string]any{"path": c.ID})
		}
	}
	if ex, ok := raw["exclude"]; ok && ex != nil {
		exclude, ok := ex.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: exclude must be an object, got %T", ErrMigration, ex)
		}
		for _, kv := range []struct{ key, id string }{
			{"files", filters.RegexFileID},
			{"lines", filters.RegexLineID},
		} {
			v, ok := exclude[kv.key]
			if !ok || v == nil {
				continue
			}
			pattern, ok := v.(string)
			if !ok {
				return fmt.Errorf("%w: exclude.%s must be a string, got %T", ErrMigration, kv.key, v)
			}
			if pattern != "" {
				fs = append(fs, map[string]any{"path": kv.id, "pattern": []any{pattern}})
			}
		}
		delete(raw, "exclude")
	}
	raw["filters_used"] = fs
	return nil
}

// migrateClassification replaces the is_secret tri-state with an explicit
// classification and drops the verification flag.
func migrateClassification(raw map[string]any) error {
	results, ok := raw["results"].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: results must be an object, got %T", ErrMigration, raw["results"])
	}
	for name, v := range results {
		list, ok := v.([]any)
		if !ok {
			return fmt.Errorf("%w: results[%q] must be a list, got %T", ErrMigration, name, v)
		}
		for _, item := range list {
			rec, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: results[%q] holds %T", ErrMigration, name, item)
			}
			c := Unclassified
			switch s := rec["is_secret"].(type) {
			case nil:
			case bool:
				if s {
					c = Secret
				} else {
					c = FalsePositive
				}
			default:
				return fmt.Errorf("%w: results[%q]: is_secret must be a boolean, got %T", ErrMigration, name, s)
			}
			if _, has := rec["classification"]; !has {
				rec["classification"] = string(c)
			}
			delete(rec, "is_secret")
			delete(rec, "is_verified")
		}
	}
	return nil
}

func listOfMaps(raw map[string]any, key string) ([]map[string]any, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a list, got %T", ErrMigration, key, v)
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s holds %T", ErrMigration, key, item)
		}
		out = append(out, m)
	}
	return out, nil
}
