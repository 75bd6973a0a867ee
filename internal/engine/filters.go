package engine

import "strings"

var defaultExcludeDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"target":       true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	"coverage":     true,
	".tox":         true,
}

// suffixes treated as non-text or generated when default excludes are on
var defaultExcludeFileSuffixes = []string{
	".min.js", ".map",
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".ico",
	".pdf", ".zip", ".gz", ".tar", ".tgz", ".7z",
	".jar", ".class", ".exe", ".dll", ".so",
	".wasm", ".pyc",
	".pb.go",
}

// exact filenames skipped when default excludes are on; lock files are
// handled by the heuristic.is_lock_file filter instead so that they still
// show up when a user opts into scanning them
var defaultExcludeFileNames = map[string]bool{
	".ds_store": true,
}

// tool state that must never be scanned as input
var internalFiles = map[string]bool{
	".baselinercache.json":     true,
	".baseliner_history.jsonl": true,
}

func isDefaultDirExcluded(name string) bool {
	return defaultExcludeDirs[name]
}

func isDefaultFileExcluded(lowerRel string) bool {
	for _, s := range defaultExcludeFileSuffixes {
		if strings.HasSuffix(lowerRel, s) {
			return true
		}
	}
	base := lowerRel
	if i := strings.LastIndex(lowerRel, "/"); i >= 0 {
		base = lowerRel[i+1:]
	}
	return defaultExcludeFileNames[base]
}
