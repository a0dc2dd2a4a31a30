// internal/util/util.go
package util

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// DocumentExtensions are the upload types the indexer understands.
var DocumentExtensions = []string{".txt", ".md", ".pdf"}

// ExpandPaths resolves files and directories into a sorted, de-duplicated list
// of files whose extension is in exts. Directories are walked recursively and
// hidden entries are skipped. Explicitly named files are kept regardless of extension.
func ExpandPaths(paths []string, exts []string) ([]string, error) {
	allowed := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(e)] = struct{}{}
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(root))
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if _, ok := allowed[strings.ToLower(filepath.Ext(path))]; ok {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	sort.Strings(out)
	return out, nil
}

// TruncateRunes shortens text to maxRunes runes plus an ellipsis. A
// non-positive limit yields the empty string.
func TruncateRunes(text string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	return string([]rune(text)[:maxRunes]) + "…"
}

// TruncateToWidth applies TruncateRunes to every line of text. A non-positive
// width leaves text unchanged.
func TruncateToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = TruncateRunes(line, width)
	}
	return strings.Join(lines, "\n")
}

// WrapToWidth word-wraps each line of text to width runes. Words longer than
// width are split; blank lines are kept.
func WrapToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		out = append(out, wrapLine(line, width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, width int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}

	var (
		lines []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, string(cur))
			cur = cur[:0]
		}
	}
	for _, w := range words {
		r := []rune(w)
		switch {
		case len(cur) > 0 && len(cur)+1+len(r) <= width:
			cur = append(append(cur, ' '), r...)
		case len(r) <= width:
			flush()
			cur = append(cur, r...)
		default:
			flush()
			for len(r) > width {
				lines = append(lines, string(r[:width]))
				r = r[width:]
			}
			cur = append(cur, r...)
		}
	}
	flush()
	return lines
}
