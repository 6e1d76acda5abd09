package assets

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Metadata extraction patterns. The first block comment in a CSS file
// supplies the display name and description; custom properties with the
// --font- or --theme- prefix supply the variable mappings.
var (
	blockCommentPattern = regexp.MustCompile(`/\*\s*([^*]+?)\s*\*/`)
	fontVarPattern      = regexp.MustCompile(`--font-(\w+):\s*([^;]+);`)
	themeVarPattern     = regexp.MustCompile(`--theme-(\w+):\s*([^;]+);`)
)

var titleCaser = cases.Title(language.English)

// metadata holds the best-effort information extracted from one CSS file.
type metadata struct {
	Name        string
	Description string
	Vars        map[string]string
}

// extractMetadata parses CSS text for descriptor metadata. It never fails:
// missing comments or variables leave the corresponding fields empty and the
// caller applies key-derived defaults. varPattern selects which custom
// property prefix is harvested (fonts for styles, colors for themes).
func extractMetadata(css string, varPattern *regexp.Regexp) metadata {
	var meta metadata

	if m := blockCommentPattern.FindStringSubmatch(css); m != nil {
		text := strings.TrimSpace(m[1])
		meta.Name = text
		meta.Description = text
	}

	if matches := varPattern.FindAllStringSubmatch(css, -1); len(matches) > 0 {
		meta.Vars = make(map[string]string, len(matches))
		for _, m := range matches {
			meta.Vars[m[1]] = strings.TrimSpace(m[2])
		}
	}

	return meta
}

// defaultName title-cases a file key for use as a fallback display name.
func defaultName(key string) string {
	return titleCaser.String(strings.NewReplacer("-", " ", "_", " ").Replace(key))
}
