package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

//go:embed styles/*.css themes/*.css
var embedded embed.FS

// StyleDescriptor describes one discovered typography/layout template.
// Immutable once discovered.
type StyleDescriptor struct {
	Key         string            // filename stem, the lookup key
	Name        string            // display name from the first block comment
	Description string            // description from the first block comment
	Fonts       map[string]string // --font-* custom properties
	Source      string            // origin of the CSS (embedded path or file path)

	css string
}

// ThemeDescriptor describes one discovered color palette template.
// Immutable once discovered.
type ThemeDescriptor struct {
	Key         string
	Name        string
	Description string
	Colors      map[string]string // --theme-* custom properties
	Source      string

	css string
}

// Registry discovers styles and themes and composes (style, theme) pairs
// into a single CSS payload. Discovery runs once per Registry and the
// results are cached for its lifetime; the filesystem is assumed static
// for the process. Safe for concurrent use after construction.
type Registry struct {
	overlayStyles string // optional directory overriding embedded styles
	overlayThemes string // optional directory overriding embedded themes

	stylesOnce sync.Once
	styles     map[string]StyleDescriptor

	themesOnce sync.Once
	themes     map[string]ThemeDescriptor

	mu       sync.Mutex
	composed map[string]string // cache keyed by "style\x00theme"
}

// NewRegistry creates a Registry backed by the embedded default assets only.
func NewRegistry() *Registry {
	return &Registry{composed: make(map[string]string)}
}

// NewRegistryWithPath creates a Registry whose embedded defaults are overlaid
// by CSS files found under {basePath}/styles and {basePath}/themes. Either
// subdirectory may be absent. Returns ErrInvalidBasePath if basePath itself
// is not a readable directory.
func NewRegistryWithPath(basePath string) (*Registry, error) {
	if basePath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, absPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, absPath)
	}

	return &Registry{
		overlayStyles: filepath.Join(absPath, "styles"),
		overlayThemes: filepath.Join(absPath, "themes"),
		composed:      make(map[string]string),
	}, nil
}

// Styles returns all discovered styles keyed by filename stem.
// The first call performs discovery; later calls return the cache.
func (r *Registry) Styles() map[string]StyleDescriptor {
	r.stylesOnce.Do(func() {
		r.styles = make(map[string]StyleDescriptor)
		forEachCSS(embedded, "styles", r.overlayStyles, func(key, source, css string) {
			meta := extractMetadata(css, fontVarPattern)
			r.styles[key] = StyleDescriptor{
				Key:         key,
				Name:        orDefault(meta.Name, defaultName(key)),
				Description: orDefault(meta.Description, defaultName(key)+" style"),
				Fonts:       meta.Vars,
				Source:      source,
				css:         css,
			}
		})
	})
	return r.styles
}

// Themes returns all discovered themes keyed by filename stem.
func (r *Registry) Themes() map[string]ThemeDescriptor {
	r.themesOnce.Do(func() {
		r.themes = make(map[string]ThemeDescriptor)
		forEachCSS(embedded, "themes", r.overlayThemes, func(key, source, css string) {
			meta := extractMetadata(css, themeVarPattern)
			r.themes[key] = ThemeDescriptor{
				Key:         key,
				Name:        orDefault(meta.Name, defaultName(key)),
				Description: orDefault(meta.Description, defaultName(key)+" theme"),
				Colors:      meta.Vars,
				Source:      source,
				css:         css,
			}
		})
	})
	return r.themes
}

// StyleKeys returns the sorted list of available style keys.
func (r *Registry) StyleKeys() []string {
	styles := r.Styles()
	keys := make([]string, 0, len(styles))
	for k := range styles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ThemeKeys returns the sorted list of available theme keys.
func (r *Registry) ThemeKeys() []string {
	themes := r.Themes()
	keys := make([]string, 0, len(themes))
	for k := range themes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Combinations returns every (style, theme) key pair, styles outer, both sorted.
func (r *Registry) Combinations() [][2]string {
	var combos [][2]string
	for _, s := range r.StyleKeys() {
		for _, t := range r.ThemeKeys() {
			combos = append(combos, [2]string{s, t})
		}
	}
	return combos
}

// Compose concatenates the theme CSS followed by the style CSS so that style
// rules can override theme defaults through normal cascade order. Results are
// cached per (style, theme) pair. Returns ErrStyleNotFound or ErrThemeNotFound
// naming the missing key and listing the valid alternatives.
func (r *Registry) Compose(styleKey, themeKey string) (string, error) {
	cacheKey := styleKey + "\x00" + themeKey

	r.mu.Lock()
	if css, ok := r.composed[cacheKey]; ok {
		r.mu.Unlock()
		return css, nil
	}
	r.mu.Unlock()

	style, ok := r.Styles()[styleKey]
	if !ok {
		return "", fmt.Errorf("%w: %q (available: %s)",
			ErrStyleNotFound, styleKey, strings.Join(r.StyleKeys(), ", "))
	}
	theme, ok := r.Themes()[themeKey]
	if !ok {
		return "", fmt.Errorf("%w: %q (available: %s)",
			ErrThemeNotFound, themeKey, strings.Join(r.ThemeKeys(), ", "))
	}

	css := theme.css + "\n\n" + style.css

	r.mu.Lock()
	r.composed[cacheKey] = css
	r.mu.Unlock()

	return css, nil
}

// forEachCSS yields every CSS file from the embedded directory and then from
// the optional overlay directory, so overlay entries replace embedded ones
// with the same stem. A file that cannot be read is skipped: one bad file
// never aborts discovery.
func forEachCSS(embedFS embed.FS, embedDir, overlayDir string, fn func(key, source, css string)) {
	entries, err := fs.ReadDir(embedFS, embedDir)
	if err == nil {
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".css") {
				continue
			}
			data, err := embedFS.ReadFile(embedDir + "/" + e.Name())
			if err != nil {
				continue
			}
			fn(strings.TrimSuffix(e.Name(), ".css"), "embedded:"+embedDir+"/"+e.Name(), string(data))
		}
	}

	if overlayDir == "" {
		return
	}
	osEntries, err := os.ReadDir(overlayDir)
	if err != nil {
		return // overlay directory absent or unreadable, embedded set stands
	}
	for _, e := range osEntries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".css") {
			continue
		}
		path := filepath.Join(overlayDir, e.Name())
		data, err := os.ReadFile(path) // #nosec G304 -- overlay dir is caller-configured
		if err != nil {
			continue
		}
		fn(strings.TrimSuffix(e.Name(), ".css"), path, string(data))
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
