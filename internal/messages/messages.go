// Package messages resolves message codes to localized text.
package messages

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// Codes referenced from Go code.
const (
	CodeSystemError  = "E0001"
	CodeDataAccess   = "E0002"
	CodeRateLimited  = "E0003"
	CodeLoginFailed  = "E0100"
	CodeInvalidToken = "E0102"
	CodeInvalidInput = "W0001"
	CodeCompleted    = "I0001"
	CodeLoggedOut    = "I0002"
	CodeReceived     = "I0003"
)

//go:embed locales/*.yaml
var localesFS embed.FS

// Bundle holds one message file per language. Codes missing in the requested
// language fall back to the default language, then to the code itself.
type Bundle struct {
	catalog   *catalog.Builder
	known     map[language.Tag]map[string]bool
	supported []language.Tag
	matcher   language.Matcher
}

// Load reads the embedded bundles. defaultLocale must be one of them.
func Load(defaultLocale string) (*Bundle, error) {
	return LoadFS(localesFS, "locales", defaultLocale)
}

// LoadFS reads every <lang>.yaml in dir.
func LoadFS(fsys fs.FS, dir, defaultLocale string) (*Bundle, error) {
	def, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("invalid default locale %q: %w", defaultLocale, err)
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read message bundles: %w", err)
	}

	b := &Bundle{
		catalog: catalog.NewBuilder(catalog.Fallback(def)),
		known:   map[language.Tag]map[string]bool{},
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || path.Ext(name) != ".yaml" {
			continue
		}
		tag, err := language.Parse(strings.TrimSuffix(name, ".yaml"))
		if err != nil {
			return nil, fmt.Errorf("bundle %s: %w", name, err)
		}

		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read bundle %s: %w", name, err)
		}
		var texts map[string]string
		if err := yaml.Unmarshal(raw, &texts); err != nil {
			return nil, fmt.Errorf("parse bundle %s: %w", name, err)
		}

		b.known[tag] = make(map[string]bool, len(texts))
		for code, text := range texts {
			if err := b.catalog.SetString(tag, code, text); err != nil {
				return nil, fmt.Errorf("bundle %s code %s: %w", name, code, err)
			}
			b.known[tag][code] = true
		}
		b.supported = append(b.supported, tag)
	}

	if _, ok := b.known[def]; !ok {
		return nil, fmt.Errorf("no message bundle for default locale %s", def)
	}

	// The matcher treats the first tag as its default.
	sort.SliceStable(b.supported, func(i, j int) bool {
		return b.supported[i] == def && b.supported[j] != def
	})
	b.matcher = language.NewMatcher(b.supported)
	return b, nil
}

// Default returns the fallback language.
func (b *Bundle) Default() language.Tag {
	return b.supported[0]
}

// Resolve formats code in the given language.
func (b *Bundle) Resolve(code string, args []string, tag language.Tag) string {
	tag = b.match(tag)
	if !b.known[tag][code] {
		tag = b.Default()
		if !b.known[tag][code] {
			return code
		}
	}

	p := message.NewPrinter(tag, message.Catalog(b.catalog))
	vals := make([]any, len(args))
	for i, a := range args {
		vals[i] = a
	}
	return p.Sprintf(code, vals...)
}

// Locale picks the best supported language from Accept-Language.
func (b *Bundle) Locale(r *http.Request) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return b.Default()
	}
	return b.match(tags...)
}

func (b *Bundle) match(tags ...language.Tag) language.Tag {
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return b.Default()
	}
	return b.supported[idx]
}
