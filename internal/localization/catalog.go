package localization

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed resources/notes.yaml
var defaultNotes []byte

const FallbackLanguage = "en"

// Localizer resolves a template key to text; unknown keys resolve to "".
type Localizer interface {
	Resolve(key string) string
}

// Catalog holds templates per language.
type Catalog struct {
	languages map[string]map[string]string
}

func LoadCatalog(r io.Reader) (*Catalog, error) {
	languages := map[string]map[string]string{}
	if err := yaml.NewDecoder(r).Decode(&languages); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding localization catalog: %w", err)
	}
	return &Catalog{languages: languages}, nil
}

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(defaultNotes))
}

// For returns a Localizer for lang that falls back to English per key.
func (c *Catalog) For(lang string) Localizer {
	return languageView{catalog: c, lang: lang}
}

func (c *Catalog) lookup(lang, key string) (string, bool) {
	v, ok := c.languages[lang][key]
	return v, ok
}

type languageView struct {
	catalog *Catalog
	lang    string
}

func (v languageView) Resolve(key string) string {
	if s, ok := v.catalog.lookup(v.lang, key); ok {
		return s
	}
	s, _ := v.catalog.lookup(FallbackLanguage, key)
	return s
}
