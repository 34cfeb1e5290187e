package utils

import (
	"embed"
	"path"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"
)

//go:embed locales/*.yaml
var locales embed.FS

var messageFiles = []string{"en.yaml", "zh-TW.yaml"}

// NewI18NBundle loads the bundled message files. English is the default.
func NewI18NBundle() (*i18n.Bundle, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)
	for _, name := range messageFiles {
		if _, err := bundle.LoadMessageFileFS(locales, path.Join("locales", name)); err != nil {
			return nil, err
		}
	}
	return bundle, nil
}

func NewLocalizer(bundle *i18n.Bundle, lang string) *i18n.Localizer {
	return i18n.NewLocalizer(bundle, lang)
}
