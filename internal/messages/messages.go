// Package messages renders localized player messages and hands them to a
// Sink. Catalogs are embedded YAML files, one per locale; configured
// overrides replace entries for the active language.
package messages

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/gsit/internal/foundation/errors"
	"git.home.luguber.info/inful/gsit/internal/logfields"
	"git.home.luguber.info/inful/gsit/internal/world"
)

// BaseLocale is the fallback language and must exist in the catalogs.
const BaseLocale = "en"

//go:embed locales/*.yaml
var embeddedLocales embed.FS

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Sink delivers rendered text to a player, e.g. on the action bar.
type Sink interface {
	Deliver(player world.Player, text string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(player world.Player, text string)

func (f SinkFunc) Deliver(player world.Player, text string) { f(player, text) }

// Service implements attach.Messenger.
type Service struct {
	mu      sync.RWMutex
	tag     language.Tag
	printer *message.Printer
	sink    Sink
}

// New loads the embedded catalogs and selects the closest match for lang.
func New(lang string, overrides map[string]string, sink Sink) (*Service, error) {
	s := &Service{sink: sink}
	if err := s.Reload(lang, overrides); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload rebuilds the catalog for a new language or override set.
func (s *Service) Reload(lang string, overrides map[string]string) error {
	files, err := loadLocales(embeddedLocales)
	if err != nil {
		return err
	}

	b := catalog.NewBuilder(catalog.Fallback(language.Make(BaseLocale)))
	var tags []language.Tag
	for _, f := range files {
		tag, err := language.Parse(f.Locale)
		if err != nil {
			return ferrors.ConfigError("invalid catalog locale").
				WithCause(err).
				WithContext("locale", f.Locale).
				Build()
		}
		tags = append(tags, tag)
		for key, text := range f.Messages {
			if err := b.SetString(tag, key, text); err != nil {
				return fmt.Errorf("register message %s/%s: %w", f.Locale, key, err)
			}
		}
	}

	requested, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return ferrors.ValidationError("invalid language tag").
			WithCause(err).
			WithContext("language", lang).
			Build()
	}
	_, idx, _ := language.NewMatcher(tags).Match(requested)
	tag := tags[idx]

	for key, text := range overrides {
		if err := b.SetString(tag, key, text); err != nil {
			return fmt.Errorf("register override %s: %w", key, err)
		}
	}

	s.mu.Lock()
	s.tag = tag
	s.printer = message.NewPrinter(tag, message.Catalog(b))
	s.mu.Unlock()
	return nil
}

// loadLocales returns the catalog files with the base locale first.
func loadLocales(fsys fs.FS) ([]catalogFile, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	sort.Strings(paths)

	var files []catalogFile
	haveBase := false
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		var f catalogFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
		if strings.TrimSpace(f.Locale) == "" {
			return nil, fmt.Errorf("catalog %s: locale is required", path)
		}
		if f.Locale == BaseLocale {
			haveBase = true
			files = append([]catalogFile{f}, files...)
			continue
		}
		files = append(files, f)
	}
	if !haveBase {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}
	return files, nil
}

// Language is the tag of the active catalog.
func (s *Service) Language() language.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tag
}

// Text renders key in the active language. Unknown keys render as themselves.
func (s *Service) Text(key string, args ...any) string {
	s.mu.RLock()
	p := s.printer
	s.mu.RUnlock()
	return p.Sprintf(key, args...)
}

// SendTransient renders key and delivers it. Invalid sessions are skipped.
func (s *Service) SendTransient(player world.Player, key string) {
	if s.sink == nil || player == nil || !player.IsValid() {
		return
	}
	text := s.Text(key)
	slog.Debug("Sending transient message", logfields.PlayerName(player.Name()), slog.String("key", key))
	s.sink.Deliver(player, text)
}
