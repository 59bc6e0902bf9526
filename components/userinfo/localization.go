package userinfo

import (
	"context"
	"strings"
)

const (
	defaultLoadingMessage = "Getting user info..."
	defaultEmptyMessage   = "No user information found."

	loadingMessageKey = "userinfo.widget.loading"
	emptyMessageKey   = "userinfo.widget.empty"
)

// TranslationService exposes locale-aware translation helpers. Widgets fall back
// to the configured Messages when a translation is missing.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

// Messages holds the placeholder texts shown in the container.
type Messages struct {
	Loading          string            `json:"loading,omitempty" yaml:"loading,omitempty"`
	Empty            string            `json:"empty,omitempty" yaml:"empty,omitempty"`
	LoadingLocalized map[string]string `json:"loading_localized,omitempty" yaml:"loading_localized,omitempty"`
	EmptyLocalized   map[string]string `json:"empty_localized,omitempty" yaml:"empty_localized,omitempty"`
}

// DefaultMessages returns the built-in English placeholders.
func DefaultMessages() Messages {
	return Messages{
		Loading: defaultLoadingMessage,
		Empty:   defaultEmptyMessage,
	}
}

func (m Messages) withDefaults() Messages {
	if m.Loading == "" {
		m.Loading = defaultLoadingMessage
	}
	if m.Empty == "" {
		m.Empty = defaultEmptyMessage
	}
	m.LoadingLocalized = normalizeLocaleMap(m.LoadingLocalized)
	m.EmptyLocalized = normalizeLocaleMap(m.EmptyLocalized)
	return m
}

// LoadingFor returns the loading placeholder for the locale.
func (m Messages) LoadingFor(ctx context.Context, svc TranslationService, locale string) string {
	fallback := ResolveLocalizedValue(m.LoadingLocalized, locale, m.Loading)
	return translateOrFallback(ctx, svc, loadingMessageKey, locale, fallback)
}

// EmptyFor returns the no-results message for the locale.
func (m Messages) EmptyFor(ctx context.Context, svc TranslationService, locale string) string {
	fallback := ResolveLocalizedValue(m.EmptyLocalized, locale, m.Empty)
	return translateOrFallback(ctx, svc, emptyMessageKey, locale, fallback)
}

// ResolveLocalizedValue picks the value for locale from a locale-keyed map.
// Keys match case-insensitively with "_" and "-" treated alike; a region
// locale (es-mx) falls back to its language (es), then to the "default" key,
// then to fallback.
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	normalized := normalizeLocaleMap(values)
	for _, candidate := range localeCandidates(locale) {
		if value, ok := normalized[candidate]; ok {
			return value
		}
	}
	return fallback
}

func normalizeLocaleMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]string, len(values))
	for key, value := range values {
		if key = normalizeLocale(key); key != "" && value != "" {
			out[key] = value
		}
	}
	return out
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{"default"}
	}
	if lang, _, ok := strings.Cut(locale, "-"); ok && lang != "" {
		return []string{locale, lang, "default"}
	}
	return []string{locale, "default"}
}

func normalizeLocale(locale string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(locale)), "_", "-")
}

// translateOrFallback asks svc for key and uses fallback when the
// translation is missing or fails.
func translateOrFallback(ctx context.Context, svc TranslationService, key, locale, fallback string) string {
	if svc == nil {
		return fallback
	}
	translated, err := svc.Translate(ctx, key, locale, nil)
	if err != nil || translated == "" {
		return fallback
	}
	return translated
}
