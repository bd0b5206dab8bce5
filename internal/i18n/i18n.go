package i18n

import (
	"encoding/json"
	"fmt"
	"strings"

	"chat-relay/internal/i18n/locales"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

var bundle *i18n.Bundle

// Init initializes the i18n bundle with all supported languages.
func Init() error {
	bundle = i18n.NewBundle(language.AmericanEnglish)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	languages := []string{"en-US", "zh-CN"}
	for _, lang := range languages {
		if err := loadMessages(lang); err != nil {
			return fmt.Errorf("failed to load language %s: %w", lang, err)
		}
	}

	return nil
}

func loadMessages(lang string) error {
	for id, msg := range getMessages(lang) {
		bundle.AddMessages(language.MustParse(lang), &i18n.Message{
			ID:    id,
			Other: msg,
		})
	}
	return nil
}

func getMessages(lang string) map[string]string {
	switch lang {
	case "zh-CN":
		return locales.MessagesZhCN
	default:
		return locales.MessagesEnUS
	}
}

// GetLocalizer returns a localizer for the given Accept-Language header.
func GetLocalizer(acceptLang string) *i18n.Localizer {
	langs := parseAcceptLanguage(acceptLang)
	if len(langs) == 0 {
		langs = []string{"en-US"}
	}
	return i18n.NewLocalizer(bundle, langs...)
}

// parseAcceptLanguage extracts the primary language from an Accept-Language
// header, ignoring quality factors.
func parseAcceptLanguage(acceptLang string) []string {
	if acceptLang == "" {
		return nil
	}

	parts := strings.Split(acceptLang, ",")
	if len(parts) == 0 {
		return nil
	}
	lang := strings.TrimSpace(parts[0])
	if idx := strings.Index(lang, ";"); idx > 0 {
		lang = lang[:idx]
	}
	return []string{normalizeLanguageCode(lang)}
}

func normalizeLanguageCode(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	switch {
	case strings.HasPrefix(lang, "zh"):
		return "zh-CN"
	default:
		return "en-US"
	}
}

// T translates a message, returning the message ID when no translation
// exists.
func T(localizer *i18n.Localizer, msgID string, data ...map[string]any) string {
	config := &i18n.LocalizeConfig{MessageID: msgID}
	if len(data) > 0 {
		config.TemplateData = data[0]
	}

	msg, err := localizer.Localize(config)
	if err != nil {
		return msgID
	}
	return msg
}
