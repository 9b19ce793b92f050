// Package questions serves the fixed reflection prompts the chat UI walks through.
package questions

import (
	"fmt"

	"github.com/mindbridge-gateway/internal/apperr"
	"github.com/mindbridge-gateway/internal/i18n"
	"github.com/mindbridge-gateway/internal/models"
)

var lists = map[models.Language][]string{
	models.LanguageEnglish: {
		"How are you feeling today, in a few words?",
		"What has been on your mind the most this week?",
		"Was there a moment recently that made you feel good?",
		"What has been weighing on you lately?",
		"How have you been sleeping and eating?",
		"Who do you feel you can talk to when things get hard?",
		"What is one small thing you could do for yourself tomorrow?",
		"If a close friend felt the way you do, what would you tell them?",
	},
	models.LanguageTurkish: {
		"Bugün kendini nasıl hissediyorsun, birkaç kelimeyle anlatır mısın?",
		"Bu hafta aklını en çok ne meşgul etti?",
		"Son zamanlarda seni iyi hissettiren bir an oldu mu?",
		"Son günlerde seni en çok ne yoruyor?",
		"Uyku ve beslenme düzenin nasıl gidiyor?",
		"İşler zorlaştığında kiminle konuşabileceğini düşünüyorsun?",
		"Yarın kendin için yapabileceğin küçük bir şey ne olabilir?",
		"Yakın bir arkadaşın senin gibi hissetseydi ona ne söylerdin?",
	},
}

// Current returns the question at index. hasMore reports whether another
// question follows it.
func Current(lang models.Language, index int) (*string, bool, error) {
	return at(lang, index)
}

// Next returns the question after index
func Next(lang models.Language, index int) (*string, bool, error) {
	return at(lang, index+1)
}

// Count returns the number of questions for lang, or 0 when unsupported
func Count(lang models.Language) int {
	return len(lists[lang])
}

func at(lang models.Language, index int) (*string, bool, error) {
	list, ok := lists[lang]
	if !ok {
		return nil, false, apperr.Validation(i18n.MsgUnsupportedLanguage, fmt.Errorf("no questions for language %q", lang))
	}
	if index < 0 || index >= len(list) {
		return nil, false, nil
	}
	q := list[index]
	return &q, index+1 < len(list), nil
}
