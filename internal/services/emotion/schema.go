package emotion

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mindbridge-gateway/internal/apperr"
	"github.com/mindbridge-gateway/internal/i18n"
	"github.com/mindbridge-gateway/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Schema is the fixed six-key label set of one language
type Schema struct {
	Language models.Language
	Keys     []string
	tag      language.Tag
}

// SchemaFor returns the emotion schema of lang
func SchemaFor(lang models.Language) (Schema, error) {
	keys, ok := models.EmotionKeys[lang]
	if !ok {
		return Schema{}, apperr.Validation(i18n.MsgUnsupportedLanguage, fmt.Errorf("no emotion schema for language %q", lang))
	}
	return Schema{
		Language: lang,
		Keys:     keys,
		tag:      language.Make(lang.String()),
	}, nil
}

// Repair forces raw into exactly the schema keys. A key missing from raw gets 0,
// keys outside the schema are dropped. Exact matches win over case-folded ones.
func (s Schema) Repair(raw map[string]any) map[string]any {
	caser := cases.Lower(s.tag)

	folded := make(map[string]any, len(raw))
	names := make([]string, 0, len(raw))
	for k := range raw {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		f := caser.String(strings.TrimSpace(k))
		if _, seen := folded[f]; !seen {
			folded[f] = raw[k]
		}
	}

	out := make(map[string]any, len(s.Keys))
	for _, key := range s.Keys {
		if v, ok := raw[key]; ok {
			out[key] = v
			continue
		}
		if v, ok := folded[key]; ok {
			out[key] = v
			continue
		}
		out[key] = 0
	}
	return out
}
