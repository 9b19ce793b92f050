// Package crisis flags input that carries self-harm risk so the caller can
// answer with a canned safety message instead of querying a model.
package crisis

import (
	"errors"
	"sort"
	"strings"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

var ErrNoKeywords = errors.New("crisis keyword list is empty")

// DefaultKeywords is the built-in mixed Turkish/English phrase list
var DefaultKeywords = []string{
	"intihar", "kendimi öldüreceğim", "canıma kıyacağım", "ölmek istiyorum", "yaşamak istemiyorum",
	"kendime zarar vereceğim", "ölüm düşüncesi", "intiharı düşünüyorum", "kendimi yok etmek istiyorum",
	"hayata son vermek istiyorum", "yaşamayı bırakmak", "intiharı planlıyorum", "kendimi kesiyorum",
	"ölüm en iyi çözüm", "yaşamanın anlamı yok", "daha fazla dayanamıyorum",
	"suicide", "i want to die", "i want to kill myself", "i will kill myself", "i want to end my life",
	"i'm planning suicide", "thinking of suicide", "self harm", "i cut myself", "no reason to live",
	"ending it all", "i wish i was dead", "i can't take this anymore", "i’m done with life",
	"life is meaningless", "dying seems like peace",
	"ölüm", "dead", "kill me", "canıma yetti", "help me please", "yardım edin", "çıkış yolu yok",
	"en iyisi ölmek", "tek çare ölüm", "yaşamak çok zor", "ölmek daha kolay", "dayanamıyorum",
}

// KeywordsOrDefault returns keywords, or DefaultKeywords when none are configured
func KeywordsOrDefault(keywords []string) []string {
	if len(lo.Compact(keywords)) == 0 {
		return DefaultKeywords
	}
	return keywords
}

// Detector matches lowercased input against an immutable keyword set.
// Matching is substring based and diacritic sensitive.
type Detector struct {
	matcher  *goahocorasick.Machine
	keywords []string
}

// NewDetector builds the Aho-Corasick automaton over the lowercased keywords
func NewDetector(keywords []string) (*Detector, error) {
	normalized := lo.Uniq(lo.Compact(lo.Map(keywords, func(k string, _ int) string {
		return strings.ToLower(strings.TrimSpace(k))
	})))
	if len(normalized) == 0 {
		return nil, ErrNoKeywords
	}
	sort.Strings(normalized)

	patterns := make([][]rune, len(normalized))
	for i, k := range normalized {
		patterns[i] = []rune(k)
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Detector{matcher: m, keywords: normalized}, nil
}

// Detect reports whether any keyword occurs in text
func (d *Detector) Detect(text string) bool {
	content := []rune(strings.ToLower(text))
	if len(content) == 0 {
		return false
	}
	return len(d.matcher.MultiPatternSearch(content, true)) > 0
}

// Matches returns the distinct keywords found in text, in order of first occurrence
func (d *Detector) Matches(text string) []string {
	content := []rune(strings.ToLower(text))
	if len(content) == 0 {
		return nil
	}
	terms := d.matcher.MultiPatternSearch(content, false)
	return lo.Uniq(lo.Map(terms, func(t *goahocorasick.Term, _ int) string {
		return string(t.Word)
	}))
}

// Keywords returns a copy of the normalized keyword set
func (d *Detector) Keywords() []string {
	return append([]string(nil), d.keywords...)
}
