// Package prompt assembles the single-string prompts sent to the inference endpoint.
package prompt

import (
	"fmt"
	"strings"

	"github.com/mindbridge-gateway/internal/apperr"
	"github.com/mindbridge-gateway/internal/config"
	"github.com/mindbridge-gateway/internal/i18n"
	"github.com/mindbridge-gateway/internal/models"
	"github.com/samber/lo"
)

const (
	systemPromptEN = "You are an AI-powered psychological support assistant. " +
		"You respond in a calm, supportive, and empathetic manner. " +
		"You never diagnose, provide medical advice, or replace professional therapy. " +
		"If the user is in crisis, advise them to seek professional help."

	systemPromptTR = "Sen yapay zeka destekli bir psikolojik destek asistanısın. " +
		"Empatik, destekleyici ve yönlendirmeyen bir dil kullanırsın. " +
		"Hiçbir zaman teşhis koymaz, tıbbi öneri vermez veya bir terapistin yerini almazsın. " +
		"Kullanıcı kriz durumundaysa, profesyonel destek alması gerektiğini belirtirsin."

	emotionTemplateEN = "You are an AI. Analyze the emotional content of the following text. " +
		"Return ONLY a JSON object with the following keys: %s. " +
		"Each value should be an integer between 0 and 100. " +
		"Do NOT add any explanation or other text.\n\n" +
		"Text: \"%s\"\n\n" +
		"Your response must be ONLY JSON:"

	emotionTemplateTR = "Sen yapay zekasın ve aşağıdaki metnin duygusal analizini yapacaksın. " +
		"Sadece ve sadece JSON formatında cevap ver. " +
		"Anahtarlar sadece ve sadece şunlar olmalı: %s. " +
		"Başka hiç bir anahtar, duygu veya açıklama ekleme. " +
		"Her bir değer 0 ile 100 arasında tamsayı olmalıdır. " +
		"JSON dışında hiçbir şey yazma.\n\n" +
		"Metin: \"%s\"\n\n" +
		"Cevabın kesinlikle sadece JSON formatında olmalıdır:"

	futureTemplateEN = "You are the user's future self, writing from a calmer and more hopeful point in life. " +
		"Below are things the user shared while reflecting on their feelings. " +
		"Write one warm, encouraging letter addressed to the user in the second person. " +
		"Acknowledge what they went through, point to the strengths visible in their words, " +
		"and describe, without making promises or giving medical advice, how things can get better. " +
		"Keep it under 200 words and do not use lists or headings.\n\n" +
		"What the user shared:\n%s\n\n" +
		"Letter from your future self:"

	futureTemplateTR = "Sen kullanıcının gelecekteki halisin ve hayatının daha sakin, daha umutlu bir döneminden yazıyorsun. " +
		"Aşağıda kullanıcının duyguları üzerine düşünürken paylaştıkları yer alıyor. " +
		"Kullanıcıya ikinci tekil şahısla hitap eden sıcak ve cesaret verici tek bir mektup yaz. " +
		"Yaşadıklarını kabul et, sözlerinde görünen güçlü yanlarını vurgula ve söz vermeden ya da tıbbi öneride bulunmadan " +
		"işlerin nasıl daha iyiye gidebileceğini anlat. " +
		"200 kelimeyi geçme, liste veya başlık kullanma.\n\n" +
		"Kullanıcının paylaştıkları:\n%s\n\n" +
		"Gelecekteki halinden mektup:"
)

type template struct {
	model          string
	system         string
	userLabel      string
	assistantLabel string
	questionLabel  string
	emotion        string
	future         string
}

// Builder composes prompts per language. It is immutable after New.
type Builder struct {
	templates map[models.Language]template
}

// New creates a prompt builder bound to the configured models
func New(cfg *config.InferenceConfig) *Builder {
	return &Builder{
		templates: map[models.Language]template{
			models.LanguageEnglish: {
				model:          cfg.Models.EN,
				system:         systemPromptEN,
				userLabel:      "User",
				assistantLabel: "Assistant",
				questionLabel:  "Question",
				emotion:        emotionTemplateEN,
				future:         futureTemplateEN,
			},
			models.LanguageTurkish: {
				model:          cfg.Models.TR,
				system:         systemPromptTR,
				userLabel:      "Kullanıcı",
				assistantLabel: "Asistan",
				questionLabel:  "Soru",
				emotion:        emotionTemplateTR,
				future:         futureTemplateTR,
			},
		},
	}
}

func (b *Builder) template(lang models.Language) (template, error) {
	t, ok := b.templates[lang]
	if !ok {
		return template{}, apperr.Validation(i18n.MsgUnsupportedLanguage, fmt.Errorf("unsupported language: %q", lang))
	}
	return t, nil
}

// Model returns the model identifier serving lang
func (b *Builder) Model(lang models.Language) (string, error) {
	t, err := b.template(lang)
	if err != nil {
		return "", err
	}
	return t.model, nil
}

// Dialogue builds "{system}\n\n[{label}: {question}\n]{user}: {text}\n{assistant}:"
func (b *Builder) Dialogue(lang models.Language, userText, question string) (string, error) {
	t, err := b.template(lang)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(t.system)
	sb.WriteString("\n\n")
	if q := strings.TrimSpace(question); q != "" {
		fmt.Fprintf(&sb, "%s: %s\n", t.questionLabel, q)
	}
	fmt.Fprintf(&sb, "%s: %s\n%s:", t.userLabel, userText, t.assistantLabel)
	return sb.String(), nil
}

// EmotionAnalysis builds the JSON-only analysis instruction over the joined texts
func (b *Builder) EmotionAnalysis(lang models.Language, texts []string) (string, error) {
	t, err := b.template(lang)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(t.emotion, strings.Join(models.EmotionKeys[lang], ", "), JoinTexts(texts)), nil
}

// FutureMessage builds the future-self letter prompt. Turkish is used for "tr",
// English for anything else.
func (b *Builder) FutureMessage(lang models.Language, history []string) string {
	tmpl := futureTemplateEN
	if lang == models.LanguageTurkish {
		tmpl = futureTemplateTR
	}
	entries := lo.FilterMap(history, func(h string, _ int) (string, bool) {
		h = strings.TrimSpace(h)
		return "- " + h, h != ""
	})
	return fmt.Sprintf(tmpl, strings.Join(entries, "\n"))
}

// JoinTexts joins texts with single spaces and trims the result
func JoinTexts(texts []string) string {
	return strings.TrimSpace(strings.Join(texts, " "))
}
