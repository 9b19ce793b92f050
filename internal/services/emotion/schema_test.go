package emotion

import (
	"testing"

	"github.com/mindbridge-gateway/internal/apperr"
	"github.com/mindbridge-gateway/internal/models"
	"github.com/stretchr/testify/require"
)

func TestSchema_Repair(t *testing.T) {
	req := require.New(t)
	schema, err := SchemaFor(models.LanguageEnglish)
	req.NoError(err)

	got := schema.Repair(map[string]any{
		"joy":      40,
		"sadness":  "20",
		"fear":     0.1,
		"anger":    5,
		"contempt": 99,
		"love":     12,
	})

	req.Equal(map[string]any{
		"joy":      40,
		"sadness":  "20",
		"fear":     0.1,
		"anger":    5,
		"disgust":  0,
		"surprise": 0,
	}, got)
}

func TestSchema_RepairFoldsCase(t *testing.T) {
	req := require.New(t)

	en, err := SchemaFor(models.LanguageEnglish)
	req.NoError(err)
	got := en.Repair(map[string]any{"Joy": 10, " SURPRISE ": 20, "joy ": 99})
	req.Equal(10, got["joy"])
	req.Equal(20, got["surprise"])

	// exact keys win over folded ones
	got = en.Repair(map[string]any{"joy": 1, "JOY": 2})
	req.Equal(1, got["joy"])

	tr, err := SchemaFor(models.LanguageTurkish)
	req.NoError(err)
	got = tr.Repair(map[string]any{"SEVİNÇ": 70, "Şaşkınlık": 30, "joy": 50})
	req.Equal(map[string]any{
		"sevinç":    70,
		"üzüntü":    0,
		"korku":     0,
		"öfke":      0,
		"tiksinti":  0,
		"şaşkınlık": 30,
	}, got)
}

func TestSchemaFor_Unsupported(t *testing.T) {
	_, err := SchemaFor("fr")
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
