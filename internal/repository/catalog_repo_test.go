package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"verselearn/internal/models"
)

func TestCatalogPublish(t *testing.T) {
	repo := NewCatalogRepository(t.TempDir(), zap.NewNop())

	text := models.PublicText{
		Title:    "Psalm 23",
		Language: "DE",
		Units:    []models.Unit{{Ref: "Ps 23:1", Text: "Der Herr ist mein Hirte"}},
		AddedBy:  "anna",
	}
	require.NoError(t, repo.Publish(text))
	assert.ErrorIs(t, repo.Publish(text), ErrTitleConflict)

	got, err := repo.Get("DE", "Psalm 23")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "anna", got.AddedBy)
	assert.False(t, got.AddedAt.IsZero())

	missing, err := repo.Get("EN", "Psalm 23")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Delete("DE", "Psalm 23"))
	assert.ErrorIs(t, repo.Delete("DE", "Psalm 23"), ErrRecordNotFound)
}

func TestCatalogLegacyLayout(t *testing.T) {
	dir := t.TempDir()
	legacy := `{"DE": {"Psalm 23": {"verses": [{"ref": "Ps 23:1", "text": "Der Herr ist mein Hirte"}], "public": true, "added_by": "anna", "language": "DE"}}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "public_texts.json"), []byte(legacy), 0o644))

	repo := NewCatalogRepository(dir, zap.NewNop())
	texts := repo.List("DE")
	require.Len(t, texts, 1)
	assert.Equal(t, "Psalm 23", texts["Psalm 23"].Title)
	assert.Equal(t, "anna", texts["Psalm 23"].AddedBy)
	assert.Empty(t, repo.List("EN"))
}
