package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watersafe/internal/config"
	"watersafe/internal/model"
)

func newSQLiteForTest(t *testing.T) Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "letters.db")
	store, err := NewStore(config.StorageConfig{Enabled: true, Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestSQLiteSaveAndList(t *testing.T) {
	store := newSQLiteForTest(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)

	letters := []model.Letter{
		{ID: "a", TemplateID: "tier1-urgent", Tier: model.Tier1Urgent, SystemID: "GA1", SystemName: "BAXLEY",
			ViolationID: "V1", EntityKey: "violation:V1", GeneratedAt: base, Status: model.LetterGenerated,
			RecipientCount: 5749, DueDate: base.Add(24 * time.Hour), Document: model.Document{Name: "a.pdf", Bytes: []byte("%PDF-1.3")}},
		{ID: "b", TemplateID: "tier3-ccr", Tier: model.Tier3Annual, SystemID: "GA1", SystemName: "BAXLEY",
			TaskID: "event-0", EntityKey: "task:event-0", GeneratedAt: base.Add(time.Minute), Status: model.LetterGenerated,
			RecipientCount: 1000, DueDate: base.Add(30 * 24 * time.Hour), Document: model.Document{Name: "b.pdf"}},
		{ID: "c", TemplateID: "tier2-violation", Tier: model.Tier2Standard, SystemID: "GA2", SystemName: "OTHER",
			GeneratedAt: base, Status: model.LetterGenerated, DueDate: base},
	}
	for _, l := range letters {
		require.NoError(t, store.SaveLetter(ctx, l))
	}

	got, err := store.ListLetters(ctx, "GA1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID, "newest first")
	assert.Equal(t, model.Tier3Annual, got[0].Tier)
	assert.Equal(t, "task:event-0", got[0].EntityKey)
	assert.True(t, got[1].GeneratedAt.Equal(base))

	all, err := store.ListLetters(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteDuplicateIDRejected(t *testing.T) {
	store := newSQLiteForTest(t)
	ctx := context.Background()
	l := model.Letter{ID: "dup", TemplateID: "tier1-urgent", SystemID: "GA1", GeneratedAt: time.Now(), DueDate: time.Now(), Status: model.LetterGenerated}
	require.NoError(t, store.SaveLetter(ctx, l))
	assert.Error(t, store.SaveLetter(ctx, l))
}

func TestNewStoreDisabledAndUnknown(t *testing.T) {
	store, err := NewStore(config.StorageConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, store)

	_, err = NewStore(config.StorageConfig{Enabled: true, Driver: "mongo"})
	assert.Error(t, err)
}
