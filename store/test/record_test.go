package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finchbot/finch/store"
)

func stringPtr(s string) *string { return &s }
func intPtr(i int) *int          { return &i }
func boolPtr(b bool) *bool       { return &b }

func TestChatMessageStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	guild := "guild-1"
	created, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
		ChannelID:  "chan-1",
		GuildID:    &guild,
		AuthorID:   "user-1",
		AuthorName: "ada",
		Content:    "hello there",
	})
	require.NoError(t, err)
	require.Greater(t, created.ID, int64(0))
	require.NotEmpty(t, created.UID)
	require.Greater(t, created.CreatedTs, int64(0))
	require.Nil(t, created.Embedding)

	got, err := ts.GetChatMessage(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "hello there", got.Content)
	require.NotNil(t, got.GuildID)
	require.Equal(t, guild, *got.GuildID)

	missing, err := ts.GetChatMessage(ctx, created.ID+999)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestChatMessageScopedList(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	for i, channel := range []string{"chan-a", "chan-a", "chan-b"} {
		_, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
			ChannelID: channel,
			AuthorID:  "user-1",
			Content:   "message",
			CreatedTs: int64(1000 + i),
			IsBot:     i == 1,
		})
		require.NoError(t, err)
	}

	list, err := ts.ListChatMessages(ctx, &store.FindChatMessage{ChannelID: stringPtr("chan-a")})
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Newest first.
	require.Greater(t, list[0].CreatedTs, list[1].CreatedTs)

	list, err = ts.ListChatMessages(ctx, &store.FindChatMessage{ChannelID: stringPtr("chan-a"), ExcludeBot: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.False(t, list[0].IsBot)

	list, err = ts.ListChatMessages(ctx, &store.FindChatMessage{ChannelID: stringPtr("chan-a"), Limit: intPtr(1)})
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestAttachEmbedding(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	created, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
		ChannelID: "chan-1",
		AuthorID:  "user-1",
		Content:   "embed me",
	})
	require.NoError(t, err)

	pending, err := ts.ListPendingEmbeddings(ctx, store.RecordKindMessage, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, created.ID, pending[0].ID)
	require.Equal(t, "embed me", pending[0].Content)

	embedding := []float32{0.1, 0.2, 0.3, 0.4}
	require.NoError(t, ts.AttachEmbedding(ctx, store.RecordKindMessage, created.ID, embedding))

	got, err := ts.GetChatMessage(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, embedding, got.Embedding)

	// Once attached, the embedding is immutable: a second attach is a
	// no-op, not an overwrite.
	require.NoError(t, ts.AttachEmbedding(ctx, store.RecordKindMessage, created.ID, []float32{9, 9, 9, 9}))
	got, err = ts.GetChatMessage(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, embedding, got.Embedding)

	pending, err = ts.ListPendingEmbeddings(ctx, store.RecordKindMessage, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestAttachEmbeddingRejectsEmpty(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	require.Error(t, ts.AttachEmbedding(ctx, store.RecordKindMessage, 1, nil))
	require.Error(t, ts.AttachEmbedding(ctx, "bogus", 1, []float32{1}))
}

func TestCorruptEmbeddingBlobIsSkipped(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	created, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
		ChannelID: "chan-1",
		AuthorID:  "user-1",
		Content:   "bad blob",
	})
	require.NoError(t, err)

	// Corrupt the row behind the store's back: 5 bytes is not a valid
	// float32 sequence.
	_, err = ts.GetDriver().GetDB().ExecContext(ctx,
		"UPDATE chat_message SET embedding = ? WHERE id = ?", []byte{1, 2, 3, 4, 5}, created.ID)
	require.NoError(t, err)

	got, err := ts.GetChatMessage(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Nil(t, got.Embedding)
}

func TestKnowledgeEntryStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	entry, err := ts.CreateKnowledgeEntry(ctx, &store.KnowledgeEntry{
		GuildID: "guild-1",
		Content: "the wifi password is hunter2",
		Tags:    []string{"wifi", "home"},
	})
	require.NoError(t, err)

	_, err = ts.CreateKnowledgeEntry(ctx, &store.KnowledgeEntry{
		GuildID: "guild-1",
		Content: "trash day is tuesday",
		Tags:    []string{"home"},
	})
	require.NoError(t, err)

	_, err = ts.CreateKnowledgeEntry(ctx, &store.KnowledgeEntry{
		GuildID: "guild-2",
		Content: "other guild entry",
		Tags:    []string{"wifi"},
	})
	require.NoError(t, err)

	got, err := ts.GetKnowledgeEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"wifi", "home"}, got.Tags)

	byTag, err := ts.ListKnowledgeEntries(ctx, &store.FindKnowledgeEntry{
		GuildID: stringPtr("guild-1"),
		Tag:     stringPtr("home"),
	})
	require.NoError(t, err)
	require.Len(t, byTag, 2)

	byTag, err = ts.ListKnowledgeEntries(ctx, &store.FindKnowledgeEntry{
		GuildID: stringPtr("guild-1"),
		Tag:     stringPtr("wifi"),
	})
	require.NoError(t, err)
	require.Len(t, byTag, 1)

	tags, err := ts.ListKnowledgeTags(ctx, "guild-1")
	require.NoError(t, err)
	require.Equal(t, []string{"home", "wifi"}, tags)
}

func TestUserMemoryStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.CreateUserMemory(ctx, &store.UserMemory{
		UserID:     "user-1",
		Kind:       store.MemoryKindPreference,
		Provenance: "conversation",
		Content:    "prefers metric units",
	})
	require.NoError(t, err)

	_, err = ts.CreateUserMemory(ctx, &store.UserMemory{
		UserID:  "user-2",
		Kind:    store.MemoryKindFact,
		Content: "lives in lisbon",
	})
	require.NoError(t, err)

	list, err := ts.ListUserMemories(ctx, &store.FindUserMemory{UserID: stringPtr("user-1")})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, store.MemoryKindPreference, list[0].Kind)

	kind := store.MemoryKindFact
	list, err = ts.ListUserMemories(ctx, &store.FindUserMemory{Kind: &kind})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "user-2", list[0].UserID)
}

func TestFindWithoutEmbeddingFilter(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	first, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
		ChannelID: "chan-1", AuthorID: "u", Content: "a",
	})
	require.NoError(t, err)
	_, err = ts.CreateChatMessage(ctx, &store.ChatMessage{
		ChannelID: "chan-1", AuthorID: "u", Content: "b",
	})
	require.NoError(t, err)

	require.NoError(t, ts.AttachEmbedding(ctx, store.RecordKindMessage, first.ID, []float32{1, 2, 3, 4}))

	with, err := ts.ListChatMessages(ctx, &store.FindChatMessage{
		ChannelID:    stringPtr("chan-1"),
		HasEmbedding: boolPtr(true),
	})
	require.NoError(t, err)
	require.Len(t, with, 1)
	require.Equal(t, first.ID, with[0].ID)

	without, err := ts.ListChatMessages(ctx, &store.FindChatMessage{
		ChannelID:    stringPtr("chan-1"),
		HasEmbedding: boolPtr(false),
	})
	require.NoError(t, err)
	require.Len(t, without, 1)
	require.Equal(t, "b", without[0].Content)
}
