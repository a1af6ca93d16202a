package embedding

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/finchbot/finch/store"
	storetest "github.com/finchbot/finch/store/test"
)

type fakeEmbedder struct {
	ready      bool
	err        error
	batchCalls int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.batchCalls++
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, float32(i), 0, 0}
	}
	return vectors, nil
}

func (f *fakeEmbedder) Dimensions() int { return 4 }

func (f *fakeEmbedder) Ready() bool { return f.ready }

func (f *fakeEmbedder) Probe(context.Context) error {
	if !f.ready {
		return errors.New("not ready")
	}
	return nil
}

func TestRunOnceBackfillsAllKinds(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)

	msg, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
		ChannelID: "chan-1", AuthorID: "u", Content: "a message",
	})
	require.NoError(t, err)

	entry, err := ts.CreateKnowledgeEntry(ctx, &store.KnowledgeEntry{
		GuildID: "guild-1", Content: "an entry",
	})
	require.NoError(t, err)

	memory, err := ts.CreateUserMemory(ctx, &store.UserMemory{
		UserID: "user-1", Kind: store.MemoryKindFact, Content: "a memory",
	})
	require.NoError(t, err)

	runner := NewRunner(ts, &fakeEmbedder{ready: true})
	runner.RunOnce(ctx)

	gotMsg, err := ts.GetChatMessage(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, gotMsg.Embedding)

	gotEntry, err := ts.GetKnowledgeEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, gotEntry.Embedding)

	memories, err := ts.ListUserMemories(ctx, &store.FindUserMemory{ID: &memory.ID})
	require.NoError(t, err)
	require.Len(t, memories, 1)
	require.NotNil(t, memories[0].Embedding)

	for _, kind := range recordKinds {
		pending, err := ts.ListPendingEmbeddings(ctx, kind, 10)
		require.NoError(t, err)
		require.Empty(t, pending, "kind %s", kind)
	}
}

func TestRunOnceSkipsWhenNotReady(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)

	msg, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
		ChannelID: "chan-1", AuthorID: "u", Content: "a message",
	})
	require.NoError(t, err)

	embedder := &fakeEmbedder{ready: false}
	runner := NewRunner(ts, embedder)
	runner.RunOnce(ctx)

	require.Zero(t, embedder.batchCalls)
	got, err := ts.GetChatMessage(ctx, msg.ID)
	require.NoError(t, err)
	require.Nil(t, got.Embedding)
}

func TestRunOnceLeavesRowsPendingOnEmbedFailure(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)

	_, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
		ChannelID: "chan-1", AuthorID: "u", Content: "a message",
	})
	require.NoError(t, err)

	runner := NewRunner(ts, &fakeEmbedder{ready: true, err: errors.New("backend down")})
	runner.RunOnce(ctx)

	pending, err := ts.ListPendingEmbeddings(ctx, store.RecordKindMessage, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// A later sweep with a healthy embedder picks the row back up.
	runner = NewRunner(ts, &fakeEmbedder{ready: true})
	runner.RunOnce(ctx)

	pending, err = ts.ListPendingEmbeddings(ctx, store.RecordKindMessage, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}
