package providers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"maycast/server/modules/storage/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalChunkStore {
	t.Helper()
	store, err := NewLocalChunkStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestLocalChunkStore_SaveGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	initData := []byte("ftyp-init-bytes")
	require.NoError(t, store.SaveInitSegment(ctx, "rec-a", "R1", initData))

	got, err := store.GetInitSegment(ctx, "rec-a", "R1")
	require.NoError(t, err)
	assert.Equal(t, initData, got)

	chunk := []byte("moof-mdat-0")
	require.NoError(t, store.SaveChunk(ctx, "rec-a", "R1", 0, chunk))

	got, err = store.GetChunk(ctx, "rec-a", "R1", 0)
	require.NoError(t, err)
	assert.Equal(t, chunk, got)
}

func TestLocalChunkStore_OverwriteIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveChunk(ctx, "rec-a", "", 3, []byte("first")))
	require.NoError(t, store.SaveChunk(ctx, "rec-a", "", 3, []byte("second")))

	got, err := store.GetChunk(ctx, "rec-a", "", 3)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestLocalChunkStore_GetMissing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetInitSegment(ctx, "nope", "R1")
	assert.ErrorIs(t, err, services.ErrObjectNotFound)

	_, err = store.GetChunk(ctx, "nope", "", 0)
	assert.ErrorIs(t, err, services.ErrObjectNotFound)
}

func TestLocalChunkStore_ListChunkIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Saved out of order with gaps; init and worker outputs must be excluded.
	require.NoError(t, store.SaveInitSegment(ctx, "rec-a", "R1", []byte("init")))
	for _, id := range []int{5, 0, 12, 2} {
		require.NoError(t, store.SaveChunk(ctx, "rec-a", "R1", id, []byte{byte(id)}))
	}
	require.NoError(t, store.SaveObject(ctx, services.OutputM4AKey("rec-a", "R1"), []byte("m4a"), "audio/mp4"))

	ids, err := store.ListChunkIDs(ctx, "rec-a", "R1")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 5, 12}, ids)
}

func TestLocalChunkStore_ListEmptyRecording(t *testing.T) {
	store := newTestStore(t)

	ids, err := store.ListChunkIDs(context.Background(), "never-saved", "")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLocalChunkStore_ListManyChunks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const n = 1500
	for i := 0; i < n; i++ {
		require.NoError(t, store.SaveChunk(ctx, "rec-big", "R1", i, []byte(fmt.Sprintf("c%d", i))))
	}

	ids, err := store.ListChunkIDs(ctx, "rec-big", "R1")
	require.NoError(t, err)
	require.Len(t, ids, n)
	for i, id := range ids {
		require.Equal(t, i, id)
	}

	require.NoError(t, store.DeleteRecording(ctx, "rec-big", "R1"))
	ids, err = store.ListChunkIDs(ctx, "rec-big", "R1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLocalChunkStore_DeleteRecording(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveInitSegment(ctx, "rec-a", "", []byte("init")))
	require.NoError(t, store.SaveChunk(ctx, "rec-a", "", 0, []byte("c0")))
	require.NoError(t, store.SaveInitSegment(ctx, "rec-b", "", []byte("init-b")))

	require.NoError(t, store.DeleteRecording(ctx, "rec-a", ""))

	_, err := store.GetInitSegment(ctx, "rec-a", "")
	assert.ErrorIs(t, err, services.ErrObjectNotFound)

	// Sibling recordings are untouched
	got, err := store.GetInitSegment(ctx, "rec-b", "")
	require.NoError(t, err)
	assert.Equal(t, []byte("init-b"), got)
}

func TestLocalChunkStore_PresignUnsupported(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.False(t, store.SupportsPresignedURLs())

	_, err := store.PresignedUploadURL(ctx, "rec-a/init.fmp4", time.Hour)
	assert.ErrorIs(t, err, services.ErrPresignedURLsUnsupported)

	_, err = store.PresignedDownloadURL(ctx, "rec-a/init.fmp4", time.Hour)
	assert.ErrorIs(t, err, services.ErrPresignedURLsUnsupported)
}
