package keys

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Lumos-Labs-HQ/tclone/internal/ident"
	"github.com/Lumos-Labs-HQ/tclone/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tenantBucket = "tenants"
	cloneBucket  = "clones"
	tenantT      = "11111111-1111-4111-8111-111111111111"
	tenantT2     = "22222222-2222-4222-8222-222222222222"
	cloneC       = "cccccccc-cccc-4ccc-8ccc-cccccccccccc"
)

// recordingStore logs every call and can drop objects right before they are
// copied to mimic a delete racing the batch.
type recordingStore struct {
	*storage.MemoryStore

	mu        sync.Mutex
	calls     []string
	copied    []string
	vanish    map[string]bool
	failOnKey string
}

func newRecordingStore(pageSize int) *recordingStore {
	mem := storage.NewMemoryStore()
	mem.PageSize = pageSize
	return &recordingStore{MemoryStore: mem, vanish: map[string]bool{}}
}

func (s *recordingStore) ListPage(ctx context.Context, bucket, prefix, token string) (storage.Page, error) {
	s.mu.Lock()
	s.calls = append(s.calls, "list")
	s.mu.Unlock()
	return s.MemoryStore.ListPage(ctx, bucket, prefix, token)
}

func (s *recordingStore) CopyObject(ctx context.Context, src, dst storage.Location, opts storage.CopyOptions) error {
	s.mu.Lock()
	s.calls = append(s.calls, "copy")
	s.copied = append(s.copied, src.Key)
	vanish := s.vanish[src.Key]
	fail := s.failOnKey == src.Key
	s.mu.Unlock()

	if fail {
		return errors.New("access denied")
	}
	if vanish {
		s.MemoryStore.Delete(src.Bucket, src.Key)
	}
	return s.MemoryStore.CopyObject(ctx, src, dst, opts)
}

func put(t *testing.T, s storage.ObjectStore, bucket string, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, s.PutObject(context.Background(), bucket, k, []byte(k)))
	}
}

func TestForwardReverseRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	put(t, store, tenantBucket, "uploads/"+tenantT+"/idea_image/a.png")

	r := NewRemapper(store, tenantBucket, cloneBucket)

	res, err := r.CopyToClone(ctx, tenantT, cloneC)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Copied)
	assert.Equal(t, []string{cloneC + "/uploads/idea_image/a.png"}, store.Keys(cloneBucket, ""))
	assert.False(t, store.IsPublic(cloneBucket, cloneC+"/uploads/idea_image/a.png"))

	res, err = r.CopyFromClone(ctx, cloneC, tenantT2, ident.Mapping{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Copied)
	assert.Equal(t, []string{"uploads/" + tenantT2 + "/idea_image/a.png"}, store.Keys(tenantBucket, "uploads/"+tenantT2+"/"))
	assert.True(t, store.IsPublic(tenantBucket, "uploads/"+tenantT2+"/idea_image/a.png"))
}

func TestReverseRewritesMappedSegmentsOnly(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	oldRecord := "a1b2c3d4-e5f6-7890-abcd-ef1234567890"
	newRecord := "99999999-8888-4777-8666-555555555555"
	unmapped := "b2c3d4e5-f6a7-8901-bcde-f12345678901"
	put(t, store, cloneBucket,
		CloneKey(cloneC, "idea_image/"+oldRecord+"/cover.png"),
		CloneKey(cloneC, "idea_image/"+unmapped+"/cover.png"),
		CloneKey(cloneC, "logo/"+oldRecord+".PNG"),
	)

	r := NewRemapper(store, tenantBucket, cloneBucket)
	res, err := r.CopyFromClone(ctx, cloneC, tenantT2, ident.Mapping{oldRecord: newRecord})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Copied)

	assert.ElementsMatch(t, []string{
		TenantKey(tenantT2, "idea_image/"+newRecord+"/cover.png"),
		TenantKey(tenantT2, "idea_image/"+unmapped+"/cover.png"),
		TenantKey(tenantT2, "logo/"+newRecord+".PNG"),
	}, store.Keys(tenantBucket, ""))
}

func TestDirectoryMarkersAreNeverCopied(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore(100)
	put(t, store, tenantBucket,
		"uploads/"+tenantT+"/",
		"uploads/"+tenantT+"/idea_image/",
		"uploads/"+tenantT+"/idea_image/a.png",
	)

	res, err := NewRemapper(store, tenantBucket, cloneBucket).CopyToClone(ctx, tenantT, cloneC)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Listed)
	assert.Equal(t, 1, res.Copied)
	assert.Equal(t, []string{"uploads/" + tenantT + "/idea_image/a.png"}, store.copied)
}

func TestVanishedSourceIsSkipped(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			ctx := context.Background()
			store := newRecordingStore(100)
			for i := 0; i < 5; i++ {
				put(t, store, tenantBucket, fmt.Sprintf("uploads/%s/f%d.txt", tenantT, i))
			}
			gone := "uploads/" + tenantT + "/f2.txt"
			store.vanish[gone] = true

			r := NewRemapper(store, tenantBucket, cloneBucket, WithWorkers(workers))
			res, err := r.CopyToClone(ctx, tenantT, cloneC)
			require.NoError(t, err)

			assert.Equal(t, 4, res.Copied)
			assert.Equal(t, []string{gone}, res.Skipped)
			assert.Len(t, store.Keys(cloneBucket, ClonePrefix(cloneC)), 4)
		})
	}
}

func TestListingCompletesBeforeFirstCopy(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore(2)
	for i := 0; i < 7; i++ {
		put(t, store, tenantBucket, fmt.Sprintf("uploads/%s/f%d.txt", tenantT, i))
	}

	res, err := NewRemapper(store, tenantBucket, cloneBucket).CopyToClone(ctx, tenantT, cloneC)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Copied)

	// Four pages (2+2+2+1), then seven copies.
	want := []string{"list", "list", "list", "list"}
	for i := 0; i < 7; i++ {
		want = append(want, "copy")
	}
	assert.Equal(t, want, store.calls)
}

func TestOtherCopyErrorsAbortTheBatch(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore(100)
	put(t, store, tenantBucket, "uploads/"+tenantT+"/a.txt", "uploads/"+tenantT+"/b.txt")
	store.failOnKey = "uploads/" + tenantT + "/a.txt"

	res, err := NewRemapper(store, tenantBucket, cloneBucket).CopyToClone(ctx, tenantT, cloneC)
	require.Error(t, err)
	assert.Zero(t, res.Copied)
}

func TestConcurrentCountIsExact(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	store.PageSize = 17
	for i := 0; i < 240; i++ {
		put(t, store, tenantBucket, fmt.Sprintf("uploads/%s/dir%d/f%03d.bin", tenantT, i%5, i))
	}

	res, err := NewRemapper(store, tenantBucket, cloneBucket, WithWorkers(8)).CopyToClone(ctx, tenantT, cloneC)
	require.NoError(t, err)
	assert.Equal(t, 240, res.Copied)
	assert.Empty(t, res.Skipped)
	assert.Len(t, store.Keys(cloneBucket, ""), 240)
}

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "uploads/T/", TenantPrefix("T"))
	assert.Equal(t, "C/uploads/", ClonePrefix("C"))
	assert.Equal(t, "C/uploads/idea_image/a.png", CloneKey("C", "idea_image/a.png"))
	assert.Equal(t, "uploads/T2/idea_image/a.png", TenantKey("T2", "idea_image/a.png"))
	assert.Equal(t, "C/dump.sql", DumpKey("C"))
	assert.Equal(t, "C/tenant.json", MetadataKey("C"))

	rel, ok := Relative("uploads/T/idea_image/a.png", TenantPrefix("T"))
	assert.True(t, ok)
	assert.Equal(t, "idea_image/a.png", rel)
	_, ok = Relative("uploads/X/a.png", TenantPrefix("T"))
	assert.False(t, ok)
}
