package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-planteuf/framework/store"
)

const things store.Collection = "things"

// clock hands out increasing timestamps one second apart.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStore(t *testing.T, opts ...store.Option) *store.SQLiteStore {
	t.Helper()
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s, err := store.NewSQLiteStore(":memory:", append([]store.Option{store.WithClock(c.now)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_InsertOneAssignsIDAndStamps(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id, err := s.InsertOne(ctx, things, store.Document{"name": "a"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	doc, err := s.FindOne(ctx, things, id, nil)
	require.NoError(t, err)
	assert.Equal(t, id, doc.ID())
	assert.Equal(t, "a", doc["name"])
	assert.Equal(t, "2024-01-01T00:00:01.000000000Z", doc[store.FieldCreatedAt])
	assert.Equal(t, doc[store.FieldCreatedAt], doc[store.FieldUpdatedAt])
}

func TestSQLiteStore_InsertOneKeepsGivenID(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id, err := s.InsertOne(ctx, things, store.Document{store.FieldID: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", id)

	_, err = s.InsertOne(ctx, things, store.Document{store.FieldID: "fixed"})
	assert.ErrorIs(t, err, store.ErrStore, "duplicate ids are rejected")
}

func TestSQLiteStore_InsertManyIsAtomic(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.InsertMany(ctx, things, []store.Document{
		{store.FieldID: "x"},
		{store.FieldID: "x"},
	})
	require.Error(t, err)

	docs, err := s.Find(ctx, things, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, docs)

	ids, err := s.InsertMany(ctx, things, []store.Document{{"n": 1}, {"n": 2}})
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestSQLiteStore_UpdateOneMergesFields(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id, err := s.InsertOne(ctx, things, store.Document{"name": "a", "size": 1})
	require.NoError(t, err)

	_, err = s.UpdateOne(ctx, things, store.Document{store.FieldID: id, "size": 2, store.FieldCreatedAt: "ignored"})
	require.NoError(t, err)

	doc, err := s.FindOne(ctx, things, id, nil)
	require.NoError(t, err)
	assert.Equal(t, "a", doc["name"])
	assert.Equal(t, float64(2), doc["size"])
	assert.Equal(t, "2024-01-01T00:00:01.000000000Z", doc[store.FieldCreatedAt])
	assert.Equal(t, "2024-01-01T00:00:02.000000000Z", doc[store.FieldUpdatedAt])
}

func TestSQLiteStore_UpdateErrors(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.UpdateOne(ctx, things, store.Document{"name": "no id"})
	assert.ErrorIs(t, err, store.ErrMissingID)

	_, err = s.UpdateMany(ctx, things, []store.Document{{store.FieldID: "ghost"}})
	assert.ErrorIs(t, err, store.ErrNotFound)

	var se *store.StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "update_many", se.Op)
	assert.Equal(t, things, se.Collection)
}

func TestSQLiteStore_InsertOrUpdate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id, err := s.InsertOrUpdateOne(ctx, things, store.Document{store.FieldID: "k", "v": "first"})
	require.NoError(t, err)
	assert.Equal(t, "k", id)

	ids, err := s.InsertOrUpdateMany(ctx, things, []store.Document{
		{store.FieldID: "k", "v": "second"},
		{"v": "fresh"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, "k", ids[0])

	doc, err := s.FindOne(ctx, things, "k", nil)
	require.NoError(t, err)
	assert.Equal(t, "second", doc["v"])
	assert.Equal(t, "2024-01-01T00:00:01.000000000Z", doc[store.FieldCreatedAt])

	fresh, err := s.FindOne(ctx, things, ids[1], nil)
	require.NoError(t, err)
	assert.Equal(t, "fresh", fresh["v"])
}

func TestSQLiteStore_FindOneMissing(t *testing.T) {
	s := newStore(t)
	doc, err := s.FindOne(context.Background(), things, "nope", nil)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestSQLiteStore_FindOneCacheInvalidatedOnWrite(t *testing.T) {
	s := newStore(t, store.WithCacheTTL(time.Hour))
	ctx := context.Background()

	id, err := s.InsertOne(ctx, things, store.Document{"v": 1})
	require.NoError(t, err)

	first, err := s.FindOne(ctx, things, id, nil)
	require.NoError(t, err)
	first["v"] = "mutated by caller"

	second, err := s.FindOne(ctx, things, id, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(1), second["v"], "cached copy must be isolated from callers")

	_, err = s.UpdateOne(ctx, things, store.Document{store.FieldID: id, "v": 2})
	require.NoError(t, err)

	third, err := s.FindOne(ctx, things, id, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(2), third["v"])
}

func TestSQLiteStore_FindFiltersAndOrders(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	type status string
	for _, d := range []store.Document{
		{store.FieldID: "1", "status": "pending", "n": 1},
		{store.FieldID: "2", "status": "completed", "n": 2},
		{store.FieldID: "3", "status": "in_progress", "n": 3},
		{store.FieldID: "4", "status": "failed"},
	} {
		_, err := s.InsertOne(ctx, things, d)
		require.NoError(t, err)
	}

	tests := []struct {
		name  string
		query store.Query
		want  []string
	}{
		{"all", nil, []string{"1", "2", "3", "4"}},
		{"equality", store.Query{"status": "pending"}, []string{"1"}},
		{"typed equality", store.Query{"status": status("completed")}, []string{"2"}},
		{"int equality", store.Query{"n": 3}, []string{"3"}},
		{"in", store.Query{"status": store.Query{"$in": []string{"pending", "failed"}}}, []string{"1", "4"}},
		{"nin", store.Query{"status": map[string]any{"$nin": []status{"completed", "failed"}}}, []string{"1", "3"}},
		{"ne on missing field", store.Query{"n": store.Query{"$ne": 2}}, []string{"1", "3", "4"}},
		{"combined", store.Query{"status": "pending", "n": 2}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := s.Find(ctx, things, tt.query, store.Projection{store.FieldID: 1})
			require.NoError(t, err)
			var ids []string
			for _, d := range docs {
				ids = append(ids, d.ID())
				assert.Len(t, d, 1, "projection keeps only _id")
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestSQLiteStore_FindRejectsBadOperators(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	_, err := s.InsertOne(ctx, things, store.Document{"v": 1})
	require.NoError(t, err)

	_, err = s.Find(ctx, things, store.Query{"v": store.Query{"$gt": 0}}, nil)
	assert.ErrorIs(t, err, store.ErrStore)

	_, err = s.Find(ctx, things, store.Query{"v": store.Query{"$in": 1}}, nil)
	assert.ErrorIs(t, err, store.ErrStore)
}

func TestSQLiteStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	id, err := s1.InsertOne(ctx, things, store.Document{"v": "persistent"})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	doc, err := s2.FindOne(ctx, things, id, nil)
	require.NoError(t, err)
	assert.Equal(t, "persistent", doc["v"])
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := store.NewSQLiteStore("/nonexistent/path/db.sqlite")
	assert.Error(t, err)
}

func TestSQLiteStore_Closed(t *testing.T) {
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	_, err = s.InsertOne(context.Background(), things, store.Document{})
	assert.ErrorIs(t, err, store.ErrStoreClosed)
	_, err = s.FindOne(context.Background(), things, "x", nil)
	assert.ErrorIs(t, err, store.ErrStoreClosed)
}

func TestSQLiteStore_Concurrent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.InsertOne(ctx, things, store.Document{"v": 1})
			assert.NoError(t, err)
			_, err = s.FindOne(ctx, things, id, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	docs, err := s.Find(ctx, things, nil, nil)
	require.NoError(t, err)
	assert.Len(t, docs, workers)
}
