package repository

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"LeadIntake/entity"
	"LeadIntake/internal/campaign"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry(t *testing.T) *campaign.Registry {
	t.Helper()
	r, err := campaign.NewRegistry(map[string]string{
		"spring": "spring_db",
		"autumn": "autumn_db",
	})
	require.NoError(t, err)
	return r
}

// countingDial connects lazily without a server and records every uri.
type countingDial struct {
	calls atomic.Int32
	mu    sync.Mutex
	uris  []string
}

func (d *countingDial) dial(ctx context.Context, uri string) (*mongo.Client, error) {
	d.calls.Add(1)
	d.mu.Lock()
	d.uris = append(d.uris, uri)
	d.mu.Unlock()
	// mongo.Connect does not wait for a server
	return dial(ctx, "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=50")
}

func newTestMongo(t *testing.T) (*MongoDB, *countingDial) {
	t.Helper()
	m := NewMongoClient("mongodb://db.internal:27017", testRegistry(t), 100*time.Millisecond, discardLogger())
	d := &countingDial{}
	m.dial = d.dial
	t.Cleanup(func() { m.Close(context.Background()) })
	return m, d
}

func TestStoreUri(t *testing.T) {
	assert.Equal(t,
		"mongodb+srv://u:p@cluster.example.net/spring_db?retryWrites=true&w=majority",
		StoreUri("mongodb+srv://u:p@cluster.example.net/", "spring_db"))
	assert.Equal(t,
		"mongodb://localhost:27017/autumn_db?retryWrites=true&w=majority",
		StoreUri("mongodb://localhost:27017", "autumn_db"))
}

func TestConnectionIsCachedPerCampaign(t *testing.T) {
	m, d := newTestMongo(t)
	ctx := context.Background()

	first, err := m.Connection(ctx, "spring")
	require.NoError(t, err)
	second, err := m.Connection(ctx, "spring")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), d.calls.Load())
	assert.Equal(t, []string{"mongodb://db.internal:27017/spring_db?retryWrites=true&w=majority"}, d.uris)

	other, err := m.Connection(ctx, "autumn")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, int32(2), d.calls.Load())
}

func TestConnectionUnknownCampaignDoesNotDial(t *testing.T) {
	m, d := newTestMongo(t)

	_, err := m.Connection(context.Background(), "winter")

	assert.ErrorIs(t, err, campaign.ErrUnknownCampaign)
	assert.Equal(t, int32(0), d.calls.Load())
}

func TestConnectionConcurrentFirstUse(t *testing.T) {
	m, d := newTestMongo(t)

	const callers = 32
	clients := make([]*mongo.Client, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := m.Connection(context.Background(), "spring")
			assert.NoError(t, err)
			clients[i] = c
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), d.calls.Load())
	for _, c := range clients {
		assert.Same(t, clients[0], c)
	}
}

func TestDuplicateIndexes(t *testing.T) {
	t.Run("only duplicates", func(t *testing.T) {
		err := mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{
			{WriteError: mongo.WriteError{Index: 0, Code: 11000}},
			{WriteError: mongo.WriteError{Index: 2, Code: 11000}},
		}}
		failed, derr := duplicateIndexes(err)
		require.NoError(t, derr)
		assert.Len(t, failed, 2)
		assert.Contains(t, failed, 0)
		assert.Contains(t, failed, 2)
	})

	t.Run("other write error", func(t *testing.T) {
		err := mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{
			{WriteError: mongo.WriteError{Index: 0, Code: 11000}},
			{WriteError: mongo.WriteError{Index: 1, Code: 121}},
		}}
		_, derr := duplicateIndexes(err)
		assert.Error(t, derr)
		assert.NotErrorIs(t, derr, entity.ErrDuplicateContact)
	})

	t.Run("not a bulk error", func(t *testing.T) {
		_, derr := duplicateIndexes(context.DeadlineExceeded)
		assert.ErrorIs(t, derr, context.DeadlineExceeded)
	})
}
