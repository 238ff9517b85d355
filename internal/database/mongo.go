package repository

import (
	"LeadIntake/internal/lib/sl"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/singleflight"
)

const uriParams = "?retryWrites=true&w=majority"

// Registry resolves a campaign id to the database that stores it.
type Registry interface {
	Resolve(campaignID string) (string, error)
}

type dialFunc func(ctx context.Context, uri string) (*mongo.Client, error)

// MongoDB routes every campaign to its own database. Clients and contact
// stores are created on first use and kept for the process lifetime.
type MongoDB struct {
	baseUri  string
	registry Registry
	timeout  time.Duration
	dial     dialFunc
	log      *slog.Logger

	mu       sync.RWMutex
	clients  map[string]*mongo.Client
	contacts map[string]*ContactStore
	group    singleflight.Group
}

func NewMongoClient(baseUri string, registry Registry, timeout time.Duration, logger *slog.Logger) *MongoDB {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MongoDB{
		baseUri:  baseUri,
		registry: registry,
		timeout:  timeout,
		dial:     dial,
		log:      logger.With(sl.Module("mongodb")),
		clients:  make(map[string]*mongo.Client),
		contacts: make(map[string]*ContactStore),
	}
}

func dial(ctx context.Context, uri string) (*mongo.Client, error) {
	return mongo.Connect(ctx, options.Client().ApplyURI(uri))
}

// StoreUri appends the campaign database to the shared base location.
func StoreUri(baseUri, storeName string) string {
	if !strings.HasSuffix(baseUri, "/") {
		baseUri += "/"
	}
	return baseUri + storeName + uriParams
}

// Connection returns the client of the campaign database, connecting on the
// first call. Concurrent first callers share a single connection attempt.
func (m *MongoDB) Connection(ctx context.Context, campaignID string) (*mongo.Client, error) {
	storeName, err := m.registry.Resolve(campaignID)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	client, ok := m.clients[campaignID]
	m.mu.RUnlock()
	if ok {
		return client, nil
	}

	v, err, _ := m.group.Do("client:"+campaignID, func() (interface{}, error) {
		m.mu.RLock()
		cached, ok := m.clients[campaignID]
		m.mu.RUnlock()
		if ok {
			return cached, nil
		}

		connection, err := m.dial(ctx, StoreUri(m.baseUri, storeName))
		if err != nil {
			m.log.With(
				slog.String("campaign", campaignID),
				sl.Err(err),
			).Error("mongo connection error")
			return nil, fmt.Errorf("mongodb connect error: %w", err)
		}

		m.mu.Lock()
		m.clients[campaignID] = connection
		m.mu.Unlock()

		go m.ping(campaignID, storeName, connection)
		return connection, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*mongo.Client), nil
}

// ping reports the outcome of the first round trip. Requests do not wait
// for it.
func (m *MongoDB) ping(campaignID, storeName string, connection *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	logger := m.log.With(
		slog.String("campaign", campaignID),
		slog.String("database", storeName),
	)
	if err := connection.Ping(ctx, readpref.Primary()); err != nil {
		logger.With(sl.Err(err)).Error("mongo connection error")
		return
	}
	logger.Info("mongo connected")
}

// Close disconnects every cached client.
func (m *MongoDB) Close(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for campaignID, connection := range m.clients {
		if err := connection.Disconnect(ctx); err != nil {
			m.log.With(
				slog.String("campaign", campaignID),
				sl.Err(err),
			).Warn("mongo disconnect")
		}
	}
	m.clients = make(map[string]*mongo.Client)
	m.contacts = make(map[string]*ContactStore)
}
