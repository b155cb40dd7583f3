package mongostore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"media-backend/internal/shared/telemetry"
)

const defaultPingTimeout = 10 * time.Second

// ConnectFunc dials a client for uri.
type ConnectFunc func(ctx context.Context, uri string) (*mongo.Client, error)

// Handle is a lazily connected Mongo database shared by repositories.
// The first caller connects; concurrent callers wait for that attempt.
// A failed attempt is retried by the next caller.
type Handle struct {
	uri     string
	dbName  string
	connect ConnectFunc

	mu       sync.Mutex
	cond     *sync.Cond
	client   *mongo.Client
	db       *mongo.Database
	inFlight bool
}

// New returns a Handle that has not connected yet.
func New(uri, dbName string) *Handle {
	return NewWithConnect(uri, dbName, dial)
}

// NewWithConnect is New with a custom dialer.
func NewWithConnect(uri, dbName string, connect ConnectFunc) *Handle {
	h := &Handle{
		uri:     strings.TrimSpace(uri),
		dbName:  dbName,
		connect: connect,
	}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// Database returns the connected database, connecting on first use.
func (h *Handle) Database(ctx context.Context) (*mongo.Database, error) {
	h.mu.Lock()
	for h.inFlight && h.db == nil {
		h.cond.Wait()
	}
	if h.db != nil {
		db := h.db
		h.mu.Unlock()
		return db, nil
	}
	h.inFlight = true
	h.mu.Unlock()

	client, err := h.connect(ctx, h.uri)

	h.mu.Lock()
	if err == nil {
		h.client = client
		h.db = client.Database(h.dbName)
	}
	h.inFlight = false
	h.cond.Broadcast()
	db := h.db
	h.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	telemetry.Info("mongo.init", map[string]any{"database": h.dbName})
	return db, nil
}

// Collection returns a collection from the connected database.
func (h *Handle) Collection(ctx context.Context, name string) (*mongo.Collection, error) {
	db, err := h.Database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(name), nil
}

// Disconnect closes the client if one was connected.
func (h *Handle) Disconnect(ctx context.Context) error {
	h.mu.Lock()
	client := h.client
	h.client = nil
	h.db = nil
	h.mu.Unlock()
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func dial(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("MONGODB_URI is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Ping connects if needed and round-trips to the primary.
func (h *Handle) Ping(ctx context.Context) error {
	db, err := h.Database(ctx)
	if err != nil {
		return err
	}
	return db.Client().Ping(ctx, nil)
}
