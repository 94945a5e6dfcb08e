package health

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
)

// Qdrant serves REST on 6333 and gRPC on the next port.
const (
	qdrantRESTPort = 6333
	qdrantGRPCPort = 6334
)

// QdrantStore is a VectorStore backed by a Qdrant server.
type QdrantStore struct {
	client *qdrant.Client
	target string
}

// QdrantConfig derives a gRPC client configuration from a Qdrant URL as
// users write it (usually the REST address).
func QdrantConfig(rawURL, apiKey string) (*qdrant.Config, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("invalid qdrant url %q", rawURL)
	}

	port := qdrantGRPCPort
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid qdrant port %q", p)
		}
		port = n
		if n == qdrantRESTPort {
			port = qdrantGRPCPort
		}
	}

	return &qdrant.Config{
		Host:   u.Hostname(),
		Port:   port,
		APIKey: apiKey,
		UseTLS: u.Scheme == "https",
	}, nil
}

// NewQdrantStore connects to the Qdrant server at rawURL.
func NewQdrantStore(rawURL, apiKey string) (*QdrantStore, error) {
	cfg, err := QdrantConfig(rawURL, apiKey)
	if err != nil {
		return nil, err
	}
	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}
	return &QdrantStore{
		client: client,
		target: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
	}, nil
}

// Ping lists collections, which needs a working connection and valid key.
func (q *QdrantStore) Ping(ctx context.Context) error {
	if _, err := q.client.ListCollections(ctx); err != nil {
		return fmt.Errorf("qdrant %s: %w", q.target, err)
	}
	return nil
}

// Close closes the connection.
func (q *QdrantStore) Close() error {
	return q.client.Close()
}
