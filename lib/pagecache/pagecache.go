package pagecache

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/hex"
	"net/url"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"lukechampine.com/blake3"
)

var tracer = otel.Tracer("lib/pagecache")

var ErrNotCached = badger.ErrKeyNotFound

type page struct {
	Contents  []byte
	FetchedAt int64
	ExpiresAt int64
}

// Cache persists raw portal responses on disk so parser changes can be
// replayed without re-fetching, and so a restarted scraper does not
// hammer pages it already has. Entries carry their own expiry.
type Cache struct {
	db      *badger.DB
	baseUrl *url.URL
}

// Open creates or reopens the cache at dir. An empty dir keeps the cache
// purely in memory, which the tests rely on.
func Open(dir string, baseUrl string) (*Cache, error) {
	base, err := url.Parse(baseUrl)
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db, baseUrl: base}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// key normalizes the endpoint against the base url and, for form posts,
// appends a digest of the encoded form. url.Values.Encode sorts by key,
// so logically identical submissions always land on the same entry.
func (c *Cache) key(endpoint string, form url.Values) (string, error) {
	full, err := c.baseUrl.Parse(endpoint)
	if err != nil {
		return "", err
	}
	normalized := purell.NormalizeURL(
		full,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
	if len(form) == 0 {
		return normalized, nil
	}
	digest := blake3.Sum256([]byte(form.Encode()))
	return normalized + "#" + hex.EncodeToString(digest[:16]), nil
}

func (c *Cache) Get(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "get")
	defer span.End()

	key, err := c.key(endpoint, form)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return nil, err
	}
	span.SetAttributes(attribute.KeyValue{
		Key:   "cache_key",
		Value: attribute.StringValue(key),
	})

	tx := c.db.NewTransaction(false)
	defer tx.Discard()
	item, err := tx.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotCached
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return nil, err
	}
	serialized, err := item.ValueCopy(nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy cached item")
		return nil, err
	}

	var cached page
	err = gob.NewDecoder(bytes.NewBuffer(serialized)).Decode(&cached)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize cached item")
		return nil, err
	}

	if time.Now().Unix() >= cached.ExpiresAt {
		span.AddEvent("delete expired cache key", trace.WithAttributes(attribute.KeyValue{
			Key:   "key",
			Value: attribute.StringValue(key),
		}))

		tx := c.db.NewTransaction(true)
		defer tx.Commit()
		err = tx.Delete([]byte(key))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete expired key")
		}
		return nil, ErrNotCached
	}

	return cached.Contents, nil
}

func (c *Cache) Set(ctx context.Context, endpoint string, form url.Values, contents []byte, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "set")
	defer span.End()

	key, err := c.key(endpoint, form)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return err
	}
	span.SetAttributes(attribute.KeyValue{
		Key:   "cache_key",
		Value: attribute.StringValue(key),
	})

	now := time.Now()
	serialized := bytes.NewBuffer(nil)
	err = gob.NewEncoder(serialized).Encode(page{
		Contents:  contents,
		FetchedAt: now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize page")
		return err
	}

	tx := c.db.NewTransaction(true)
	defer tx.Commit()
	err = tx.Set([]byte(key), serialized.Bytes())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
		return err
	}
	return nil
}
