// Package httpcache implements an http.RoundTripper caching successful
// responses in a bbolt database.
//
// Entries are grouped by calendar period: a response cached with a Monthly
// Transport is served until the end of the month, then fetched again.
package httpcache

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"github.com/etnz/fins/date"
)

// Store is a bbolt database of cached responses.
type Store struct {
	db    *bolt.DB
	log   zerolog.Logger
	today func() date.Date
}

// Open opens or creates the cache database at path.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("cannot open http cache %s: %w", path, err)
	}
	return &Store{db: db, log: log.With().Str("component", "httpcache").Logger(), today: date.Today}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Transport returns a RoundTripper caching in s for the given period.
// A nil base uses http.DefaultTransport.
func (s *Store) Transport(base http.RoundTripper, period date.Period) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{base: base, store: s, period: period}
}

// Client returns an http.Client caching in s for the given period.
func (s *Store) Client(period date.Period) *http.Client {
	return &http.Client{Transport: s.Transport(nil, period)}
}

// bucket returns the name of the bucket holding the entries of the current
// range of period, like "monthly:2025-06".
func (s *Store) bucket(period date.Period) string {
	return period.String() + ":" + period.Key(s.today())
}

func (s *Store) get(bucket, key string) []byte {
	var content []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			content = bytes.Clone(v)
		}
		return nil
	})
	return content
}

func (s *Store) put(bucket, key string, content []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), content)
	})
}

// Purge deletes the entries of past periods and returns the number of
// deleted responses.
func (s *Store) Purge() (int, error) {
	var deleted int
	err := s.db.Update(func(tx *bolt.Tx) error {
		var stale [][]byte
		err := tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			p, _, ok := strings.Cut(string(name), ":")
			period, err := date.ParsePeriod(p)
			if !ok || err != nil || string(name) != s.bucket(period) {
				stale = append(stale, bytes.Clone(name))
				deleted += b.Stats().KeyN
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, name := range stale {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil && deleted > 0 {
		s.log.Info().Int("deleted", deleted).Msg("purged stale responses")
	}
	return deleted, err
}

// Transport is an http.RoundTripper serving responses from a Store.
type Transport struct {
	base   http.RoundTripper
	store  *Store
	period date.Period
}

// RoundTrip returns the cached response for req if there is one for the
// current period. Otherwise it performs the request and caches successful
// responses.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	bucket := t.store.bucket(t.period)
	key := fmt.Sprintf("%x", sha1.Sum([]byte(req.Method+" "+req.URL.String())))

	if content := t.store.get(bucket, key); content != nil {
		resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
		if err == nil {
			return resp, nil
		}
		t.store.log.Warn().Err(err).Msg("corrupted cache entry ignored")
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	t.store.log.Debug().Str("method", req.Method).Str("host", req.URL.Host).Str("path", req.URL.Path).Str("status", resp.Status).Msg("fetched")
	if resp.StatusCode >= 300 {
		return resp, nil
	}

	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return nil, err
	}
	if err := t.store.put(bucket, key, content); err != nil {
		t.store.log.Warn().Err(err).Msg("cache write failed")
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}
