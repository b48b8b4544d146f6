package attendance

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultKey names the key-value entry holding the serialized collection.
const DefaultKey = "attendanceData"

// Store is the attendance store seen by the HTTP API and the dashboard.
// LocalStore keeps the collection itself; the remote client delegates to the
// attendance service.
type Store interface {
	// Submit validates in, records it and returns the created record.
	Submit(ctx context.Context, in Submission) (Record, error)
	Summarize(ctx context.Context) (Summary, error)
	// List flattens all records, students in order then insertion order.
	List(ctx context.Context) ([]Entry, error)
	// History returns one student's records in insertion order.
	History(ctx context.Context, studentID string) ([]Record, error)
	Report(ctx context.Context) (Report, error)
	// Clear removes every record. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
	ExportCSV(ctx context.Context) (string, error)
}

// Persister is the key-value storage a LocalStore writes its collection to.
type Persister interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Options configures a LocalStore. Zero fields take defaults.
type Options struct {
	Key    string
	Clock  Clock
	Locale Locale
	Logger logrus.FieldLogger
}

// LocalStore holds the collection in memory and mirrors every change to a
// single Persister entry.
type LocalStore struct {
	mu     sync.Mutex
	kv     Persister
	key    string
	clock  Clock
	locale Locale
	log    logrus.FieldLogger
	coll   *Collection
}

// NewLocalStore rehydrates the collection from kv, starting empty when the
// entry does not exist. An entry that cannot be decoded is an error rather
// than being silently replaced.
func NewLocalStore(ctx context.Context, kv Persister, opts Options) (*LocalStore, error) {
	s := &LocalStore{
		kv:     kv,
		key:    opts.Key,
		clock:  opts.Clock,
		locale: opts.Locale,
		log:    opts.Logger,
		coll:   NewCollection(),
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.clock == nil {
		s.clock = SystemClock()
	}
	if s.locale.layout == "" {
		s.locale = DefaultLocale()
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}

	data, ok, err := kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("attendance: load %q: %w", s.key, err)
	}
	if ok && len(data) > 0 {
		if err := json.Unmarshal(data, s.coll); err != nil {
			return nil, fmt.Errorf("attendance: decode %q: %w", s.key, err)
		}
	}
	s.log.WithFields(logrus.Fields{
		"key":      s.key,
		"students": s.coll.Len(),
		"records":  s.coll.RecordCount(),
	}).Info("attendance store loaded")
	return s, nil
}

func (s *LocalStore) Submit(ctx context.Context, in Submission) (Record, error) {
	in, err := in.Validate()
	if err != nil {
		return Record{}, err
	}
	rec := NewRecord(in, s.clock.Now(), s.locale)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.coll.Clone()
	next.Append(rec)
	if err := s.persist(ctx, next); err != nil {
		return Record{}, err
	}
	s.coll = next
	return rec, nil
}

func (s *LocalStore) persist(ctx context.Context, c *Collection) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("attendance: encode collection: %w", err)
	}
	if err := s.kv.Put(ctx, s.key, data); err != nil {
		s.log.WithError(err).WithField("key", s.key).Error("persist attendance failed")
		return fmt.Errorf("attendance: persist %q: %w", s.key, err)
	}
	return nil
}

func (s *LocalStore) Summarize(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Summarize(), nil
}

func (s *LocalStore) List(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Entries(), nil
}

func (s *LocalStore) History(ctx context.Context, studentID string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Records(studentID), nil
}

// Report leaves Students nil while the collection is empty.
func (s *LocalStore) Report(ctx context.Context) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := Report{
		Title:   ReportTitle(s.clock.Now()),
		Summary: s.coll.Summarize(),
	}
	if s.coll.Len() > 0 {
		r.Students = s.coll.Clone()
	}
	return r, nil
}

func (s *LocalStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("attendance: clear %q: %w", s.key, err)
	}
	s.coll = NewCollection()
	return nil
}

func (s *LocalStore) ExportCSV(ctx context.Context) (string, error) {
	s.mu.Lock()
	entries := s.coll.Entries()
	s.mu.Unlock()

	if bad := MalformedRows(entries); len(bad) > 0 {
		s.log.WithField("rows", bad).Warn("csv export contains fields with embedded separators")
	}
	return EncodeCSV(entries), nil
}
