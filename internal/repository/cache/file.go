package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/minaret-app/minaret/internal/config"
	"github.com/minaret-app/minaret/internal/domain/calendar"
	"github.com/minaret-app/minaret/internal/domain/geo"
	"github.com/minaret-app/minaret/internal/domain/poi"
)

// Record is the persisted snapshot of fetched places plus fetch context.
// It is created on the first successful fetch and fully replaced, never
// merged, on every refetch.
type Record struct {
	// Places are the fetched places of worship, in fetch order.
	Places []poi.Place `json:"places"`
	// Location is the coordinate at which the fetch occurred.
	Location geo.Coordinate `json:"location"`
	// FetchedOn is the calendar day of the fetch.
	FetchedOn calendar.Day `json:"fetched_on"`
}

// Clone returns a copy of the record to avoid leaking the internal slice.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	places := make([]poi.Place, len(r.Places))
	copy(places, r.Places)

	return &Record{
		Places:    places,
		Location:  r.Location,
		FetchedOn: r.FetchedOn,
	}
}

// Repository defines persistence operations for the places cache.
type Repository interface {
	Load(ctx context.Context) (*Record, error)
	Save(ctx context.Context, record *Record) error
}

// ErrNotFound is returned when no usable cache record exists on disk.
// It covers both a missing file and an unreadable or corrupt one; in every
// case the right recovery is a refetch.
var ErrNotFound = errors.New("cache record not found")

// errRecordIsNotSet is returned when Save is called with a nil record.
var errRecordIsNotSet = errors.New("cache record is not set")

// FileRepository persists the cache record to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the JSON cache file.
	path string
	// mu protects concurrent access to the cache file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the cache record from disk.
func (r *FileRepository) Load(_ context.Context) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("%w: read cache file: %w", ErrNotFound, err)
	}

	var record Record
	if err = json.Unmarshal(contents, &record); err != nil {
		return nil, fmt.Errorf("%w: decode cache file: %w", ErrNotFound, err)
	}

	return &record, nil
}

// Save replaces the cache record on disk. The document is written to a
// temporary file in the same directory and renamed over the target, so a
// concurrent Load never observes a partial record.
func (r *FileRepository) Save(_ context.Context, record *Record) error {
	if record == nil {
		return errRecordIsNotSet
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode cache record: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("write cache file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("close cache file: %w", err)
	}

	if err = os.Chmod(tmpName, config.DefaultFilePermissions); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("chmod cache file: %w", err)
	}

	if err = os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("replace cache file: %w", err)
	}

	return nil
}
