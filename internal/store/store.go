// Package store persists saved chapter versions and book ratings.
//
// Every record is partitioned by an opaque owner identifier. At most one
// version exists per (owner, book, chapter); a later Save overwrites it.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/valpere/bookflow/internal"
	"github.com/valpere/bookflow/internal/metrics"
)

// SchemaVersion tags every stored record.
const SchemaVersion = 1

var (
	ErrNotFound      = errors.New("version not found")
	ErrInvalidRating = errors.New("rating must be between 1 and 10")
	ErrEmptyField    = errors.New("owner, book and chapter must not be empty")
)

const (
	MinRating = 1
	MaxRating = 10
)

type Store interface {
	// Save creates or overwrites the version for (owner, book, chapter).
	Save(ctx context.Context, owner, book, chapter, content string) error
	Get(ctx context.Context, owner, book, chapter string) (internal.Version, error)
	// List returns every version of owner ordered by book then chapter. An
	// owner with no versions yields an empty slice and no error.
	List(ctx context.Context, owner string) ([]internal.Version, error)
	Delete(ctx context.Context, owner, book, chapter string) error
	// Rate records one score for a book.
	Rate(ctx context.Context, owner, book string, score int) error
	// Ratings returns every recorded score of owner keyed by book.
	Ratings(ctx context.Context, owner string) (map[string][]int, error)
	Close() error
}

type Config struct {
	Backend   string          `mapstructure:"backend"` // sqlite, redis, firestore
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Firestore FirestoreConfig `mapstructure:"firestore"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type FirestoreConfig struct {
	ProjectID         string `mapstructure:"project_id"`
	Collection        string `mapstructure:"collection"`
	RatingsCollection string `mapstructure:"ratings_collection"`
	CredentialsFile   string `mapstructure:"credentials_file"`
}

// Open constructs the backend named by cfg.Backend. The caller owns the
// returned Store and must Close it.
func Open(ctx context.Context, cfg Config, logger *zap.Logger, m *metrics.Metrics) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		s   Store
		err error
	)
	backend := strings.ToLower(cfg.Backend)
	switch backend {
	case "sqlite", "":
		backend = "sqlite"
		path := cfg.SQLite.Path
		if path == "" {
			path = "bookflow.db"
		}
		s, err = NewSQLite(path)
	case "redis":
		s, err = OpenRedis(ctx, cfg.Redis)
	case "firestore":
		s, err = OpenFirestore(ctx, cfg.Firestore)
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", backend, err)
	}

	logger.Debug("store opened", zap.String("backend", backend))
	return Instrument(s, backend, m), nil
}

// Key builds the record key for the given components: each is NFC-normalised
// and query-escaped, then joined with ':'. Distinct tuples never collide.
func Key(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.QueryEscape(Normalize(p))
	}
	return strings.Join(escaped, ":")
}

// Normalize returns an identifier in the form the store records it: trimmed
// and NFC-normalised. Callers comparing against stored titles use it too.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// normalizeIDs cleans the identifying fields of a version.
func normalizeIDs(owner, book, chapter string) (string, string, string, error) {
	owner, book, chapter = Normalize(owner), Normalize(book), Normalize(chapter)
	if owner == "" || book == "" || chapter == "" {
		return "", "", "", ErrEmptyField
	}
	return owner, book, chapter, nil
}

func validateRating(score int) error {
	if score < MinRating || score > MaxRating {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, score)
	}
	return nil
}

func sortVersions(vs []internal.Version) {
	sort.SliceStable(vs, func(i, j int) bool {
		if vs[i].Book != vs[j].Book {
			return vs[i].Book < vs[j].Book
		}
		return vs[i].Chapter < vs[j].Chapter
	})
}
