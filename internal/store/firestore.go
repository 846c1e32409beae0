package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/valpere/bookflow/internal"
)

// Firestore keeps one document per version, named by Key, and one document
// per rating with an auto-generated ID.
type Firestore struct {
	client  *firestore.Client
	vers    *firestore.CollectionRef
	ratings *firestore.CollectionRef
}

type versionDoc struct {
	Owner         string    `firestore:"owner"`
	Book          string    `firestore:"book"`
	Chapter       string    `firestore:"chapter"`
	Content       string    `firestore:"content"`
	SchemaVersion int       `firestore:"schema_version"`
	UpdatedAt     time.Time `firestore:"updated_at"`
}

type ratingDoc struct {
	Owner     string    `firestore:"owner"`
	Book      string    `firestore:"book"`
	Score     int       `firestore:"score"`
	CreatedAt time.Time `firestore:"created_at"`
}

// OpenFirestore creates a client for cfg.ProjectID. With FIRESTORE_EMULATOR_HOST
// set, the client library talks to the emulator instead.
func OpenFirestore(ctx context.Context, cfg FirestoreConfig) (*Firestore, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firestore project ID is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return NewFirestore(client, cfg.Collection, cfg.RatingsCollection), nil
}

// NewFirestore wraps an existing client. Empty collection names default to
// "versions" and "ratings".
func NewFirestore(client *firestore.Client, collection, ratingsCollection string) *Firestore {
	if collection == "" {
		collection = "versions"
	}
	if ratingsCollection == "" {
		ratingsCollection = "ratings"
	}
	return &Firestore{
		client:  client,
		vers:    client.Collection(collection),
		ratings: client.Collection(ratingsCollection),
	}
}

func (f *Firestore) Save(ctx context.Context, owner, book, chapter, content string) error {
	owner, book, chapter, err := normalizeIDs(owner, book, chapter)
	if err != nil {
		return err
	}
	_, err = f.vers.Doc(Key(owner, book, chapter)).Set(ctx, versionDoc{
		Owner:         owner,
		Book:          book,
		Chapter:       chapter,
		Content:       content,
		SchemaVersion: SchemaVersion,
		UpdatedAt:     time.Now().UTC(),
	})
	return err
}

func (f *Firestore) Get(ctx context.Context, owner, book, chapter string) (internal.Version, error) {
	owner, book, chapter, err := normalizeIDs(owner, book, chapter)
	if err != nil {
		return internal.Version{}, err
	}
	snap, err := f.vers.Doc(Key(owner, book, chapter)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return internal.Version{}, ErrNotFound
	}
	if err != nil {
		return internal.Version{}, err
	}
	var d versionDoc
	if err := snap.DataTo(&d); err != nil {
		return internal.Version{}, err
	}
	return d.version(), nil
}

func (f *Firestore) List(ctx context.Context, owner string) ([]internal.Version, error) {
	iter := f.vers.Where("owner", "==", Normalize(owner)).Documents(ctx)
	defer iter.Stop()

	versions := []internal.Version{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var d versionDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode %s: %w", snap.Ref.ID, err)
		}
		versions = append(versions, d.version())
	}
	sortVersions(versions)
	return versions, nil
}

func (f *Firestore) Delete(ctx context.Context, owner, book, chapter string) error {
	owner, book, chapter, err := normalizeIDs(owner, book, chapter)
	if err != nil {
		return err
	}
	_, err = f.vers.Doc(Key(owner, book, chapter)).Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

func (f *Firestore) Rate(ctx context.Context, owner, book string, score int) error {
	if err := validateRating(score); err != nil {
		return err
	}
	owner, book = Normalize(owner), Normalize(book)
	if owner == "" || book == "" {
		return ErrEmptyField
	}
	_, err := f.ratings.NewDoc().Create(ctx, ratingDoc{
		Owner:     owner,
		Book:      book,
		Score:     score,
		CreatedAt: time.Now().UTC(),
	})
	return err
}

func (f *Firestore) Ratings(ctx context.Context, owner string) (map[string][]int, error) {
	iter := f.ratings.Where("owner", "==", Normalize(owner)).Documents(ctx)
	defer iter.Stop()

	var docs []ratingDoc
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var d ratingDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode %s: %w", snap.Ref.ID, err)
		}
		docs = append(docs, d)
	}

	sort.SliceStable(docs, func(i, j int) bool { return docs[i].CreatedAt.Before(docs[j].CreatedAt) })
	ratings := map[string][]int{}
	for _, d := range docs {
		ratings[d.Book] = append(ratings[d.Book], d.Score)
	}
	return ratings, nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

func (d versionDoc) version() internal.Version {
	return internal.Version{
		Owner:     d.Owner,
		Book:      d.Book,
		Chapter:   d.Chapter,
		Content:   d.Content,
		UpdatedAt: d.UpdatedAt,
	}
}
