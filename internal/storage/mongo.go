package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultMongoDatabase = "imageCrawler"
	defaultMongoBucket   = "images"
)

// GridFSSink uploads each image as a GridFS file. Storing a name twice
// replaces the earlier file, so the bucket holds one file per name.
type GridFSSink struct {
	Client   *mongo.Client
	Bucket   *gridfs.Bucket
	database string
	bucket   string
	runID    string
}

func NewGridFS(ctx context.Context, uri, database, bucket, runID string) (*GridFSSink, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("mongo uri must be provided")
	}
	if database == "" {
		database = defaultMongoDatabase
	}
	if bucket == "" {
		bucket = defaultMongoBucket
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	b, err := gridfs.NewBucket(client.Database(database), options.GridFSBucket().SetName(bucket))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}

	return &GridFSSink{Client: client, Bucket: b, database: database, bucket: bucket, runID: runID}, nil
}

func (s *GridFSSink) Store(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return &StoreError{Name: name, Err: err}
	}
	clean, err := cleanName(name)
	if err != nil {
		return &StoreError{Name: name, Err: err}
	}
	opts := options.GridFSUpload().SetMetadata(bson.D{
		{Key: "run_id", Value: s.runID},
		{Key: "size", Value: len(data)},
	})
	id, err := s.Bucket.UploadFromStream(clean, bytes.NewReader(data), opts)
	if err != nil {
		return &StoreError{Name: name, Err: fmt.Errorf("gridfs upload: %w", err)}
	}
	if err := s.dropOlder(ctx, clean, id); err != nil {
		return &StoreError{Name: name, Err: err}
	}
	return nil
}

// dropOlder deletes every file named name except keep.
func (s *GridFSSink) dropOlder(ctx context.Context, name string, keep primitive.ObjectID) error {
	cur, err := s.Bucket.FindContext(ctx, bson.D{{Key: "filename", Value: name}})
	if err != nil {
		return fmt.Errorf("gridfs find %q: %w", name, err)
	}
	var files []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &files); err != nil {
		return fmt.Errorf("gridfs find %q: %w", name, err)
	}
	for _, f := range files {
		if f.ID == keep {
			continue
		}
		if err := s.Bucket.DeleteContext(ctx, f.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("gridfs delete old %q: %w", name, err)
		}
	}
	return nil
}

// Location names the database and bucket images are uploaded to.
func (s *GridFSSink) Location() string { return s.database + "/" + s.bucket }

func (s *GridFSSink) Close() error {
	if s.Client != nil {
		return s.Client.Disconnect(context.Background())
	}
	return nil
}
