// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package mongodb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/monomonedula/monquery/internal/pkg/log"
	"github.com/monomonedula/monquery/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FindObserver is notified after every Find.
type FindObserver interface {
	ObserveFind(collection string, took time.Duration, err error)
}

// Option configures a MongoRepository.
type Option func(*MongoRepository)

// WithFindObserver reports every Find to o.
func WithFindObserver(o FindObserver) Option {
	return func(r *MongoRepository) { r.observer = o }
}

// MongoRepository implements store.Repository for MongoDB
type MongoRepository struct {
	client   *mongo.Client
	database *mongo.Database
	dbName   string
	observer FindObserver
}

var _ store.Repository = (*MongoRepository)(nil)

// MongoQueryResult implements store.QueryResult for MongoDB
type MongoQueryResult struct {
	cursor *mongo.Cursor
	ctx    context.Context
	err    error
}

// MongoSingleResult implements store.SingleResult for MongoDB
type MongoSingleResult struct {
	result   *mongo.SingleResult
	err      error
	noResult bool
}

// NewMongoRepository connects using the given config
func NewMongoRepository(ctx context.Context, config *store.MongoDBConfig, databaseName string, opts ...Option) (*MongoRepository, error) {
	clientOptions := options.Client().ApplyURI(buildConnectionURI(config))

	if config.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(uint64(config.MaxPoolSize))
	}
	if config.MinPoolSize > 0 {
		clientOptions.SetMinPoolSize(uint64(config.MinPoolSize))
	}
	if config.ConnectTimeout > 0 {
		clientOptions.SetConnectTimeout(time.Duration(config.ConnectTimeout) * time.Second)
	}
	if config.SocketTimeout > 0 {
		clientOptions.SetSocketTimeout(time.Duration(config.SocketTimeout) * time.Second)
	}
	if config.MaxIdleTime > 0 {
		clientOptions.SetMaxConnIdleTime(time.Duration(config.MaxIdleTime) * time.Second)
	}
	if config.ServerSelectionTimeout > 0 {
		clientOptions.SetServerSelectionTimeout(time.Duration(config.ServerSelectionTimeout) * time.Second)
	}

	return connect(ctx, clientOptions, databaseName, opts)
}

// NewMongoRepositoryFromURI connects using a connection string
func NewMongoRepositoryFromURI(ctx context.Context, uri, databaseName string, opts ...Option) (*MongoRepository, error) {
	return connect(ctx, options.Client().ApplyURI(uri), databaseName, opts)
}

func connect(ctx context.Context, clientOptions *options.ClientOptions, databaseName string, opts []Option) (*MongoRepository, error) {
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	r := &MongoRepository{
		client:   client,
		database: client.Database(databaseName),
		dbName:   databaseName,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// buildConnectionURI builds MongoDB connection URI from config
func buildConnectionURI(config *store.MongoDBConfig) string {
	u := url.URL{
		Scheme: "mongodb",
		Host:   config.Host + ":" + strconv.Itoa(config.Port),
		Path:   "/",
	}
	if config.Username != "" && config.Password != "" {
		u.User = url.UserPassword(config.Username, config.Password)
	}

	q := url.Values{}
	if config.AuthDatabase != "" {
		q.Set("authSource", config.AuthDatabase)
	}
	if config.ReplicaSet != "" {
		q.Set("replicaSet", config.ReplicaSet)
	}
	if config.SSL {
		q.Set("ssl", "true")
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// buildFindOptions maps store options onto driver options
func buildFindOptions(opts *store.FindOptions) *options.FindOptions {
	findOptions := options.Find()
	if opts == nil {
		return findOptions
	}
	if opts.Limit != nil {
		findOptions.SetLimit(*opts.Limit)
	}
	if opts.Skip != nil {
		findOptions.SetSkip(*opts.Skip)
	}
	if len(opts.Sort) > 0 {
		findOptions.SetSort(opts.Sort)
	}
	if len(opts.Projection) > 0 {
		findOptions.SetProjection(opts.Projection)
	}
	return findOptions
}

// Save stores a single document
func (r *MongoRepository) Save(ctx context.Context, collectionName string, data interface{}) <-chan store.RepositoryResult {
	result := make(chan store.RepositoryResult)

	go func() {
		defer close(result)

		collection := r.database.Collection(collectionName)

		insertResult, err := collection.InsertOne(ctx, data)
		if err != nil {
			log.Error("MongoDB Save error: %s", err.Error())
			if mongo.IsDuplicateKeyError(err) {
				err = fmt.Errorf("%w: %s", store.ErrDuplicateKey, err.Error())
			}
			result <- store.RepositoryResult{Error: err}
			return
		}

		result <- store.RepositoryResult{Result: insertResult.InsertedID}
	}()

	return result
}

// Find retrieves multiple documents
func (r *MongoRepository) Find(ctx context.Context, collectionName string, filter interface{}, opts *store.FindOptions) <-chan store.QueryResult {
	result := make(chan store.QueryResult)

	go func() {
		defer close(result)

		if filter == nil {
			filter = bson.M{}
		}
		started := time.Now()

		cursor, err := r.database.Collection(collectionName).Find(ctx, filter, buildFindOptions(opts))
		if r.observer != nil {
			r.observer.ObserveFind(collectionName, time.Since(started), err)
		}
		if err != nil {
			log.Error("MongoDB Find error: %s", err.Error())
			result <- &MongoQueryResult{err: err}
			return
		}

		result <- &MongoQueryResult{cursor: cursor, ctx: ctx}
	}()

	return result
}

// FindOne retrieves a single document
func (r *MongoRepository) FindOne(ctx context.Context, collectionName string, filter interface{}) <-chan store.SingleResult {
	result := make(chan store.SingleResult)

	go func() {
		defer close(result)

		singleResult := r.database.Collection(collectionName).FindOne(ctx, filter)
		if err := singleResult.Err(); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				result <- &MongoSingleResult{result: singleResult, noResult: true}
				return
			}
			log.Error("MongoDB FindOne error: %s", err.Error())
			result <- &MongoSingleResult{err: err}
			return
		}

		result <- &MongoSingleResult{result: singleResult}
	}()

	return result
}

// Count counts documents matching filter
func (r *MongoRepository) Count(ctx context.Context, collectionName string, filter interface{}) <-chan store.CountResult {
	result := make(chan store.CountResult)

	go func() {
		defer close(result)

		if filter == nil {
			filter = bson.M{}
		}
		count, err := r.database.Collection(collectionName).CountDocuments(ctx, filter)
		if err != nil {
			log.Error("MongoDB Count error: %s", err.Error())
			result <- store.CountResult{Error: err}
			return
		}

		result <- store.CountResult{Count: count}
	}()

	return result
}

// CreateIndex creates one single-field index per entry, e.g. {"created_at": -1}
func (r *MongoRepository) CreateIndex(ctx context.Context, collectionName string, indexes map[string]interface{}) <-chan error {
	result := make(chan error)

	go func() {
		defer close(result)

		indexModels := make([]mongo.IndexModel, 0, len(indexes))
		for key, value := range indexes {
			indexModels = append(indexModels, mongo.IndexModel{Keys: bson.D{{Key: key, Value: value}}})
		}
		if len(indexModels) == 0 {
			result <- nil
			return
		}

		_, err := r.database.Collection(collectionName).Indexes().CreateMany(ctx, indexModels)
		if err != nil {
			log.Error("MongoDB CreateIndex error: %s", err.Error())
		}
		result <- err
	}()

	return result
}

// Ping tests the database connection
func (r *MongoRepository) Ping(ctx context.Context) <-chan error {
	result := make(chan error)

	go func() {
		defer close(result)
		result <- r.client.Ping(ctx, nil)
	}()

	return result
}

// Close closes the database connection
func (r *MongoRepository) Close() error {
	return r.client.Disconnect(context.Background())
}

// Client returns the underlying mongo.Client.
// This is useful for administrative operations in tests, like dropping a database.
func (r *MongoRepository) Client() *mongo.Client {
	return r.client
}

func (r *MongoQueryResult) Next() bool {
	if r.cursor == nil {
		return false
	}
	return r.cursor.Next(r.ctx)
}

func (r *MongoQueryResult) Decode(v interface{}) error {
	if r.cursor == nil {
		return fmt.Errorf("cursor is nil")
	}
	return r.cursor.Decode(v)
}

func (r *MongoQueryResult) Close() {
	if r.cursor != nil {
		r.cursor.Close(r.ctx)
	}
}

// Error reports the find error, or the cursor error once iteration stopped.
func (r *MongoQueryResult) Error() error {
	if r.err != nil {
		return r.err
	}
	if r.cursor != nil {
		return r.cursor.Err()
	}
	return nil
}

func (r *MongoSingleResult) Decode(v interface{}) error {
	if r.result == nil {
		return fmt.Errorf("result is nil")
	}
	if err := r.result.Decode(v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.noResult = true
			return store.ErrNoDocuments
		}
		return err
	}
	return nil
}

func (r *MongoSingleResult) Error() error {
	if r.noResult {
		return store.ErrNoDocuments
	}
	return r.err
}

func (r *MongoSingleResult) NoResult() bool {
	return r.noResult
}
