// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package store defines the document store a translated query runs against.
// Calls return a channel that yields exactly one result and is then closed.
package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Finder runs one read operation.
type Finder interface {
	Find(ctx context.Context, collectionName string, filter interface{}, opts *FindOptions) <-chan QueryResult
}

// Repository is the full set of store operations used by services.
type Repository interface {
	Finder

	Save(ctx context.Context, collectionName string, data interface{}) <-chan RepositoryResult
	FindOne(ctx context.Context, collectionName string, filter interface{}) <-chan SingleResult
	Count(ctx context.Context, collectionName string, filter interface{}) <-chan CountResult

	// Index operations
	CreateIndex(ctx context.Context, collectionName string, indexes map[string]interface{}) <-chan error

	// Connection management
	Ping(ctx context.Context) <-chan error
	Close() error
}

// FindOptions refines a find. Nil Skip or Limit means unset, and an empty
// Sort means natural order.
type FindOptions struct {
	Limit      *int64
	Skip       *int64
	Sort       bson.D
	Projection bson.M
}

// RepositoryResult is the outcome of a write.
type RepositoryResult struct {
	Result interface{}
	Error  error
}

// QueryResult is a lazily consumed sequence of documents.
type QueryResult interface {
	Next() bool
	Decode(v interface{}) error
	Close()
	Error() error
}

// SingleResult is the outcome of FindOne.
type SingleResult interface {
	Decode(v interface{}) error
	Error() error
	NoResult() bool
}

// CountResult is the outcome of Count.
type CountResult struct {
	Count int64
	Error error
}

// Common errors
var (
	ErrNoDocuments      = NewRepositoryError("no documents found", "NOT_FOUND")
	ErrDuplicateKey     = NewRepositoryError("duplicate key error", "DUPLICATE_KEY")
	ErrInvalidFilter    = NewRepositoryError("invalid filter", "INVALID_FILTER")
	ErrConnectionFailed = NewRepositoryError("database connection failed", "CONNECTION_FAILED")
)

// RepositoryError represents a repository specific error
type RepositoryError struct {
	Message string
	Code    string
	Time    time.Time
}

func (e *RepositoryError) Error() string {
	return e.Message
}

// Is matches repository errors by code.
func (e *RepositoryError) Is(target error) bool {
	t, ok := target.(*RepositoryError)
	return ok && t.Code == e.Code
}

// NewRepositoryError creates a new repository error
func NewRepositoryError(message, code string) *RepositoryError {
	return &RepositoryError{
		Message: message,
		Code:    code,
		Time:    time.Now(),
	}
}
