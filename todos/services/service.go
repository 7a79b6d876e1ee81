package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/monomonedula/monquery"
	"github.com/monomonedula/monquery/internal/observability"
	"github.com/monomonedula/monquery/internal/pkg/log"
	"github.com/monomonedula/monquery/store"
	todoerrors "github.com/monomonedula/monquery/todos/errors"
	"github.com/monomonedula/monquery/todos/models"
	"go.mongodb.org/mongo-driver/bson"
)

// CollectionName is where todos are stored.
const CollectionName = "todos"

// Service defines todo operations.
type Service interface {
	// ListTodos returns the todos selected by q, restricted to fields when
	// any are given.
	ListTodos(ctx context.Context, q url.Values, fields []string) ([]models.TodoResponse, error)

	// CreateTodo stores a new todo and returns it as read back from the store.
	CreateTodo(ctx context.Context, req models.CreateTodoRequest) (*models.TodoResponse, error)
}

type service struct {
	repo    store.Repository
	schema  monquery.Schema
	metrics *observability.QueryMetrics
	now     func() time.Time
}

// Option adjusts the service.
type Option func(*service)

// WithMetrics records parse outcomes on m.
func WithMetrics(m *observability.QueryMetrics) Option {
	return func(s *service) { s.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// NewService constructs a todo service.
func NewService(repo store.Repository, schema monquery.Schema, opts ...Option) Service {
	s := &service{repo: repo, schema: schema, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var projectable = map[string]struct{}{
	"title":       {},
	"description": {},
	"created_at":  {},
}

func projection(fields []string) (bson.M, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	p := bson.M{}
	for _, f := range fields {
		for _, name := range strings.Split(f, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, ok := projectable[name]; !ok {
				return nil, fmt.Errorf("%w: unknown field '%s'", todoerrors.ErrInvalidRequest, name)
			}
			p[name] = 1
		}
	}
	if len(p) == 0 {
		return nil, nil
	}
	return p, nil
}

func (s *service) ListTodos(ctx context.Context, q url.Values, fields []string) ([]models.TodoResponse, error) {
	proj, err := projection(fields)
	if err != nil {
		return nil, err
	}

	spec, err := s.schema.Parse(q)
	s.metrics.ObserveParse(CollectionName, err)
	if err != nil {
		log.WarnWithContext(ctx, "rejected todos query: %s", err.Error())
		return nil, err
	}
	log.DebugStruct("todos query", spec.Filter, spec.Sort, spec.Window)

	cur, err := spec.Find(ctx, s.repo, CollectionName, monquery.WithProjection(proj))
	if err != nil {
		log.ErrorWithContext(ctx, "find todos: %s", err.Error())
		return nil, fmt.Errorf("%w: %v", todoerrors.ErrDatabaseOperation, err)
	}
	defer cur.Close()

	todos := []models.TodoResponse{}
	for cur.Next() {
		var todo models.Todo
		if err := cur.Decode(&todo); err != nil {
			return nil, fmt.Errorf("%w: decode todo: %v", todoerrors.ErrDatabaseOperation, err)
		}
		todos = append(todos, todo.ToResponse())
	}
	if err := cur.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", todoerrors.ErrDatabaseOperation, err)
	}
	return todos, nil
}

func (s *service) CreateTodo(ctx context.Context, req models.CreateTodoRequest) (*models.TodoResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", todoerrors.ErrInvalidRequest)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("generate todo id: %w", err)
	}
	todo := models.Todo{
		ID:          id.String(),
		Title:       req.Title,
		Description: req.Description,
		CreatedAt:   s.now().UTC().Truncate(time.Millisecond),
	}

	saved := <-s.repo.Save(ctx, CollectionName, todo)
	if saved.Error != nil {
		return nil, fmt.Errorf("%w: %v", todoerrors.ErrDatabaseOperation, saved.Error)
	}

	single := <-s.repo.FindOne(ctx, CollectionName, bson.M{"_id": saved.Result})
	if single.NoResult() {
		return nil, todoerrors.ErrTodoNotFound
	}
	if err := single.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", todoerrors.ErrDatabaseOperation, err)
	}

	var stored models.Todo
	if err := single.Decode(&stored); err != nil {
		return nil, fmt.Errorf("%w: decode todo: %v", todoerrors.ErrDatabaseOperation, err)
	}
	resp := stored.ToResponse()
	log.InfoWithContext(ctx, "created todo %s", stored.ID)
	return &resp, nil
}
