package models

import "time"

// Todo is the stored document.
type Todo struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// CreateTodoRequest is the body of POST /todos/.
type CreateTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TodoResponse is a todo as returned to clients. Fields left out by a
// projection are omitted.
type TodoResponse struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// ListParams are the list controls that are not part of the query schema.
type ListParams struct {
	Fields []string `schema:"fields"`
}

// ToResponse renders t for clients.
func (t Todo) ToResponse() TodoResponse {
	resp := TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
	}
	if !t.CreatedAt.IsZero() {
		resp.CreatedAt = t.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return resp
}
