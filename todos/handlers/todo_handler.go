package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/schema"
	"github.com/monomonedula/monquery/internal/utils"
	"github.com/monomonedula/monquery/todos/errors"
	"github.com/monomonedula/monquery/todos/models"
	"github.com/monomonedula/monquery/todos/services"
)

type TodoHandler struct {
	service services.Service
	decoder *schema.Decoder
}

func NewTodoHandler(service services.Service) *TodoHandler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &TodoHandler{service: service, decoder: decoder}
}

// List returns the todos selected by the query string.
// Endpoint: GET /todos/?title=...&time[min]=...&sort=...&skip=...&limit=...&fields=...
func (h *TodoHandler) List(c *fiber.Ctx) error {
	q := utils.ParseQueryString(string(c.Request().URI().QueryString()))

	var params models.ListParams
	if err := h.decoder.Decode(&params, q); err != nil {
		return errors.HandleValidationError(c, err.Error())
	}

	todos, err := h.service.ListTodos(c.UserContext(), q, params.Fields)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	return c.Status(http.StatusOK).JSON(todos)
}

// Create stores a new todo.
// Endpoint: POST /todos/
func (h *TodoHandler) Create(c *fiber.Ctx) error {
	var req models.CreateTodoRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleValidationError(c, "invalid request body")
	}

	todo, err := h.service.CreateTodo(c.UserContext(), req)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(todo)
}
