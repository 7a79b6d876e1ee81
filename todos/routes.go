package todos

import (
	"github.com/gofiber/fiber/v2"
	"github.com/monomonedula/monquery/todos/handlers"
)

type Handlers struct {
	TodoHandler *handlers.TodoHandler
}

// RegisterRoutes wires todo endpoints.
func RegisterRoutes(app *fiber.App, handlers *Handlers) {
	group := app.Group("/todos")

	group.Get("/", handlers.TodoHandler.List)
	group.Post("/", handlers.TodoHandler.Create)
}
