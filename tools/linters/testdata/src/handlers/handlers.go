package handlers

import "github.com/gofiber/fiber/v2"

type lookup struct{}

func (lookup) Query(key string) string { return key }

func List(c *fiber.Ctx) error {
	_ = c.Query("title")   // want `\(\*fiber.Ctx\).Query drops repeated keys`
	_ = c.Queries()        // want `\(\*fiber.Ctx\).Queries drops repeated keys`
	_ = c.Params("id")
	_ = lookup{}.Query("title")
	return nil
}
