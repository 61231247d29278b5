package main

import (
	"errors"

	"yoktez-backend/lib/scrapers/yoktez"
	"yoktez-backend/services/tez"

	"github.com/gofiber/fiber/v2"
)

// errorHandler maps the scraper error taxonomy onto http statuses: a
// missing record is the caller's problem, an upstream outage is not.
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, yoktez.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, yoktez.ErrTransport):
		status = fiber.StatusBadGateway
	case errors.Is(err, yoktez.ErrSession):
		status = fiber.StatusServiceUnavailable
	default:
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func handleSearch(service tez.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		term := c.Query("q")
		if term == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing query parameter 'q'")
		}
		query := yoktez.SearchQuery{
			Term:       term,
			Field:      yoktez.Field(c.Query("field")),
			YearStart:  c.QueryInt("year_start"),
			YearEnd:    c.QueryInt("year_end"),
			Type:       yoktez.ThesisType(c.Query("type")),
			University: c.Query("university"),
			Language:   c.Query("language"),
			MaxResults: c.QueryInt("max_results", 20),
		}

		results, err := service.Search(c.UserContext(), query)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"results": results,
			"count":   len(results),
		})
	}
}

func handleThesis(service tez.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		detail, err := service.GetDetails(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(detail)
	}
}

func handleStatistics(service tez.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := service.GetStatistics(c.UserContext(), tez.StatisticsFilter{
			University: c.Query("university"),
			Year:       c.QueryInt("year"),
			Type:       yoktez.ThesisType(c.Query("type")),
		})
		if err != nil {
			return err
		}
		return c.JSON(stats)
	}
}

func handleRecent(service tez.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		results, err := service.GetRecent(
			c.UserContext(),
			c.QueryInt("days"),
			c.QueryInt("max_results", 20),
		)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"results": results,
			"count":   len(results),
		})
	}
}
