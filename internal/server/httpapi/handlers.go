package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/server/models"
	"github.com/dmitrijs2005/syncbox/internal/server/services"
	"github.com/labstack/echo/v4"
)

// EntryService is what the handlers need from services.EntryService.
type EntryService interface {
	Create(ctx context.Context, key string, in services.CreateInput) (*models.Entry, error)
	Update(ctx context.Context, id int64, p models.Patch) (*models.Entry, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]models.Entry, error)
}

type createRequest struct {
	Title     string `json:"title"`
	Notes     string `json:"notes"`
	Completed bool   `json:"completed"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type patchRequest struct {
	Title     *string `json:"title"`
	Notes     *string `json:"notes"`
	Completed *bool   `json:"completed"`
	UpdatedAt int64   `json:"updated_at"`
}

func ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
}

func listEntries(svc EntryService) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := svc.List(c.Request().Context())
		if err != nil {
			return err
		}
		return ok(c, http.StatusOK, list)
	}
}

func createEntry(svc EntryService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createRequest
		if err := c.Bind(&req); err != nil {
			return fail(c, http.StatusBadRequest, "Invalid JSON body")
		}

		key := c.Request().Header.Get(common.IdempotencyKeyHeader)
		e, err := svc.Create(c.Request().Context(), key, services.CreateInput{
			Title:     req.Title,
			Notes:     req.Notes,
			Completed: req.Completed,
			CreatedAt: req.CreatedAt,
			UpdatedAt: req.UpdatedAt,
		})
		if err != nil {
			return err
		}
		return ok(c, http.StatusCreated, e)
	}
}

func patchEntry(svc EntryService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := entryID(c)
		if err != nil {
			return fail(c, http.StatusBadRequest, "Invalid id")
		}

		var req patchRequest
		if err := c.Bind(&req); err != nil {
			return fail(c, http.StatusBadRequest, "Invalid JSON body")
		}

		e, err := svc.Update(c.Request().Context(), id, models.Patch{
			Title:     req.Title,
			Notes:     req.Notes,
			Completed: req.Completed,
			UpdatedAt: req.UpdatedAt,
		})
		if err != nil {
			return err
		}
		return ok(c, http.StatusOK, e)
	}
}

func deleteEntry(svc EntryService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := entryID(c)
		if err != nil {
			return fail(c, http.StatusBadRequest, "Invalid id")
		}
		if err := svc.Delete(c.Request().Context(), id); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func entryID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
