package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phmhse/csmstrack/internal/store"
)

// Generic handlers for records that need no derivation on the way out.

func getRecord[T any](s *server) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := store.Get[T](c.Request.Context(), s.DB, c.Param("id"))
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func createRecord[T any](s *server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rec T
		if err := bind(c, &rec); err != nil {
			s.respondError(c, err)
			return
		}
		out, err := store.Put(c.Request.Context(), s.DB, &rec)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, out)
	}
}

// updateRecord decodes the body over the stored record so omitted fields
// keep their values. The id in the path always wins.
func updateRecord[T any](s *server) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("id")
		rec, err := store.Get[T](ctx, s.DB, id)
		if err != nil {
			s.respondError(c, err)
			return
		}
		if err := bind(c, rec); err != nil {
			s.respondError(c, err)
			return
		}
		setID(rec, id)
		out, err := store.Put(ctx, s.DB, rec)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func deleteRecord[T any](s *server) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.Delete[T](c.Request.Context(), s.DB, c.Param("id")); err != nil {
			s.respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
