package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/phmhse/csmstrack/internal/models"
	"github.com/phmhse/csmstrack/internal/store"
)

func (s *server) handleDocList(c *gin.Context) {
	docs, err := store.List[models.RelatedDoc](c.Request.Context(), s.DB, store.Filter{
		Where: map[string]any{"project_id": c.Param("id")},
		Order: "created_at desc",
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// handleDocUpload stores a supporting document for a project. The form
// carries "file" and an optional "doc_name".
func (s *server) handleDocUpload(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := store.Get[models.Project](ctx, s.DB, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	a, err := s.upload(c, []string{p.Name, "Related Documents"})
	if err != nil {
		s.respondError(c, err)
		return
	}
	name := c.PostForm("doc_name")
	if name == "" {
		name = a.Filename
	}
	doc := &models.RelatedDoc{
		ProjectID: p.ID,
		WellName:  p.WellName,
		DocName:   name,
		Filename:  a.Filename,
		Reference: a.Reference,
	}
	if _, err := store.Put(ctx, s.DB, doc); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// handleDocDelete removes the record and then, best effort, the stored file.
func (s *server) handleDocDelete(c *gin.Context) {
	ctx := c.Request.Context()
	doc, err := store.Get[models.RelatedDoc](ctx, s.DB, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := store.Delete[models.RelatedDoc](ctx, s.DB, doc.ID); err != nil {
		s.respondError(c, err)
		return
	}
	if rm, ok := s.Uploader.(remover); ok && doc.Reference != "" {
		upCtx, cancel := s.upstreamCtx(c)
		defer cancel()
		if err := rm.Delete(upCtx, doc.Reference); err != nil {
			s.log.Warn("stored document not removed",
				zap.String("service", "storage"), zap.String("reference", doc.Reference), zap.Error(err))
		}
	}
	c.Status(http.StatusNoContent)
}
