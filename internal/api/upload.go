package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phmhse/csmstrack/internal/apperr"
	"github.com/phmhse/csmstrack/internal/models"
	"github.com/phmhse/csmstrack/internal/storage"
	"github.com/phmhse/csmstrack/internal/store"
)

// folderUploader is implemented by storage backends that can file uploads
// into nested folders.
type folderUploader interface {
	UploadTo(ctx context.Context, data []byte, contentType, name string, path []string) (storage.Reference, error)
}

// remover is implemented by storage backends that can delete an upload.
type remover interface {
	Delete(ctx context.Context, id string) error
}

// upload reads the multipart "file" field and hands it to the uploader,
// under path when the backend supports folders.
func (s *server) upload(c *gin.Context, path []string) (models.Attachment, error) {
	if s.Uploader == nil {
		return models.Attachment{}, apperr.Upstream("upload", fmt.Errorf("storage is not configured"))
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return models.Attachment{}, apperr.Validation("file", "%v", err)
	}
	if fh.Size > maxUpload {
		return models.Attachment{}, apperr.Validation("file", "exceeds %d bytes", maxUpload)
	}
	f, err := fh.Open()
	if err != nil {
		return models.Attachment{}, apperr.Validation("file", "%v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUpload+1))
	if err != nil {
		return models.Attachment{}, apperr.Validation("file", "%v", err)
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	ctx, cancel := s.upstreamCtx(c)
	defer cancel()
	var ref storage.Reference
	if fu, ok := s.Uploader.(folderUploader); ok && len(path) > 0 {
		ref, err = fu.UploadTo(ctx, data, contentType, fh.Filename, path)
	} else {
		ref, err = s.Uploader.Upload(ctx, data, contentType, fh.Filename)
	}
	if err != nil {
		return models.Attachment{}, apperr.Upstream("upload", err)
	}

	a := models.Attachment{Filename: fh.Filename, Reference: ref.ID}
	if ref.URL != "" {
		a.Extra = map[string]any{"url": ref.URL}
	}
	return a, nil
}

// handleTaskAttachment uploads evidence for a checklist task into its
// element folder.
func (s *server) handleTaskAttachment(c *gin.Context) {
	ctx := c.Request.Context()
	t, err := store.Get[models.Task](ctx, s.DB, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	projectName := t.ProjectID
	if p, err := store.Get[models.Project](ctx, s.DB, t.ProjectID); err == nil {
		projectName = p.Name
	}
	a, err := s.upload(c, storage.TaskFolder(projectName, t.Code, t.Title))
	if err != nil {
		s.respondError(c, err)
		return
	}
	out, err := store.AttachToTask(ctx, s.DB, t.ID, a)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}
