package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/phmhse/csmstrack/internal/models"
	"github.com/phmhse/csmstrack/internal/store"
)

func (s *server) handleCommentList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	list, err := store.List[models.Comment](c.Request.Context(), s.DB, store.Filter{
		Order: "created_at desc",
		Limit: limit,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *server) handleCommentLike(c *gin.Context) {
	likes, err := store.LikeComment(c.Request.Context(), s.DB, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "likes": likes})
}

func (s *server) handleCommentReply(c *gin.Context) {
	var r models.Reply
	if err := bind(c, &r); err != nil {
		s.respondError(c, err)
		return
	}
	out, err := store.AddReply(c.Request.Context(), s.DB, c.Param("id"), r, s.Now())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}
