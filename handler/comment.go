package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ncobase/taskflow/middleware"
	"github.com/ncobase/taskflow/pkg/resp"
	"github.com/ncobase/taskflow/structs"
)

func (h *Handler) createComment(c *gin.Context) {
	var body structs.CreateCommentBody
	if !bind(c, &body) {
		return
	}

	comment, err := h.svc.Comment.Create(c.Request.Context(), middleware.UserID(c), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.WithStatusCode(c.Writer, http.StatusCreated, comment)
}

func (h *Handler) listComments(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.svc.Comment.List(c.Request.Context(), middleware.UserID(c), c.Param("taskId"), page, limit)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, result)
}

func (h *Handler) getComment(c *gin.Context) {
	comment, err := h.svc.Comment.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, comment)
}

func (h *Handler) updateComment(c *gin.Context) {
	var body structs.UpdateCommentBody
	if !bind(c, &body) {
		return
	}

	comment, err := h.svc.Comment.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, comment)
}

func (h *Handler) deleteComment(c *gin.Context) {
	if err := h.svc.Comment.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, "comment deleted")
}

func (h *Handler) react(c *gin.Context) {
	var body structs.ReactionBody
	if !bind(c, &body) {
		return
	}

	reaction, err := h.svc.Comment.React(c.Request.Context(), middleware.UserID(c), c.Param("id"), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, reaction)
}

func (h *Handler) unreact(c *gin.Context) {
	if err := h.svc.Comment.Unreact(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, "reaction removed")
}

func (h *Handler) listReactions(c *gin.Context) {
	summary, err := h.svc.Comment.Reactions(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, summary)
}
