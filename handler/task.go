package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ncobase/taskflow/middleware"
	"github.com/ncobase/taskflow/pkg/resp"
	"github.com/ncobase/taskflow/structs"
)

func (h *Handler) createTask(c *gin.Context) {
	var body structs.CreateTaskBody
	if !bind(c, &body) {
		return
	}

	task, err := h.svc.Task.Create(c.Request.Context(), middleware.UserID(c), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.WithStatusCode(c.Writer, http.StatusCreated, task)
}

func (h *Handler) listTasks(c *gin.Context) {
	var q structs.TaskListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		resp.Fail(c.Writer, resp.BadRequest("invalid query parameters"))
		return
	}

	result, err := h.svc.Task.List(c.Request.Context(), middleware.UserID(c), &q)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, result)
}

func (h *Handler) taskStats(c *gin.Context) {
	stats, err := h.svc.Task.Stats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, stats)
}

func (h *Handler) getTask(c *gin.Context) {
	task, err := h.svc.Task.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, task)
}

func (h *Handler) updateTask(c *gin.Context) {
	var body structs.UpdateTaskBody
	if !bind(c, &body) {
		return
	}

	task, err := h.svc.Task.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, task)
}

func (h *Handler) deleteTask(c *gin.Context) {
	if err := h.svc.Task.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, "task deleted")
}

func (h *Handler) addSubtask(c *gin.Context) {
	var body structs.SubtaskBody
	if !bind(c, &body) {
		return
	}

	task, err := h.svc.Task.AddSubtask(c.Request.Context(), middleware.UserID(c), c.Param("id"), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.WithStatusCode(c.Writer, http.StatusCreated, task)
}

func (h *Handler) updateSubtask(c *gin.Context) {
	var body structs.SubtaskBody
	if err := c.ShouldBindJSON(&body); err != nil {
		resp.Fail(c.Writer, resp.BadRequest("invalid request body"))
		return
	}

	task, err := h.svc.Task.UpdateSubtask(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("subtaskId"), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, task)
}

func (h *Handler) deleteSubtask(c *gin.Context) {
	task, err := h.svc.Task.DeleteSubtask(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("subtaskId"))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, task)
}

func (h *Handler) addAttachment(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		resp.Fail(c.Writer, resp.BadRequest("file is required"))
		return
	}

	src, err := file.Open()
	if err != nil {
		resp.Fail(c.Writer, resp.BadRequest("failed to read uploaded file"))
		return
	}
	defer src.Close()

	mimeType := file.Header.Get("Content-Type")
	task, err := h.svc.Task.AddAttachment(c.Request.Context(), middleware.UserID(c), c.Param("id"), file.Filename, mimeType, file.Size, src)
	if err != nil {
		fail(c, err)
		return
	}
	resp.WithStatusCode(c.Writer, http.StatusCreated, task)
}

func (h *Handler) deleteAttachment(c *gin.Context) {
	task, err := h.svc.Task.DeleteAttachment(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("attachmentId"))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, task)
}
