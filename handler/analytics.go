package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ncobase/taskflow/middleware"
	"github.com/ncobase/taskflow/pkg/resp"
	"github.com/ncobase/taskflow/structs"
)

func (h *Handler) dashboard(c *gin.Context) {
	q := structs.AnalyticsQuery{Period: c.Query("period")}
	result, err := h.svc.Analytics.Dashboard(c.Request.Context(), middleware.UserID(c), &q)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, result)
}

func (h *Handler) completionStats(c *gin.Context) {
	q := structs.AnalyticsQuery{Period: c.Query("period")}
	result, err := h.svc.Analytics.Completion(c.Request.Context(), middleware.UserID(c), &q)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, result)
}

func (h *Handler) categoryStats(c *gin.Context) {
	q := structs.AnalyticsQuery{Period: c.Query("period")}
	result, err := h.svc.Analytics.Categories(c.Request.Context(), middleware.UserID(c), &q)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, result)
}

func (h *Handler) priorityStats(c *gin.Context) {
	q := structs.AnalyticsQuery{Period: c.Query("period")}
	result, err := h.svc.Analytics.Priorities(c.Request.Context(), middleware.UserID(c), &q)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, result)
}

func (h *Handler) productivityStats(c *gin.Context) {
	q := structs.AnalyticsQuery{Period: c.Query("period")}
	result, err := h.svc.Analytics.Productivity(c.Request.Context(), middleware.UserID(c), &q)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, result)
}

func (h *Handler) saveReport(c *gin.Context) {
	var body structs.SaveReportBody
	if !bind(c, &body) {
		return
	}

	report, err := h.svc.Analytics.SaveReport(c.Request.Context(), middleware.UserID(c), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.WithStatusCode(c.Writer, http.StatusCreated, report)
}

func (h *Handler) listReports(c *gin.Context) {
	reports, err := h.svc.Analytics.Reports(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, reports)
}

func (h *Handler) getReport(c *gin.Context) {
	report, err := h.svc.Analytics.GetReport(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, report)
}

func (h *Handler) runReport(c *gin.Context) {
	result, err := h.svc.Analytics.RunReport(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, result)
}

func (h *Handler) updateReport(c *gin.Context) {
	var body structs.SaveReportBody
	if !bind(c, &body) {
		return
	}

	report, err := h.svc.Analytics.UpdateReport(c.Request.Context(), middleware.UserID(c), c.Param("id"), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, report)
}

func (h *Handler) deleteReport(c *gin.Context) {
	if err := h.svc.Analytics.DeleteReport(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, "report deleted")
}
