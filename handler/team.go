package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ncobase/taskflow/middleware"
	"github.com/ncobase/taskflow/pkg/resp"
	"github.com/ncobase/taskflow/structs"
)

func (h *Handler) createTeam(c *gin.Context) {
	var body structs.CreateTeamBody
	if !bind(c, &body) {
		return
	}

	team, err := h.svc.Team.Create(c.Request.Context(), middleware.UserID(c), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.WithStatusCode(c.Writer, http.StatusCreated, team)
}

func (h *Handler) listTeams(c *gin.Context) {
	teams, err := h.svc.Team.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, teams)
}

func (h *Handler) getTeam(c *gin.Context) {
	team, err := h.svc.Team.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, team)
}

func (h *Handler) updateTeam(c *gin.Context) {
	var body structs.UpdateTeamBody
	if !bind(c, &body) {
		return
	}

	team, err := h.svc.Team.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, team)
}

func (h *Handler) deleteTeam(c *gin.Context) {
	if err := h.svc.Team.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, "team deleted")
}

func (h *Handler) addTeamMember(c *gin.Context) {
	var body structs.AddTeamMemberBody
	if !bind(c, &body) {
		return
	}

	team, err := h.svc.Team.AddMember(c.Request.Context(), middleware.UserID(c), c.Param("id"), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.WithStatusCode(c.Writer, http.StatusCreated, team)
}

func (h *Handler) updateTeamMember(c *gin.Context) {
	var body structs.UpdateTeamMemberBody
	if !bind(c, &body) {
		return
	}

	team, err := h.svc.Team.UpdateMember(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("userId"), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, team)
}

func (h *Handler) removeTeamMember(c *gin.Context) {
	team, err := h.svc.Team.RemoveMember(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, team)
}

func (h *Handler) inviteTeamMember(c *gin.Context) {
	var body structs.InviteTeamMemberBody
	if !bind(c, &body) {
		return
	}

	team, err := h.svc.Team.Invite(c.Request.Context(), middleware.UserID(c), c.Param("id"), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.WithStatusCode(c.Writer, http.StatusCreated, team)
}

func (h *Handler) acceptTeamInvitation(c *gin.Context) {
	var body structs.InvitationTokenBody
	if !bind(c, &body) {
		return
	}

	team, err := h.svc.Team.AcceptInvitation(c.Request.Context(), middleware.UserID(c), body.Token)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, team)
}

func (h *Handler) declineTeamInvitation(c *gin.Context) {
	var body structs.InvitationTokenBody
	if !bind(c, &body) {
		return
	}

	if err := h.svc.Team.DeclineInvitation(c.Request.Context(), middleware.UserID(c), body.Token); err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, "invitation declined")
}
