package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ncobase/taskflow/middleware"
	"github.com/ncobase/taskflow/pkg/resp"
	"github.com/ncobase/taskflow/structs"
)

func (h *Handler) createList(c *gin.Context) {
	var body structs.CreateSharedListBody
	if !bind(c, &body) {
		return
	}

	list, err := h.svc.SharedList.Create(c.Request.Context(), middleware.UserID(c), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.WithStatusCode(c.Writer, http.StatusCreated, list)
}

func (h *Handler) listLists(c *gin.Context) {
	lists, err := h.svc.SharedList.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, lists)
}

func (h *Handler) getList(c *gin.Context) {
	list, err := h.svc.SharedList.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, list)
}

func (h *Handler) listPublicLists(c *gin.Context) {
	lists, err := h.svc.SharedList.PublicLists(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, lists)
}

func (h *Handler) getPublicList(c *gin.Context) {
	list, err := h.svc.SharedList.GetByAccessCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, list)
}

func (h *Handler) updateList(c *gin.Context) {
	var body structs.UpdateSharedListBody
	if !bind(c, &body) {
		return
	}

	list, err := h.svc.SharedList.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, list)
}

func (h *Handler) deleteList(c *gin.Context) {
	if err := h.svc.SharedList.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, "list deleted")
}

func (h *Handler) addListMember(c *gin.Context) {
	var body structs.AddListMemberBody
	if !bind(c, &body) {
		return
	}

	list, err := h.svc.SharedList.AddMember(c.Request.Context(), middleware.UserID(c), c.Param("id"), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.WithStatusCode(c.Writer, http.StatusCreated, list)
}

func (h *Handler) updateListMember(c *gin.Context) {
	var body structs.UpdateListMemberBody
	if !bind(c, &body) {
		return
	}

	list, err := h.svc.SharedList.UpdateMember(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("userId"), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, list)
}

func (h *Handler) removeListMember(c *gin.Context) {
	list, err := h.svc.SharedList.RemoveMember(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, list)
}

func (h *Handler) inviteListMember(c *gin.Context) {
	var body structs.InviteListMemberBody
	if !bind(c, &body) {
		return
	}

	list, err := h.svc.SharedList.Invite(c.Request.Context(), middleware.UserID(c), c.Param("id"), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.WithStatusCode(c.Writer, http.StatusCreated, list)
}

func (h *Handler) acceptListInvitation(c *gin.Context) {
	var body structs.InvitationTokenBody
	if !bind(c, &body) {
		return
	}

	list, err := h.svc.SharedList.AcceptInvitation(c.Request.Context(), middleware.UserID(c), body.Token)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, list)
}

func (h *Handler) declineListInvitation(c *gin.Context) {
	var body structs.InvitationTokenBody
	if !bind(c, &body) {
		return
	}

	if err := h.svc.SharedList.DeclineInvitation(c.Request.Context(), middleware.UserID(c), body.Token); err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, "invitation declined")
}

func (h *Handler) listListTasks(c *gin.Context) {
	tasks, err := h.svc.SharedList.Tasks(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, tasks)
}

func (h *Handler) addListTask(c *gin.Context) {
	var body structs.AddListTaskBody
	if !bind(c, &body) {
		return
	}

	list, err := h.svc.SharedList.AddTask(c.Request.Context(), middleware.UserID(c), c.Param("id"), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.WithStatusCode(c.Writer, http.StatusCreated, list)
}

func (h *Handler) removeListTask(c *gin.Context) {
	list, err := h.svc.SharedList.RemoveTask(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("taskId"))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, list)
}
