package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ncobase/taskflow/middleware"
	"github.com/ncobase/taskflow/pkg/resp"
	"github.com/ncobase/taskflow/structs"
)

func (h *Handler) register(c *gin.Context) {
	var body structs.RegisterBody
	if !bind(c, &body) {
		return
	}

	result, err := h.svc.Auth.Register(c.Request.Context(), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.WithStatusCode(c.Writer, http.StatusCreated, result)
}

func (h *Handler) login(c *gin.Context) {
	var body structs.LoginBody
	if !bind(c, &body) {
		return
	}

	result, err := h.svc.Auth.Login(c.Request.Context(), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, result)
}

func (h *Handler) reactivate(c *gin.Context) {
	var body structs.LoginBody
	if !bind(c, &body) {
		return
	}

	result, err := h.svc.Auth.Reactivate(c.Request.Context(), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, result)
}

func (h *Handler) verifyEmail(c *gin.Context) {
	user, err := h.svc.Auth.VerifyEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, user)
}

func (h *Handler) resendVerification(c *gin.Context) {
	var body structs.ResendVerificationBody
	if !bind(c, &body) {
		return
	}

	if err := h.svc.Auth.ResendVerification(c.Request.Context(), body.Email); err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, "verification email sent")
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var body structs.ForgotPasswordBody
	if !bind(c, &body) {
		return
	}

	if err := h.svc.Auth.ForgotPassword(c.Request.Context(), body.Email); err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, "if the email exists, a reset link has been sent")
}

func (h *Handler) resetPassword(c *gin.Context) {
	var body structs.ResetPasswordBody
	if !bind(c, &body) {
		return
	}

	if err := h.svc.Auth.ResetPassword(c.Request.Context(), c.Param("token"), body.Password); err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, "password has been reset")
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.svc.Auth.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, user)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var body structs.UpdateProfileBody
	if !bind(c, &body) {
		return
	}

	user, err := h.svc.Auth.UpdateProfile(c.Request.Context(), middleware.UserID(c), &body)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, user)
}

func (h *Handler) changePassword(c *gin.Context) {
	var body structs.ChangePasswordBody
	if !bind(c, &body) {
		return
	}

	if err := h.svc.Auth.ChangePassword(c.Request.Context(), middleware.UserID(c), &body); err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, "password changed")
}

func (h *Handler) deactivate(c *gin.Context) {
	if err := h.svc.Auth.Deactivate(c.Request.Context(), middleware.UserID(c)); err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, "account deactivated")
}

func (h *Handler) uploadAvatar(c *gin.Context) {
	file, err := c.FormFile("avatar")
	if err != nil {
		resp.Fail(c.Writer, resp.BadRequest("avatar file is required"))
		return
	}

	src, err := file.Open()
	if err != nil {
		resp.Fail(c.Writer, resp.BadRequest("failed to read uploaded file"))
		return
	}
	defer src.Close()

	user, err := h.svc.Auth.UploadAvatar(c.Request.Context(), middleware.UserID(c), file.Filename, file.Size, src)
	if err != nil {
		fail(c, err)
		return
	}
	resp.Success(c.Writer, user)
}
