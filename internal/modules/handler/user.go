package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/middleware"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/serializer"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/service"
)

type UserHandler struct {
	svc service.UserService
}

func NewUserHandler(s service.UserService) *UserHandler {
	return &UserHandler{svc: s}
}

func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, serializer.Response{Data: middleware.CurrentUser(c)})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: u})
}

type IssueTokenResp struct {
	Token string `json:"token"`
}

// IssueToken godoc
//
//	@Summary		Rotate a user's API token
//	@Description	Replaces the token and returns the new one. It is shown only once.
//	@Tags			user
//	@Produce		json
//	@Param			id	path	integer	true	"User ID"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=IssueTokenResp}
//	@Router			/users/{id}/token [post]
func (h *UserHandler) IssueToken(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	token, err := h.svc.IssueToken(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: IssueTokenResp{Token: token}})
}

func (h *UserHandler) SetRoles(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	in := service.SetRolesInput{}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	in.UserID = id
	in.Actor = middleware.CurrentUser(c)

	u, err := h.svc.SetRoles(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: u})
}
