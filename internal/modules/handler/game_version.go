package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/middleware"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/serializer"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/service"
)

type GameVersionHandler struct {
	svc service.GameVersionService
}

func NewGameVersionHandler(s service.GameVersionService) *GameVersionHandler {
	return &GameVersionHandler{svc: s}
}

func (h *GameVersionHandler) CreateGameVersion(c *gin.Context) {
	in := service.CreateGameVersionInput{}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	in.Actor = middleware.CurrentUser(c)

	gv, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: gv})
}

func (h *GameVersionHandler) GetGameVersion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	gv, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: gv})
}

func (h *GameVersionHandler) SetDefault(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	gv, err := h.svc.SetDefault(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: gv})
}

// AddLink links two versions of the same game and returns every version
// whose links changed.
func (h *GameVersionHandler) AddLink(c *gin.Context) {
	h.link(c, h.svc.AddLink)
}

func (h *GameVersionHandler) RemoveLink(c *gin.Context) {
	h.link(c, h.svc.RemoveLink)
}

type linkOp func(ctx context.Context, in service.LinkInput) ([]*model.GameVersion, error)

func (h *GameVersionHandler) link(c *gin.Context, op linkOp) {
	in := service.LinkInput{}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	in.Actor = middleware.CurrentUser(c)

	changed, err := op(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: changed})
}
