package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/middleware"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/serializer"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/service"
)

type VersionHandler struct {
	versions service.VersionService
	status   service.StatusService
}

func NewVersionHandler(versions service.VersionService, status service.StatusService) *VersionHandler {
	return &VersionHandler{versions: versions, status: status}
}

func (h *VersionHandler) GetVersion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.versions.Get(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: v})
}

func (h *VersionHandler) EditVersion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	in := service.EditVersionInput{}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	in.ID = id
	in.Actor = middleware.CurrentUser(c)

	out, err := h.versions.Edit(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	editResponse(c, out)
}

func (h *VersionHandler) SetVersionStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	req := SetStatusReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	v, err := h.status.SetVersionStatus(c.Request.Context(), service.SetStatusInput{
		ID:     id,
		Status: model.Status(req.Status),
		Reason: req.Reason,
		Actor:  middleware.CurrentUser(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: v})
}

// RecordDownload counts one download. It does not touch the read cache.
func (h *VersionHandler) RecordDownload(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.versions.RecordDownload(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
