package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/serializer"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/service"
)

type ModsHandler struct {
	svc service.ModsService
}

func NewModsHandler(s service.ModsService) *ModsHandler {
	return &ModsHandler{svc: s}
}

// GetMods godoc
//
//	@Summary		Resolve installable mods
//	@Description	Returns the latest release of every project whose dependencies are satisfiable for the given game version. Without gameVersion the result is approximate.
//	@Tags			mods
//	@Produce		json
//	@Param			gameName	query	string	true	"Game name"
//	@Param			gameVersion	query	string	false	"Game version, e.g. 1.29.1"
//	@Param			platform	query	string	false	"Platform"
//	@Param			status		query	string	false	"verified (default) or preview"
//	@Success		200	{object}	serializer.Response{data=resolver.Result}
//	@Router			/mods [get]
func (h *ModsHandler) GetMods(c *gin.Context) {
	in := service.ModsQueryInput{}
	if err := c.ShouldBindQuery(&in); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	res, err := h.svc.Query(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: res})
}
