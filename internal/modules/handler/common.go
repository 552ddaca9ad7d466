package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/serializer"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/service"
)

// pathID parses a positive integer path parameter. It writes the error
// response itself and reports false when the value is unusable.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid "+name, err))
		return 0, false
	}
	return uint(id), true
}

func fail(c *gin.Context, err error) {
	res := serializer.ServiceErr(err)
	c.JSON(res.Code, res)
}

// editResponse answers 200 for an applied edit and 202 for a queued one.
func editResponse(c *gin.Context, out *service.EditOutcome) {
	if out.Queued != nil {
		c.JSON(http.StatusAccepted, serializer.Response{Msg: "edit queued for approval", Data: out})
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

type SetStatusReq struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason" binding:"max=1000"`
}
