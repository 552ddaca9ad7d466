package serializer

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/service"
)

const (
	msgForbidden = "not permitted"
	msgInternal  = "internal error"
)

// ServiceErr maps a service error onto the response envelope. Forbidden
// never says which role was missing and integrity failures are logged but
// reported generically.
func ServiceErr(err error) Response {
	switch {
	case errors.Is(err, service.ErrValidation):
		return Err(http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrConflict):
		return Err(http.StatusConflict, err.Error(), nil)
	case errors.Is(err, service.ErrNotFound):
		return Err(http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrForbidden):
		return Err(http.StatusForbidden, msgForbidden, nil)
	case errors.Is(err, service.ErrIntegrity):
		log().Error("integrity violation", zap.Error(err))
		return Response{Code: http.StatusInternalServerError, Msg: msgInternal}
	}
	log().Error("unhandled service error", zap.Error(err))
	return DBErr(msgInternal, err)
}

// AbortWithServiceErr writes the mapped error and stops the chain.
func AbortWithServiceErr(c *gin.Context, err error) {
	res := ServiceErr(err)
	c.AbortWithStatusJSON(res.Code, res)
}
