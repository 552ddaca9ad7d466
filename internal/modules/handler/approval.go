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

type ApprovalHandler struct {
	svc service.ApprovalService
}

func NewApprovalHandler(s service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{svc: s}
}

// ListPending godoc
//
//	@Summary		List pending edits
//	@Description	Pending edit requests for a game, oldest first, with cursor-based pagination.
//	@Tags			approval
//	@Produce		json
//	@Param			gameName	query	string	true	"Game name"
//	@Param			limit		query	integer	false	"Page size, default 50. Max 200."
//	@Param			cursor		query	string	false	"Cursor from the previous page"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.ListPendingOutput}
//	@Router			/approvals [get]
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	in := service.ListPendingInput{}
	if err := c.ShouldBindQuery(&in); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	in.Actor = middleware.CurrentUser(c)

	out, err := h.svc.ListPending(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

func (h *ApprovalHandler) Approve(c *gin.Context) {
	h.decide(c, h.svc.Approve)
}

func (h *ApprovalHandler) Deny(c *gin.Context) {
	h.decide(c, h.svc.Deny)
}

type decideOp func(ctx context.Context, id uint, approver *model.User) (*service.ApprovalResult, error)

// decide answers 200 for an already-decided request too; retries are safe.
func (h *ApprovalHandler) decide(c *gin.Context, op decideOp) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := op(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	msg := ""
	if res.NoOp {
		msg = "edit request was already decided"
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: msg, Data: res})
}
