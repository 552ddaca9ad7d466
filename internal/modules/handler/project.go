package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/middleware"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/serializer"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/service"
)

type ProjectHandler struct {
	projects service.ProjectService
	versions service.VersionService
	status   service.StatusService
}

func NewProjectHandler(projects service.ProjectService, versions service.VersionService, status service.StatusService) *ProjectHandler {
	return &ProjectHandler{projects: projects, versions: versions, status: status}
}

type ListProjectsReq struct {
	GameName string `form:"gameName"`
}

// ListProjects godoc
//
//	@Summary		List projects
//	@Description	Lists the projects the caller may see, optionally for one game.
//	@Tags			project
//	@Produce		json
//	@Param			gameName	query	string	false	"Game name"
//	@Success		200	{object}	serializer.Response{data=[]model.Project}
//	@Router			/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	req := ListProjectsReq{}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	out, err := h.projects.List(c.Request.Context(), req.GameName, middleware.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.projects.Get(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: p})
}

// CreateProject godoc
//
//	@Summary	Create a project
//	@Tags		project
//	@Accept		json
//	@Produce	json
//	@Param		body	body	service.CreateProjectInput	true	"Project"
//	@Security	BearerAuth
//	@Success	201	{object}	serializer.Response{data=model.Project}
//	@Failure	409	{object}	serializer.Response
//	@Router		/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	in := service.CreateProjectInput{}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	in.Actor = middleware.CurrentUser(c)

	p, err := h.projects.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: p})
}

// EditProject godoc
//
//	@Summary		Edit a project
//	@Description	Applies the patch directly, or queues it for approval when the project is verified.
//	@Tags			project
//	@Accept			json
//	@Produce		json
//	@Param			id		path	integer					true	"Project ID"
//	@Param			body	body	service.EditProjectInput	true	"Patch"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.EditOutcome}
//	@Success		202	{object}	serializer.Response{data=service.EditOutcome}
//	@Router			/projects/{id} [patch]
func (h *ProjectHandler) EditProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	in := service.EditProjectInput{}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	in.ID = id
	in.Actor = middleware.CurrentUser(c)

	out, err := h.projects.Edit(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	editResponse(c, out)
}

func (h *ProjectHandler) SetProjectStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	req := SetStatusReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	p, err := h.status.SetProjectStatus(c.Request.Context(), service.SetStatusInput{
		ID:     id,
		Status: model.Status(req.Status),
		Reason: req.Reason,
		Actor:  middleware.CurrentUser(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: p})
}

func (h *ProjectHandler) ListVersions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	out, err := h.versions.ListByProject(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

// CreateVersion godoc
//
//	@Summary	Upload metadata for a new version of a project
//	@Tags		version
//	@Accept		json
//	@Produce	json
//	@Param		id		path	integer						true	"Project ID"
//	@Param		body	body	service.CreateVersionInput	true	"Version"
//	@Security	BearerAuth
//	@Success	201	{object}	serializer.Response{data=model.Version}
//	@Router		/projects/{id}/versions [post]
func (h *ProjectHandler) CreateVersion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	in := service.CreateVersionInput{}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	in.ProjectID = id
	in.Actor = middleware.CurrentUser(c)

	v, err := h.versions.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: v})
}
