package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/middleware"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/serializer"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/service"
)

type GameHandler struct {
	games        service.GameService
	gameVersions service.GameVersionService
}

func NewGameHandler(games service.GameService, gameVersions service.GameVersionService) *GameHandler {
	return &GameHandler{games: games, gameVersions: gameVersions}
}

// ListGames godoc
//
//	@Summary	List games
//	@Tags		game
//	@Produce	json
//	@Success	200	{object}	serializer.Response{data=[]model.Game}
//	@Router		/games [get]
func (h *GameHandler) ListGames(c *gin.Context) {
	games, err := h.games.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: games})
}

// GetGame godoc
//
//	@Summary	Get a game by name
//	@Tags		game
//	@Produce	json
//	@Param		name	path	string	true	"Game name"
//	@Success	200	{object}	serializer.Response{data=model.Game}
//	@Failure	404	{object}	serializer.Response
//	@Router		/games/{name} [get]
func (h *GameHandler) GetGame(c *gin.Context) {
	g, err := h.games.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: g})
}

// CreateGame godoc
//
//	@Summary	Create a game
//	@Tags		game
//	@Accept		json
//	@Produce	json
//	@Param		body	body	service.CreateGameInput	true	"Game"
//	@Security	BearerAuth
//	@Success	201	{object}	serializer.Response{data=model.Game}
//	@Router		/games [post]
func (h *GameHandler) CreateGame(c *gin.Context) {
	in := service.CreateGameInput{}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	in.Actor = middleware.CurrentUser(c)

	g, err := h.games.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: g})
}

func (h *GameHandler) DeleteGame(c *gin.Context) {
	if err := h.games.Delete(c.Request.Context(), c.Param("name"), middleware.CurrentUser(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "game deleted"})
}

func (h *GameHandler) SetDefaultGame(c *gin.Context) {
	if err := h.games.SetDefault(c.Request.Context(), c.Param("name"), middleware.CurrentUser(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "default game set"})
}

func (h *GameHandler) AddCategory(c *gin.Context) {
	in := service.CategoryInput{}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	in.GameName = c.Param("name")
	in.Actor = middleware.CurrentUser(c)

	g, err := h.games.AddCategory(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: g})
}

type RemoveCategoryResp struct {
	Game  any   `json:"game"`
	Moved int64 `json:"moved"`
}

// RemoveCategory moves the category's projects to Other.
func (h *GameHandler) RemoveCategory(c *gin.Context) {
	g, moved, err := h.games.RemoveCategory(c.Request.Context(), service.CategoryInput{
		GameName: c.Param("name"),
		Category: c.Param("category"),
		Actor:    middleware.CurrentUser(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: RemoveCategoryResp{Game: g, Moved: moved}})
}

func (h *GameHandler) ListGameVersions(c *gin.Context) {
	gvs, err := h.gameVersions.List(c.Request.Context(), c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: gvs})
}

type ResortResp struct {
	Count int `json:"count"`
}

// Resort godoc
//
//	@Summary		Re-sort supported game versions
//	@Description	Starts a background pass over every version of the game and returns how many it will visit.
//	@Tags			game
//	@Produce		json
//	@Param			name	path	string	true	"Game name"
//	@Security		BearerAuth
//	@Success		202	{object}	serializer.Response{data=ResortResp}
//	@Router			/games/{name}/resort [post]
func (h *GameHandler) Resort(c *gin.Context) {
	n, err := h.gameVersions.Resort(c.Request.Context(), c.Param("name"), middleware.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, serializer.Response{Data: ResortResp{Count: n}})
}
