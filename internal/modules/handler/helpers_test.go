package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/middleware"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/serializer"
)

var (
	testAuthor   = &model.User{ID: 2, Username: "author"}
	testApprover = &model.User{ID: 3, Username: "approver"}
)

// newTestRouter runs every request as u (anonymous when nil).
func newTestRouter(u *model.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if u != nil {
			middleware.SetUser(c, u)
		}
		c.Next()
	})
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) (serializer.Response, map[string]any) {
	t.Helper()
	var raw struct {
		serializer.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	var data map[string]any
	if len(raw.Data) > 0 && raw.Data[0] == '{' {
		require.NoError(t, json.Unmarshal(raw.Data, &data))
	}
	return raw.Response, data
}

