package middleware

import (
	"bytes"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/serializer"
)

// numbers stay json.Number so large ids survive the round trip
var jsonAPI = sonic.Config{UseNumber: true}.Froze()

// SanitizeInput strips markup from every string in a JSON request body.
// Keys listed in keep are left alone: fields services sanitize with a looser
// policy, and fields such as version ranges where '<' is not markup.
func SanitizeInput(policy *bluemonday.Policy, keep ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}
		if c.Request.Body == nil || c.ContentType() != gin.MIMEJSON {
			c.Next()
			return
		}

		buf, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, serializer.ParamErr("invalid body", err))
			return
		}
		if len(bytes.TrimSpace(buf)) == 0 {
			c.Request.Body = io.NopCloser(bytes.NewReader(buf))
			c.Next()
			return
		}

		var body any
		if err := jsonAPI.Unmarshal(buf, &body); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, serializer.ParamErr("malformed JSON", err))
			return
		}
		body = sanitizeValue(policy, body, keep)

		clean, err := jsonAPI.Marshal(body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, serializer.ParamErr("malformed JSON", err))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(clean))
		c.Request.ContentLength = int64(len(clean))
		c.Next()
	}
}

func sanitizeValue(policy *bluemonday.Policy, v any, keep []string) any {
	switch t := v.(type) {
	case string:
		// plain text would only pick up HTML escaping
		if !strings.ContainsRune(t, '<') {
			return t
		}
		return policy.Sanitize(t)
	case []any:
		for i := range t {
			t[i] = sanitizeValue(policy, t[i], keep)
		}
		return t
	case map[string]any:
		for k, inner := range t {
			if slices.Contains(keep, k) {
				continue
			}
			t[k] = sanitizeValue(policy, inner, keep)
		}
		return t
	}
	return v
}
