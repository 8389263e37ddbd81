package mwlogger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"
)

func TestLoggerFromContext_Fallback(t *testing.T) {
	// без логгера в контексте не паникуем
	l := LoggerFromContext(context.Background())
	l.Debug().Msg("fallback works")
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1", "resize")

	_, ok := ctx.Value(loggerWithRequestID{}).(zlog.Zerolog)
	require.True(t, ok)
}

func TestNewMWLogger_PropagatesRequestID(t *testing.T) {
	engine := ginext.New(gin.TestMode)
	var seen bool
	engine.GET("/ping", func(c *ginext.Context) {
		seen = c.Request.Context().Value(loggerWithRequestID{}) != nil
		c.Status(204)
	})

	h := NewMWLogger(engine)

	t.Run("client id kept", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, "abc")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		require.Equal(t, 204, w.Code)
		require.Equal(t, "abc", w.Header().Get(RequestIDHeader))
		require.True(t, seen)
	})

	t.Run("id generated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		require.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})
}
