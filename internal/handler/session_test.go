package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"

	"funglish/internal/config"
	"funglish/internal/model"
	"funglish/internal/session"
)

func newSessionRouter() (*gin.Engine, *session.Store) {
	gin.SetMode(gin.TestMode)

	store := session.NewStore(&config.SessionConfig{TTL: time.Hour, MaxHistory: 50})
	h := NewSessionHandler(store)

	r := gin.New()
	r.POST("/api/v1/session", h.Start)
	r.GET("/api/v1/session/:id", h.Info)
	return r, store
}

func TestSessionStart(t *testing.T) {
	Convey("开始新的学习会话", t, func() {
		r, _ := newSessionRouter()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/session", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		var resp model.SessionResponse
		So(sonic.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
		So(resp.Success, ShouldBeTrue)
		So(resp.SessionID, ShouldNotBeEmpty)
		So(resp.UserID, ShouldStartWith, "user_")
	})
}

func TestSessionInfo(t *testing.T) {
	Convey("获取会话信息", t, func() {
		r, store := newSessionRouter()

		Convey("已存在的会话", func() {
			sess := store.Create("user_1")

			req := httptest.NewRequest(http.MethodGet, "/api/v1/session/"+sess.ID, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			var resp model.SessionResponse
			So(sonic.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.Success, ShouldBeTrue)
			So(resp.SessionID, ShouldEqual, sess.ID)
			So(resp.CreatedAt, ShouldNotBeEmpty)
		})

		Convey("不存在的会话", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/session/missing", nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			var resp model.SessionResponse
			So(sonic.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.Success, ShouldBeFalse)
			So(resp.Error, ShouldNotBeEmpty)
		})
	})
}
