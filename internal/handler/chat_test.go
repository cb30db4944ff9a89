package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"

	"funglish/internal/ai"
	"funglish/internal/config"
	"funglish/internal/session"
)

// fakeChatModel 按片段回放固定回复
type fakeChatModel struct {
	chunks []string
	err    error
}

func (f *fakeChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{
		Role:         schema.Assistant,
		Content:      strings.Join(f.chunks, ""),
		ResponseMeta: &schema.ResponseMeta{FinishReason: "stop"},
	}, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	if f.err != nil {
		return nil, f.err
	}
	sr, sw := schema.Pipe[*schema.Message](len(f.chunks) + 1)
	go func() {
		defer sw.Close()
		for _, chunk := range f.chunks {
			sw.Send(&schema.Message{Role: schema.Assistant, Content: chunk}, nil)
		}
		sw.Send(&schema.Message{Role: schema.Assistant, ResponseMeta: &schema.ResponseMeta{FinishReason: "stop"}}, nil)
	}()
	return sr, nil
}

func newTestRouter(fake *fakeChatModel) (*gin.Engine, *session.Store) {
	gin.SetMode(gin.TestMode)

	store := session.NewStore(&config.SessionConfig{TTL: time.Hour, MaxHistory: 50})
	agent := ai.NewAgentWithModel(fake, "你是英语老师", 50)

	r := gin.New()
	h := NewChatHandler(agent, store)
	r.POST("/api/v1/chat/stream", h.ChatStream)
	r.POST("/api/v1/chat/direct", h.ChatDirect)
	return r, store
}

func doPost(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestChatStream(t *testing.T) {
	Convey("流式对话接口", t, func() {
		Convey("按增量下发message事件并以complete收尾", func() {
			r, _ := newTestRouter(&fakeChatModel{chunks: []string{"Hello! ", "你好"}})

			rec := doPost(r, "/api/v1/chat/stream", `{"message":"hi"}`)
			out := rec.Body.String()

			So(rec.Header().Get("Content-Type"), ShouldEqual, "text/event-stream")
			So(out, ShouldContainSubstring, "id: 1\nevent: message\n")
			So(out, ShouldContainSubstring, `"text":"Hello! "`)
			So(out, ShouldContainSubstring, "id: 2\nevent: message\n")
			So(out, ShouldContainSubstring, `"text":"你好"`)
			So(out, ShouldContainSubstring, "id: 3\nevent: complete\n")
			So(out, ShouldContainSubstring, `"full_response":"Hello! 你好"`)
			So(out, ShouldContainSubstring, `"finish_reason":"stop"`)
		})

		Convey("空消息返回error事件", func() {
			r, _ := newTestRouter(&fakeChatModel{})

			rec := doPost(r, "/api/v1/chat/stream", `{"message":"   "}`)

			So(rec.Body.String(), ShouldContainSubstring, "event: error\n")
			So(rec.Body.String(), ShouldContainSubstring, "请输入消息")
		})

		Convey("请求体不是JSON返回error事件", func() {
			r, _ := newTestRouter(&fakeChatModel{})

			rec := doPost(r, "/api/v1/chat/stream", `not json`)

			So(rec.Body.String(), ShouldContainSubstring, "请求格式错误")
		})

		Convey("模型启动失败时带兜底文案的error事件", func() {
			r, _ := newTestRouter(&fakeChatModel{err: context.DeadlineExceeded})

			rec := doPost(r, "/api/v1/chat/stream", `{"message":"hi"}`)
			out := rec.Body.String()

			So(out, ShouldContainSubstring, "event: error\n")
			So(out, ShouldContainSubstring, "抱歉，AI助手暂时无法响应。请稍后再试。")
		})

		Convey("模型一个字没给时用默认回复收尾", func() {
			r, _ := newTestRouter(&fakeChatModel{chunks: nil})

			rec := doPost(r, "/api/v1/chat/stream", `{"message":"hi"}`)
			out := rec.Body.String()

			So(out, ShouldContainSubstring, "event: complete\n")
			So(out, ShouldContainSubstring, "我收到你的消息了！让我想想怎么用英语回答你...")
		})

		Convey("对话落入会话历史", func() {
			r, store := newTestRouter(&fakeChatModel{chunks: []string{"Nice!"}})
			sess := store.Create("user_1")

			doPost(r, "/api/v1/chat/stream", `{"message":"hi","session_id":"`+sess.ID+`"}`)

			got, ok := store.Get(sess.ID)
			So(ok, ShouldBeTrue)
			So(got.History, ShouldHaveLength, 2)
			So(got.History[1].Content, ShouldEqual, "Nice!")
		})
	})
}

func TestChatDirect(t *testing.T) {
	Convey("直接对话接口", t, func() {
		Convey("返回完整回复", func() {
			r, _ := newTestRouter(&fakeChatModel{chunks: []string{"Good ", "job!"}})

			rec := doPost(r, "/api/v1/chat/direct", `{"message":"done"}`)
			out := rec.Body.String()

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(out, ShouldContainSubstring, `"success":true`)
			So(out, ShouldContainSubstring, `"response":"Good job!"`)
			So(out, ShouldContainSubstring, `"session_id"`)
		})

		Convey("空消息返回失败", func() {
			r, _ := newTestRouter(&fakeChatModel{})

			rec := doPost(r, "/api/v1/chat/direct", `{"message":""}`)

			So(rec.Body.String(), ShouldContainSubstring, `"success":false`)
			So(rec.Body.String(), ShouldContainSubstring, "请输入消息")
		})

		Convey("模型失败返回错误信息与会话ID", func() {
			r, _ := newTestRouter(&fakeChatModel{err: context.DeadlineExceeded})

			rec := doPost(r, "/api/v1/chat/direct", `{"message":"hi"}`)

			So(rec.Body.String(), ShouldContainSubstring, `"success":false`)
			So(rec.Body.String(), ShouldContainSubstring, "AI处理错误")
		})
	})
}
