package streaming

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSanitizer(t *testing.T) {
	Convey("代码围栏过滤", t, func() {
		Convey("完整围栏被剥掉只留内容", func() {
			s := &Sanitizer{}
			So(s.Clean("```json\n{\"a\":1}\n```"), ShouldEqual, `{"a":1}`)
		})

		Convey("没有围栏的文本原样返回", func() {
			s := &Sanitizer{}
			So(s.Clean("Hello, world!"), ShouldEqual, "Hello, world!")
			So(s.Clean("多行\n普通\n文本"), ShouldEqual, "多行\n普通\n文本")
		})

		Convey("无标记的 json 围栏同样识别", func() {
			s := &Sanitizer{}
			So(s.Clean("```\n{\"a\":1}\n```"), ShouldEqual, `{"a":1}`)
		})

		Convey("围栏状态跨片段保持", func() {
			s := &Sanitizer{}
			So(s.Clean("```json\n{\"a\":"), ShouldEqual, `{"a":`)
			So(s.Clean("1}\n```"), ShouldEqual, "1}")
		})

		Convey("只有围栏开标记的片段被过滤为空", func() {
			s := &Sanitizer{}
			So(s.Clean("```json\n"), ShouldBeEmpty)
			// 后续内容片段正常保留
			So(s.Clean("{\"a\":1}"), ShouldEqual, `{"a":1}`)
		})

		Convey("纯围栏标记的片段滤空后走提取回退", func() {
			s := &Sanitizer{}
			So(s.Clean("```json\n```"), ShouldBeEmpty)
			So(s.inFence, ShouldBeFalse)
		})

		Convey("跨片段闭合围栏后继续正常过滤", func() {
			s := &Sanitizer{inFence: true}
			So(s.Clean("braced\n```\nafter"), ShouldEqual, "braced\nafter")
			So(s.inFence, ShouldBeFalse)
		})

		Convey("空白片段不触发提取回退", func() {
			s := &Sanitizer{}
			So(s.Clean("\n\n"), ShouldEqual, "\n\n")
			So(s.Clean(""), ShouldBeEmpty)
		})
	})
}
