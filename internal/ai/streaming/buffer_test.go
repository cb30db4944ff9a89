package streaming

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBuffer(t *testing.T) {
	Convey("JSON 分帧缓冲区", t, func() {
		buf := &Buffer{}

		Convey("完整对象一次写入即可提取", func() {
			buf.Write([]byte(`{"output":{"text":"hi"}}`))
			span, ok := buf.Next()
			So(ok, ShouldBeTrue)
			So(string(span), ShouldEqual, `{"output":{"text":"hi"}}`)

			_, ok = buf.Next()
			So(ok, ShouldBeFalse)
			So(buf.Pending(), ShouldEqual, 0)
		})

		Convey("跨分片的对象等到补齐才提取", func() {
			buf.Write([]byte(`{"output":{"te`))
			_, ok := buf.Next()
			So(ok, ShouldBeFalse)

			buf.Write([]byte(`xt":"hello"}}`))
			span, ok := buf.Next()
			So(ok, ShouldBeTrue)
			So(string(span), ShouldEqual, `{"output":{"text":"hello"}}`)
		})

		Convey("一次物理读里的多个对象依次提取", func() {
			buf.Write([]byte(`{"a":1}{"b":2}{"c":`))
			span, ok := buf.Next()
			So(ok, ShouldBeTrue)
			So(string(span), ShouldEqual, `{"a":1}`)

			span, ok = buf.Next()
			So(ok, ShouldBeTrue)
			So(string(span), ShouldEqual, `{"b":2}`)

			_, ok = buf.Next()
			So(ok, ShouldBeFalse)
			So(buf.Pending(), ShouldBeGreaterThan, 0)
		})

		Convey("字符串内的括号和转义引号不干扰深度统计", func() {
			buf.Write([]byte(`{"text":"a } b \" { c"}`))
			span, ok := buf.Next()
			So(ok, ShouldBeTrue)
			So(string(span), ShouldEqual, `{"text":"a } b \" { c"}`)
		})

		Convey("对象前的杂质字节被跳过", func() {
			buf.Write([]byte("\r\n }{\"ok\":true}"))
			span, ok := buf.Next()
			So(ok, ShouldBeTrue)
			So(string(span), ShouldEqual, `{"ok":true}`)
		})

		Convey("嵌套数组对象整体提取", func() {
			buf.Write([]byte(`{"choices":[{"delta":{"content":"x"}}]}`))
			span, ok := buf.Next()
			So(ok, ShouldBeTrue)
			So(string(span), ShouldEqual, `{"choices":[{"delta":{"content":"x"}}]}`)
		})
	})
}
