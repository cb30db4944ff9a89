package streaming

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMapFinishReason(t *testing.T) {
	Convey("完成原因映射", t, func() {
		Convey("已知词表确定性映射", func() {
			So(MapFinishReason("stop"), ShouldEqual, FinishStop)
			So(MapFinishReason("length"), ShouldEqual, FinishMaxTokens)
			So(MapFinishReason("max_tokens"), ShouldEqual, FinishMaxTokens)
			So(MapFinishReason("content_filter"), ShouldEqual, FinishSafety)
			So(MapFinishReason("function_call"), ShouldEqual, FinishStop)
			So(MapFinishReason("tool_calls"), ShouldEqual, FinishStop)
		})

		Convey("大小写不敏感", func() {
			So(MapFinishReason("STOP"), ShouldEqual, MapFinishReason("stop"))
			So(MapFinishReason("Length"), ShouldEqual, FinishMaxTokens)
			So(MapFinishReason("Content_Filter"), ShouldEqual, FinishSafety)
		})

		Convey("未知字符串回落到 stop，永不失败", func() {
			So(MapFinishReason("eos_token"), ShouldEqual, FinishStop)
			So(MapFinishReason("whatever"), ShouldEqual, FinishStop)
		})

		Convey("空串表示单元不是完成标记", func() {
			So(MapFinishReason(""), ShouldEqual, FinishNone)
		})

		Convey("字符串 null 同样不是完成标记", func() {
			So(MapFinishReason("null"), ShouldEqual, FinishNone)
			So(MapFinishReason("NULL"), ShouldEqual, FinishNone)
		})
	})
}
