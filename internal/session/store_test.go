package session

import (
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"funglish/internal/config"
	"funglish/internal/model"
)

func newTestStore(ttl time.Duration, maxHistory int) *Store {
	return NewStore(&config.SessionConfig{TTL: ttl, MaxHistory: maxHistory})
}

func TestStoreCreate(t *testing.T) {
	Convey("创建会话", t, func() {
		s := newTestStore(time.Hour, 50)

		Convey("分配独立的会话ID", func() {
			a := s.Create("user_1")
			b := s.Create("user_1")

			So(a.ID, ShouldNotBeEmpty)
			So(a.ID, ShouldNotEqual, b.ID)
			So(a.UserID, ShouldEqual, "user_1")
			So(a.Level, ShouldEqual, "beginner")
		})

		Convey("用户ID为空时自动分配", func() {
			sess := s.Create("")

			So(strings.HasPrefix(sess.UserID, "user_"), ShouldBeTrue)
		})
	})
}

func TestStoreGetOrCreate(t *testing.T) {
	Convey("按ID取会话", t, func() {
		s := newTestStore(time.Hour, 50)
		existing := s.Create("user_1")

		Convey("已存在的ID返回原会话", func() {
			got := s.GetOrCreate(existing.ID, "user_1")

			So(got.ID, ShouldEqual, existing.ID)
			So(s.Len(), ShouldEqual, 1)
		})

		Convey("local_ 前缀的本地ID创建新会话", func() {
			got := s.GetOrCreate("local_1712000000_abcd1234", "user_1")

			So(got.ID, ShouldNotEqual, "local_1712000000_abcd1234")
			So(s.Len(), ShouldEqual, 2)
		})

		Convey("空ID创建新会话", func() {
			got := s.GetOrCreate("", "")

			So(got.ID, ShouldNotBeEmpty)
			So(s.Len(), ShouldEqual, 2)
		})

		Convey("不存在的ID创建新会话", func() {
			got := s.GetOrCreate("deadbeef-0000-0000-0000-000000000000", "user_2")

			So(got.ID, ShouldNotEqual, "deadbeef-0000-0000-0000-000000000000")
			So(got.UserID, ShouldEqual, "user_2")
		})
	})
}

func TestStoreExpiry(t *testing.T) {
	Convey("会话过期", t, func() {
		s := newTestStore(time.Hour, 50)

		current := time.Unix(1700000000, 0)
		s.now = func() time.Time { return current }

		sess := s.Create("user_1")

		Convey("TTL内可以取到", func() {
			current = current.Add(59 * time.Minute)

			_, ok := s.Get(sess.ID)
			So(ok, ShouldBeTrue)
		})

		Convey("超过TTL后按不存在处理", func() {
			current = current.Add(61 * time.Minute)

			_, ok := s.Get(sess.ID)
			So(ok, ShouldBeFalse)
			So(s.Len(), ShouldEqual, 0)
		})

		Convey("追加对话会刷新活跃时间", func() {
			current = current.Add(50 * time.Minute)
			s.AppendTurn(sess.ID, "hello", "Hi there!")

			current = current.Add(50 * time.Minute)
			_, ok := s.Get(sess.ID)
			So(ok, ShouldBeTrue)
		})
	})
}

func TestStoreHistory(t *testing.T) {
	Convey("对话历史", t, func() {
		s := newTestStore(time.Hour, 4)
		sess := s.Create("user_1")

		Convey("按轮次追加用户与助手消息", func() {
			s.AppendTurn(sess.ID, "How are you?", "I'm great! How about you? 你today过得怎么样？")

			got, ok := s.Get(sess.ID)
			So(ok, ShouldBeTrue)
			So(got.History, ShouldHaveLength, 2)
			So(got.History[0].Role, ShouldEqual, model.RoleUser)
			So(got.History[1].Role, ShouldEqual, model.RoleAssistant)
		})

		Convey("超过上限时丢弃最早的消息", func() {
			s.AppendTurn(sess.ID, "one", "reply one")
			s.AppendTurn(sess.ID, "two", "reply two")
			s.AppendTurn(sess.ID, "three", "reply three")

			got, _ := s.Get(sess.ID)
			So(got.History, ShouldHaveLength, 4)
			So(got.History[0].Content, ShouldEqual, "two")
		})

		Convey("返回的历史是副本，修改不影响存储", func() {
			s.AppendTurn(sess.ID, "one", "reply one")

			got, _ := s.Get(sess.ID)
			got.History[0].Content = "mutated"

			again, _ := s.Get(sess.ID)
			So(again.History[0].Content, ShouldEqual, "one")
		})

		Convey("不存在的会话追加是空操作", func() {
			s.AppendTurn("missing", "one", "reply")
			So(s.Len(), ShouldEqual, 1)
		})
	})
}

func TestStoreSetLevel(t *testing.T) {
	Convey("更新学生水平", t, func() {
		s := newTestStore(time.Hour, 50)
		sess := s.Create("user_1")

		s.SetLevel(sess.ID, "intermediate")

		got, _ := s.Get(sess.ID)
		So(got.Level, ShouldEqual, "intermediate")
	})
}
