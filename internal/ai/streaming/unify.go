package streaming

import (
	"strings"

	"github.com/tidwall/gjson"
)

// State 一次生成的归一化状态。
//
// 持有本次生成见过的最长累计文本：厂商发累计全文时用前缀差计算增量，
// 发新增量时直接追加。随每次生成新建，生成结束即丢弃，不跨生成共享。
type State struct {
	acc       string
	completed bool
	sanitizer *Sanitizer
}

// NewState 创建一次生成的归一化状态
// withSanitizer 为 true 时对每个增量片段做代码围栏过滤（JSON 分帧路径使用）。
func NewState(withSanitizer bool) *State {
	s := &State{}
	if withSanitizer {
		s.sanitizer = &Sanitizer{}
	}
	return s
}

// Apply 处理一个逻辑响应单元，返回产生的归一化事件（0~2 个）。
//
// 响应形态探测：优先 output 对象（output.text / output.finish_reason），
// 其次 choices 数组首元素（message.content 或 delta.content +
// choice.finish_reason）。两者都没有的单元静默消费，不产生事件。
func (s *State) Apply(raw []byte) []Event {
	unit := gjson.ParseBytes(raw)

	var current, vendorReason string
	if output := unit.Get("output"); output.Exists() {
		current = output.Get("text").String()
		vendorReason = output.Get("finish_reason").String()
	} else if choice := unit.Get("choices.0"); choice.Exists() {
		if msg := choice.Get("message"); msg.Exists() {
			current = msg.Get("content").String()
		} else if delta := choice.Get("delta"); delta.Exists() {
			current = delta.Get("content").String()
		}
		vendorReason = choice.Get("finish_reason").String()
	}

	var events []Event

	if current != "" {
		var fragment string
		if strings.HasPrefix(current, s.acc) {
			// 累计全文：增量是超出已见前缀的后缀
			fragment = current[len(s.acc):]
			s.acc = current
		} else {
			// 新增量：整段追加
			fragment = current
			s.acc += current
		}
		if fragment != "" && s.sanitizer != nil {
			fragment = s.sanitizer.Clean(fragment)
		}
		if fragment != "" {
			events = append(events, Event{Delta: fragment})
		}
	}

	if reason := MapFinishReason(vendorReason); reason != FinishNone && !s.completed {
		s.completed = true
		done := Event{Done: true, Reason: reason}
		if usage := unit.Get("usage"); usage.Exists() {
			// Shape A 用 input_tokens，Shape B 用 prompt_tokens
			input := usage.Get("input_tokens")
			if !input.Exists() {
				input = usage.Get("prompt_tokens")
			}
			done.Usage = &Usage{
				InputTokens: int(input.Int()),
				TotalTokens: int(usage.Get("total_tokens").Int()),
			}
		}
		events = append(events, done)
	}

	return events
}

// Completed 报告是否已经产生过完成事件
func (s *State) Completed() bool {
	return s.completed
}

// Accumulated 返回本次生成累计的原始文本（未经围栏过滤）
func (s *State) Accumulated() string {
	return s.acc
}
