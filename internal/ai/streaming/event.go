// Package streaming 把不同厂商的模型输出流归一化为统一的事件序列。
//
// 两类分帧方式（无分帧 JSON 字节流 / SSE 行）重组出的逻辑响应单元，
// 经 State 统一为增量文本事件和完成事件，供模型适配器转成 eino 消息流。
package streaming

// Event 归一化事件
// Done 为 false 时是增量文本事件（Delta 非空）；
// Done 为 true 时是完成事件（一次生成最多一个，且一定是最后一个）
type Event struct {
	Delta  string
	Done   bool
	Reason FinishReason
	Usage  *Usage
}

// Usage 厂商返回的 token 用量
type Usage struct {
	InputTokens int
	TotalTokens int
}
