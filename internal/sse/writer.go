// Package sse 实现服务端事件流的写出。
//
// 事件帧格式固定为:
//
//	id: <n>
//	event: <type>
//	data: <json>
//
// id 从 1 开始，单个响应内严格递增。
package sse

import (
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
)

// 事件类型
const (
	EventMessage  = "message"
	EventComplete = "complete"
	EventError    = "error"
)

// Writer 向单个响应写 SSE 事件
// 非并发安全，一个响应一个 Writer。
type Writer struct {
	w       io.Writer
	flusher http.Flusher
	nextID  int
}

// NewWriter 创建事件写出器
// w 实现 http.Flusher 时，每个事件写出后立即冲刷。
func NewWriter(w io.Writer) *Writer {
	flusher, _ := w.(http.Flusher)
	return &Writer{w: w, flusher: flusher, nextID: 1}
}

// Send 序列化 data 并写出一个事件帧
func (w *Writer) Send(event string, data any) error {
	payload, err := sonic.Marshal(data)
	if err != nil {
		return fmt.Errorf("sse: marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w.w, "id: %d\nevent: %s\ndata: %s\n\n", w.nextID, event, payload); err != nil {
		return fmt.Errorf("sse: write event: %w", err)
	}
	w.nextID++

	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}

// WriteHeader 设置事件流响应头
func WriteHeader(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}
