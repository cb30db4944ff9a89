package streaming

// Buffer 从无分帧的字节流中重组完整 JSON 单元。
//
// 网络分片和逻辑消息边界没有对齐保证：Write 只追加字节，Next 用一趟
// 括号深度扫描提取下一个深度归零的完整 JSON 片段（对象或数组），
// 未完成的尾部留在缓冲区等待下一次 Write。一次物理读里到达的多个
// JSON 单元会被依次提取。
type Buffer struct {
	buf []byte
}

// Write 追加一个网络分片
func (b *Buffer) Write(p []byte) {
	b.buf = append(b.buf, p...)
}

// Next 提取下一个完整 JSON 片段
// 没有完整片段时返回 (nil, false)，已消费的字节不会重复提取。
// 返回的片段是结构上配平的；是否为合法 JSON 由调用方解析判定。
func (b *Buffer) Next() ([]byte, bool) {
	start := -1
	depth := 0
	inStr := false
	escaped := false

	for i := 0; i < len(b.buf); i++ {
		c := b.buf[i]

		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}

		switch c {
		case '"':
			if start >= 0 {
				inStr = true
			}
		case '{', '[':
			if start < 0 {
				start = i
			}
			depth++
		case '}', ']':
			if start < 0 {
				continue // 片段开始前的杂质字节
			}
			depth--
			if depth == 0 {
				span := make([]byte, i+1-start)
				copy(span, b.buf[start:i+1])
				b.buf = b.buf[i+1:]
				return span, true
			}
		}
	}

	return nil, false
}

// Pending 返回缓冲区内尚未消费的字节数
func (b *Buffer) Pending() int {
	return len(b.buf)
}
