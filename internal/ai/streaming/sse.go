package streaming

import "bytes"

// sse 数据行前缀与结束标记
var (
	dataPrefix = []byte("data: ")
	doneMarker = []byte("[DONE]")
)

// LineDecoder 按 SSE 行分帧提取 data 负载。
//
// 按 '\n' 切分缓冲区；`data: ` 前缀行的剩余部分作为一个逻辑响应单元
// 返回，`data: [DONE]` 表示流提前结束，其余行（注释、事件名、空行）
// 直接丢弃。未收满的尾行留在缓冲区。
type LineDecoder struct {
	buf  []byte
	done bool
}

// Write 追加一个网络分片
func (d *LineDecoder) Write(p []byte) {
	d.buf = append(d.buf, p...)
}

// Next 提取下一条 data 负载
// done 为 true 表示收到 [DONE] 结束标记；ok 为 false 表示暂无完整行。
func (d *LineDecoder) Next() (payload []byte, done bool, ok bool) {
	if d.done {
		return nil, true, true
	}

	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			return nil, false, false
		}

		line := bytes.TrimSpace(d.buf[:idx])
		d.buf = d.buf[idx+1:]

		rest, found := bytes.CutPrefix(line, dataPrefix)
		if !found {
			continue
		}
		if bytes.Equal(rest, doneMarker) {
			d.done = true
			return nil, true, true
		}
		return rest, false, true
	}
}

// Done 报告是否已收到 [DONE] 标记
func (d *LineDecoder) Done() bool {
	return d.done
}
