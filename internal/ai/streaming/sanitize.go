package streaming

import (
	"regexp"
	"strings"
)

var (
	fenceOpenRe  = regexp.MustCompile("^\\s*```(?:json)?\\s*$")
	fenceCloseRe = regexp.MustCompile("^\\s*```\\s*$")
	fenceBlockRe = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")
)

// Sanitizer 去除模型输出中的 Markdown 代码围栏。
//
// 模型把结构化输出包在 ```json 围栏里时，逐行过滤掉围栏标记行，
// 内容行无论在围栏内外都保留。围栏可能跨越多个增量片段，围栏状态
// 在整次生成内保持，不随片段重置。
type Sanitizer struct {
	inFence bool
}

// Clean 过滤一个增量片段
// 过滤结果整体为空白时，退化为直接提取首个完整围栏之间的内容；
// 片段里没有围栏标记时原样返回。
func (s *Sanitizer) Clean(text string) string {
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	dropped := 0

	for _, line := range lines {
		switch {
		case !s.inFence && fenceOpenRe.MatchString(line):
			s.inFence = true
			dropped++
		case s.inFence && fenceCloseRe.MatchString(line):
			s.inFence = false
			dropped++
		default:
			kept = append(kept, line)
		}
	}

	result := strings.Join(kept, "\n")
	if strings.TrimSpace(result) != "" {
		return result
	}
	if dropped == 0 {
		// 片段本来就是空白，没有围栏被过滤
		return text
	}

	// 整个片段被过滤空了：尝试直接提取围栏之间的内容
	if m := fenceBlockRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return result
}
