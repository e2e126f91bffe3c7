package openai

import (
	"regexp"
	"strings"
)

// reasoningPatterns 推理模型可能夹带在回复中的思考过程
var reasoningPatterns = func() []*regexp.Regexp {
	pairs := [][2]string{
		{"<think>", "</think>"},
		{"<thinking>", "</thinking>"},
		{"<thought>", "</thought>"},
		{"<reasoning>", "</reasoning>"},
		{"[THINKING]", "[/THINKING]"},
		{"[REASONING]", "[/REASONING]"},
	}
	out := make([]*regexp.Regexp, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, regexp.MustCompile(regexp.QuoteMeta(p[0])+`(?s:.*?)`+regexp.QuoteMeta(p[1])))
	}
	return out
}()

// fencePattern 匹配 ```json ... ``` 包裹的内容
var fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n(.*?)\n?```$")

// cleanReply 去掉思考过程和代码块围栏，只留下 JSON 主体
func cleanReply(content string) string {
	for _, re := range reasoningPatterns {
		content = re.ReplaceAllString(content, "")
	}
	content = strings.TrimSpace(content)
	if m := fencePattern.FindStringSubmatch(content); m != nil {
		content = strings.TrimSpace(m[1])
	}
	return content
}
