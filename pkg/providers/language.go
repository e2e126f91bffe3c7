package providers

import (
	"strings"

	"golang.org/x/text/language"
)

// languageNames 常见语言名称到代码的映射
var languageNames = map[string]string{
	"chinese":             "zh",
	"chinese_simplified":  "zh-CN",
	"chinese_traditional": "zh-TW",
	"english":             "en",
	"spanish":             "es",
	"french":              "fr",
	"german":              "de",
	"japanese":            "ja",
	"korean":              "ko",
	"portuguese":          "pt",
	"russian":             "ru",
	"italian":             "it",
	"vietnamese":          "vi",
}

// NormalizeLanguage 标准化语言代码为 BCP 47 形式（zh_cn -> zh-CN）
//
// 空字符串原样返回；无法解析的代码去掉空白后原样返回。
func NormalizeLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return ""
	}

	if code, ok := languageNames[strings.ToLower(lang)]; ok {
		return code
	}

	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	return tag.String()
}
