package pagescan

import (
	"strings"

	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// 页面上作为"不翻译"标记的属性和类名
const (
	IgnoreAttr  = "data-i18n-ignore"
	IgnoreClass = "no-translate"
)

// DefaultHiddenClass 默认视为隐藏的类名（语言菜单收起时使用）
const DefaultHiddenClass = "hidden"

// TranslatableAttrs 会被翻译的属性
var TranslatableAttrs = []string{"placeholder", "title", "aria-label", "alt"}

// excludedTags 整棵子树都不翻译的标签
var excludedTags = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Code:     true,
	atom.Pre:      true,
	atom.Noscript: true,
	atom.Template: true,
}

// attr 返回属性值
func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// setAttr 修改已存在的属性值，不存在时追加
func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// hasClass 判断元素是否带有指定类名
func hasClass(n *html.Node, class string) bool {
	classes, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(classes) {
		if c == class {
			return true
		}
	}
	return false
}

// excludedElement 判断元素本身是否是不翻译区域
func excludedElement(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if excludedTags[n.DataAtom] {
		return true
	}
	if _, ok := attr(n, IgnoreAttr); ok {
		return true
	}
	if hasClass(n, IgnoreClass) {
		return true
	}
	if v, ok := attr(n, "translate"); ok && strings.EqualFold(strings.TrimSpace(v), "no") {
		return true
	}
	return false
}

// Excluded 判断节点是否位于不翻译区域内（节点自身或任一祖先元素带有不翻译标记）
func Excluded(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if excludedElement(p) {
			return true
		}
	}
	return false
}

// inlineStyle 元素内联样式中与可见性相关的声明
type inlineStyle struct {
	displayNone bool
	visibility  string // 空表示未声明
}

// parseInlineStyle 解析 style 属性，解析失败视为没有声明
func parseInlineStyle(n *html.Node) inlineStyle {
	var st inlineStyle
	style, ok := attr(n, "style")
	style = strings.TrimSpace(style)
	if !ok || style == "" {
		return st
	}
	// 最后一条声明缺少分号时 douceur 读不到它的值
	if !strings.HasSuffix(style, ";") {
		style += ";"
	}
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		return st
	}
	for _, d := range decls {
		value := strings.ToLower(strings.TrimSpace(d.Value))
		switch strings.ToLower(d.Property) {
		case "display":
			st.displayNone = value == "none"
		case "visibility":
			st.visibility = value
		}
	}
	return st
}

// removed 元素是否被移出渲染（display:none、hidden 属性或隐藏类），子树不可恢复
func removed(n *html.Node, st inlineStyle, hiddenClasses []string) bool {
	if st.displayNone {
		return true
	}
	if _, ok := attr(n, "hidden"); ok {
		return true
	}
	for _, c := range hiddenClasses {
		if hasClass(n, c) {
			return true
		}
	}
	return false
}

// hiddenVisibility visibility 取值是否隐藏
func hiddenVisibility(v string) bool {
	return v == "hidden" || v == "collapse"
}

// Visible 判断元素当前是否可见
//
// 元素或任一祖先 display:none、带 hidden 属性或隐藏类时不可见；
// visibility 按最近的内联声明继承，hidden/collapse 不可见。
// hiddenClasses 为空时使用 DefaultHiddenClass。
func Visible(n *html.Node, hiddenClasses ...string) bool {
	if len(hiddenClasses) == 0 {
		hiddenClasses = []string{DefaultHiddenClass}
	}
	visibility := ""
	for p := n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		st := parseInlineStyle(p)
		if removed(p, st, hiddenClasses) {
			return false
		}
		if visibility == "" && st.visibility != "inherit" {
			visibility = st.visibility
		}
	}
	return !hiddenVisibility(visibility)
}
