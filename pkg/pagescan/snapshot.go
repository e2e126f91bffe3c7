package pagescan

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TextUnit 一个可翻译的文本节点
type TextUnit struct {
	Node *html.Node // 文本节点
	Raw  string     // 原始内容（含首尾空白），还原时写回
	Key  string     // 去除首尾空白后的原文，去重用
}

// AttrUnit 一个可翻译的元素属性
type AttrUnit struct {
	Element *html.Node // 所属元素
	Name    string     // 属性名
	Raw     string     // 原始属性值
	Key     string     // 去除首尾空白后的原文
}

// Snapshot 页面原文快照：先按文档顺序排列的文本，再按文档顺序排列的属性
type Snapshot struct {
	Texts []TextUnit
	Attrs []AttrUnit
}

// Len 快照中的位置总数
func (s Snapshot) Len() int {
	return len(s.Texts) + len(s.Attrs)
}

// Keys 按规范顺序返回所有位置的去重键（可能重复）
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, s.Len())
	for _, t := range s.Texts {
		keys = append(keys, t.Key)
	}
	for _, a := range s.Attrs {
		keys = append(keys, a.Key)
	}
	return keys
}

// clone 复制快照切片，节点引用保持不变
func (s Snapshot) clone() Snapshot {
	return Snapshot{
		Texts: append([]TextUnit(nil), s.Texts...),
		Attrs: append([]AttrUnit(nil), s.Attrs...),
	}
}

// walkState 深度优先遍历时从祖先继承的可见性
type walkState struct {
	visibility string // 最近的 visibility 声明
}

// enter 进入元素 n，返回子树继承的状态；n 不翻译或被移出渲染时 ok 为 false
func (w walkState) enter(n *html.Node, hiddenClasses []string) (next walkState, ok bool) {
	if excludedElement(n) {
		return w, false
	}
	st := parseInlineStyle(n)
	if removed(n, st, hiddenClasses) {
		return w, false
	}
	if st.visibility != "" && st.visibility != "inherit" {
		w.visibility = st.visibility
	}
	return w, true
}

// hidden 当前继承的 visibility 是否隐藏
func (w walkState) hidden() bool {
	return hiddenVisibility(w.visibility)
}

// collect 从 root 开始深度优先收集可翻译的文本和属性
//
// 收集结果与 Excluded、Visible 一致：文本节点看父元素，属性看所属元素。
func collect(root *html.Node, hiddenClasses []string) Snapshot {
	var snap Snapshot
	if root == nil {
		return snap
	}

	// 从最外层祖先向下得到 root 的起始状态，root 本身在 walk 中处理
	var ancestors []*html.Node
	for p := root.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			ancestors = append(ancestors, p)
		}
	}
	var state walkState
	for i := len(ancestors) - 1; i >= 0; i-- {
		var ok bool
		if state, ok = state.enter(ancestors[i], hiddenClasses); !ok {
			return snap
		}
	}

	var walk func(n *html.Node, state walkState)
	walk = func(n *html.Node, state walkState) {
		switch n.Type {
		case html.TextNode:
			// 父元素已在进入时检查
			if n.Parent == nil || n.Parent.Type != html.ElementNode || state.hidden() {
				return
			}
			if key := strings.TrimSpace(n.Data); key != "" {
				snap.Texts = append(snap.Texts, TextUnit{Node: n, Raw: n.Data, Key: key})
			}
			return
		case html.ElementNode:
			var ok bool
			if state, ok = state.enter(n, hiddenClasses); !ok {
				return
			}
			if !state.hidden() {
				for _, name := range TranslatableAttrs {
					if v, ok := attr(n, name); ok {
						if key := strings.TrimSpace(v); key != "" {
							snap.Attrs = append(snap.Attrs, AttrUnit{Element: n, Name: name, Raw: v, Key: key})
						}
					}
				}
			}
		case html.DocumentNode:
		default:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, state)
		}
	}
	walk(root, state)

	return snap
}

// findBody 返回 <body> 元素，找不到时返回 root
func findBody(root *html.Node) *html.Node {
	var body *html.Node
	var find func(n *html.Node)
	find = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(root)
	if body == nil {
		return root
	}
	return body
}
