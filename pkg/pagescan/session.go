// Package pagescan 扫描 HTML 页面中的可见文本和属性，批量翻译后原地改写，并可在不请求网络的情况下还原原文。
package pagescan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
	"github.com/nerdneilsfield/kiosk-translate/pkg/translation"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/text/language"
)

// ErrTranslationInFlight 上一次翻译尚未完成
var ErrTranslationInFlight = errors.New("translation already in progress")

// BatchTranslator 批量翻译接口，由 HTTP 客户端或进程内网关实现
type BatchTranslator interface {
	Translate(ctx context.Context, req *translation.BatchRequest) (*translation.BatchResponse, error)
}

// Option 会话选项
type Option func(*options)

type options struct {
	baseLanguage  string
	source        string
	mimeType      string
	hiddenClasses []string
	logger        *zap.Logger
}

// WithBaseLanguage 设置页面原始语言，默认 en
func WithBaseLanguage(lang string) Option {
	return func(o *options) { o.baseLanguage = strings.TrimSpace(lang) }
}

// WithSource 设置请求中的源语言
func WithSource(lang string) Option {
	return func(o *options) { o.source = strings.TrimSpace(lang) }
}

// WithMimeType 设置请求中的 MIME 类型
func WithMimeType(mimeType string) Option {
	return func(o *options) { o.mimeType = strings.TrimSpace(mimeType) }
}

// WithHiddenClasses 设置视为隐藏的类名，替换默认的 "hidden"
func WithHiddenClasses(classes ...string) Option {
	return func(o *options) { o.hiddenClasses = classes }
}

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Session 单个页面的翻译会话
//
// 原文快照在第一次 Collect 或 Translate 时采集，之后保持不变，直到 Reset。
type Session struct {
	mu       sync.Mutex
	doc      *goquery.Document
	client   BatchTranslator
	opts     options
	snapshot *Snapshot
	lang     atomic.Value // 最近一次写入文档的语言，无需持有 mu 即可读取
}

// NewSession 创建翻译会话
func NewSession(doc *goquery.Document, client BatchTranslator, opts ...Option) *Session {
	o := options{
		baseLanguage:  "en",
		hiddenClasses: []string{DefaultHiddenClass},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.baseLanguage == "" {
		o.baseLanguage = "en"
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	s := &Session{doc: doc, client: client, opts: o}
	lang, ok := doc.Find("html").First().Attr("lang")
	if lang = strings.TrimSpace(lang); !ok || lang == "" {
		lang = o.baseLanguage
	}
	s.lang.Store(lang)
	return s
}

// NewSessionFromReader 解析 HTML 并创建翻译会话
func NewSessionFromReader(r io.Reader, client BatchTranslator, opts ...Option) (*Session, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return NewSession(doc, client, opts...), nil
}

// Document 返回会话操作的文档
func (s *Session) Document() *goquery.Document {
	return s.doc
}

// BaseLanguage 页面原始语言
func (s *Session) BaseLanguage() string {
	return s.opts.baseLanguage
}

// Collect 采集原文快照，已采集时不做任何事
func (s *Session) Collect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collectLocked()
}

func (s *Session) collectLocked() {
	if s.snapshot != nil {
		return
	}
	root := s.doc.Get(0)
	snap := collect(findBody(root), s.opts.hiddenClasses)
	s.snapshot = &snap
	s.opts.logger.Debug("collected page snapshot",
		zap.Int("texts", len(snap.Texts)),
		zap.Int("attrs", len(snap.Attrs)))
}

// Snapshot 返回原文快照的副本，未采集时返回空快照
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return Snapshot{}
	}
	return s.snapshot.clone()
}

// Reset 丢弃快照，下一次翻译从当前文档重新采集
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
}

// Language 返回文档当前声明的语言，未声明时返回原始语言
//
// 翻译进行中也可调用，返回上一次完成时的语言。
func (s *Session) Language() string {
	return s.lang.Load().(string)
}

// Render 输出当前文档的 HTML
func (s *Session) Render(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return html.Render(w, s.doc.Get(0))
}

// Translate 把页面翻译为目标语言
//
// 目标语言等于原始语言时直接还原原文，不请求网络。请求失败或响应不合法时文档保持不变。
// 上一次调用未结束时立即返回 ErrTranslationInFlight。
func (s *Session) Translate(ctx context.Context, target string) error {
	if !s.mu.TryLock() {
		return ErrTranslationInFlight
	}
	defer s.mu.Unlock()

	target = strings.TrimSpace(target)
	if target == "" {
		return translation.ErrInvalidRequest
	}

	s.collectLocked()
	snap := s.snapshot

	if SameLanguage(target, s.opts.baseLanguage) {
		s.restore(snap)
		s.setLanguage(s.opts.baseLanguage)
		s.opts.logger.Debug("restored original page language", zap.String("lang", s.opts.baseLanguage))
		return nil
	}

	d := dedupe(*snap)
	if len(d.unique) == 0 {
		return nil
	}
	if s.client == nil {
		return errors.New("pagescan: no translator configured")
	}

	resp, err := s.client.Translate(ctx, &translation.BatchRequest{
		Texts:    d.unique,
		Target:   target,
		Source:   s.opts.source,
		MimeType: s.opts.mimeType,
	})
	if err == nil && (resp == nil || resp.Results == nil) {
		err = translation.ErrMalformedResponse
	}
	if err != nil {
		s.opts.logger.Error("page translation failed",
			zap.String("target", target),
			zap.Int("unique", len(d.unique)),
			zap.Error(err))
		return err
	}

	applied, gaps := s.apply(snap, d, resp.Results)
	s.setLanguage(target)
	s.opts.logger.Debug("page translated",
		zap.String("target", target),
		zap.Int("unique", len(d.unique)),
		zap.Int("applied", applied),
		zap.Int("gaps", gaps))
	return nil
}

// apply 按下标回填译文，空结果或越界的位置保持当前值
func (s *Session) apply(snap *Snapshot, d dedupeMap, results []string) (applied, gaps int) {
	pick := func(i int) (string, bool) {
		if i < 0 || i >= len(results) || results[i] == "" {
			return "", false
		}
		return results[i], true
	}

	for i, t := range snap.Texts {
		if v, ok := pick(d.textIdx[i]); ok {
			t.Node.Data = v
			applied++
		} else {
			gaps++
		}
	}
	for i, a := range snap.Attrs {
		if v, ok := pick(d.attrIdx[i]); ok {
			setAttr(a.Element, a.Name, v)
			applied++
		} else {
			gaps++
		}
	}
	return applied, gaps
}

// restore 把所有位置还原为原始值
func (s *Session) restore(snap *Snapshot) {
	for _, t := range snap.Texts {
		t.Node.Data = t.Raw
	}
	for _, a := range snap.Attrs {
		setAttr(a.Element, a.Name, a.Raw)
	}
}

func (s *Session) setLanguage(lang string) {
	s.doc.Find("html").First().SetAttr("lang", lang)
	s.lang.Store(lang)
}

// SameLanguage 比较两个语言代码是否相同
//
// 两者都能解析为 BCP 47 标签时比较规范形式（en_us 与 en-US 相同），否则忽略大小写比较。
func SameLanguage(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	ta, errA := language.Parse(a)
	tb, errB := language.Parse(b)
	if errA == nil && errB == nil {
		return ta.String() == tb.String()
	}
	return strings.EqualFold(a, b)
}
