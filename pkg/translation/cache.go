package translation

import (
	"container/list"
	"crypto/md5"
	"fmt"
	"sync"
)

// DefaultCacheCapacity 默认缓存容量
const DefaultCacheCapacity = 2000

// CacheKey 缓存key，(目标语言, 源语言, MIME 类型, 去除首尾空白后的原文)
type CacheKey struct {
	Target   string `json:"target"`
	Source   string `json:"source"`
	MimeType string `json:"mime_type"`
	Text     string `json:"text"`
}

// NewCacheKey 生成缓存key，mimeType 为空时使用默认值
func NewCacheKey(target, source, mimeType, text string) CacheKey {
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	return CacheKey{Target: target, Source: source, MimeType: mimeType, Text: text}
}

// Digest 返回key的MD5摘要，用于持久化存储的主键
func (k CacheKey) Digest() string {
	keyData := fmt.Sprintf("tgt:%s|src:%s|mime:%s|text:%s", k.Target, k.Source, k.MimeType, k.Text)
	hash := md5.Sum([]byte(keyData))
	return fmt.Sprintf("%x", hash)
}

// CacheEntry 缓存条目
type CacheEntry struct {
	Key   CacheKey `json:"key"`
	Value string   `json:"value"`
}

// CacheStats 缓存统计信息
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
	Capacity  int   `json:"capacity"`
}

// Cache 翻译缓存接口
type Cache interface {
	// Get 获取缓存
	Get(key CacheKey) (string, bool)

	// Put 写入缓存，返回因容量超限被淘汰的key
	Put(key CacheKey, value string) []CacheKey

	// Len 当前条目数
	Len() int

	// Stats 获取缓存统计信息
	Stats() CacheStats
}

// FIFOCache 按插入顺序淘汰的有界缓存
//
// 超出容量时淘汰最早插入的条目，读取不会改变条目顺序。
// 覆盖已存在的key只更新值，保留原来的插入位置。
type FIFOCache struct {
	mutex    sync.Mutex
	capacity int
	order    *list.List // 元素值为 *CacheEntry，队首最早
	index    map[CacheKey]*list.Element
	stats    CacheStats
}

var _ Cache = (*FIFOCache)(nil)

// NewFIFOCache 创建FIFO缓存，capacity <= 0 时使用默认容量
func NewFIFOCache(capacity int) *FIFOCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &FIFOCache{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[CacheKey]*list.Element),
	}
}

// Get 获取缓存
func (c *FIFOCache) Get(key CacheKey) (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	elem, ok := c.index[key]
	if !ok {
		c.stats.Misses++
		return "", false
	}
	c.stats.Hits++
	return elem.Value.(*CacheEntry).Value, true
}

// Contains 判断key是否存在，不计入命中统计
func (c *FIFOCache) Contains(key CacheKey) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	_, ok := c.index[key]
	return ok
}

// Put 写入缓存
func (c *FIFOCache) Put(key CacheKey, value string) []CacheKey {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if elem, ok := c.index[key]; ok {
		elem.Value.(*CacheEntry).Value = value
		return nil
	}

	c.index[key] = c.order.PushBack(&CacheEntry{Key: key, Value: value})

	var evicted []CacheKey
	for c.order.Len() > c.capacity {
		front := c.order.Front()
		entry := c.order.Remove(front).(*CacheEntry)
		delete(c.index, entry.Key)
		evicted = append(evicted, entry.Key)
		c.stats.Evictions++
	}
	return evicted
}

// Len 当前条目数
func (c *FIFOCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.order.Len()
}

// Capacity 缓存容量
func (c *FIFOCache) Capacity() int {
	return c.capacity
}

// Entries 按插入顺序返回所有条目的副本
func (c *FIFOCache) Entries() []CacheEntry {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entries := make([]CacheEntry, 0, c.order.Len())
	for e := c.order.Front(); e != nil; e = e.Next() {
		entries = append(entries, *e.Value.(*CacheEntry))
	}
	return entries
}

// Stats 获取缓存统计信息
func (c *FIFOCache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	stats := c.stats
	stats.Size = c.order.Len()
	stats.Capacity = c.capacity
	return stats
}
