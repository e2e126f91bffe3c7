package providers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// 注册表错误
var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrProviderExists   = errors.New("provider already registered")
)

// Registry 按名称索引已创建的提供商，可并发使用
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry 创建新的注册表
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register 注册提供商，名称为空、提供商为 nil 或名称已存在时返回错误
func (r *Registry) Register(name string, provider Provider) error {
	name = strings.TrimSpace(name)
	if name == "" || provider == nil {
		return fmt.Errorf("invalid provider registration %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("%w: %s", ErrProviderExists, name)
	}
	r.providers[name] = provider
	return nil
}

// Get 获取提供商
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[strings.TrimSpace(name)]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return provider, nil
}

// List 按名称升序列出所有提供商
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
