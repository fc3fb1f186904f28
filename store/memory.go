package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/rushteam/sommelier/core"
)

// MemoryHistory 是内存实现的 HistoryStore，用于测试/开发，进程重启后数据丢失。
type MemoryHistory struct {
	mu   sync.RWMutex
	data map[string][]core.HistoryRecord
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{data: make(map[string][]core.HistoryRecord)}
}

func (m *MemoryHistory) Name() string { return "memory" }

// History 返回副本；用户不存在时返回空切片。
func (m *MemoryHistory) History(_ context.Context, userID string) ([]core.HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]core.HistoryRecord(nil), m.data[userID]...), nil
}

func (m *MemoryHistory) Append(_ context.Context, userID string, rec core.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID] = append(m.data[userID], rec)
	return nil
}

func (m *MemoryHistory) Close() error { return nil }

// MemoryCatalog 是内存中的只读目录，下标即 true_index。
type MemoryCatalog struct {
	wines []core.Wine
}

// NewMemoryCatalog 创建目录；Wine.Index 会被重写为其在切片中的位置。
func NewMemoryCatalog(wines []core.Wine) *MemoryCatalog {
	ws := make([]core.Wine, len(wines))
	copy(ws, wines)
	for i := range ws {
		ws[i].Index = i
	}
	return &MemoryCatalog{wines: ws}
}

func (c *MemoryCatalog) Item(index int) (*core.Wine, error) {
	if index < 0 || index >= len(c.wines) {
		return nil, fmt.Errorf("%w: catalog index %d (size %d)", core.ErrNotFound, index, len(c.wines))
	}
	return &c.wines[index], nil
}

func (c *MemoryCatalog) Size() int { return len(c.wines) }

var (
	_ core.HistoryStore = (*MemoryHistory)(nil)
	_ core.CatalogStore = (*MemoryCatalog)(nil)
)
