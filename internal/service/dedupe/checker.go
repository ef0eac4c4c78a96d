package dedupe

import (
	"context"
	"fmt"
	"sync"

	"github.com/LouYuanbo1/advisorycrawl/internal/domain/model"
	"github.com/LouYuanbo1/advisorycrawl/internal/infra/persistence/es"
)

// Store 持久化记录存储:按 Title 精确查询,追加写入
type Store interface {
	CountByTitle(ctx context.Context, title string) (int64, error)
	Insert(ctx context.Context, doc *model.ReportDoc) error
}

// Checker 判断记录是否已经入库。
// 查询与写入之间没有加锁,并发运行的两个爬虫可能同时通过检查并重复写入。
type Checker struct {
	store Store
}

func NewChecker(store Store) *Checker {
	return &Checker{store: store}
}

func (c *Checker) Exists(ctx context.Context, title string) (bool, error) {
	n, err := c.store.CountByTitle(ctx, title)
	if err != nil {
		return false, fmt.Errorf("duplicate check for %q: %w", title, err)
	}
	return n > 0, nil
}

func (c *Checker) Insert(ctx context.Context, doc *model.ReportDoc) error {
	if err := c.store.Insert(ctx, doc); err != nil {
		return fmt.Errorf("insert %q: %w", doc.Title, err)
	}
	return nil
}

type esStore struct {
	client es.TypedEsClient[*model.ReportDoc]
}

// NewEsStore 以 Elasticsearch 索引作为记录存储
func NewEsStore(client es.TypedEsClient[*model.ReportDoc]) Store {
	return &esStore{client: client}
}

func (s *esStore) CountByTitle(ctx context.Context, title string) (int64, error) {
	return s.client.CountByTerm(ctx, "Title", title)
}

func (s *esStore) Insert(ctx context.Context, doc *model.ReportDoc) error {
	return s.client.CreateDoc(ctx, doc)
}

// MemoryStore 内存实现,用于测试和本地试跑
type MemoryStore struct {
	mu   sync.Mutex
	docs []*model.ReportDoc
}

func NewMemoryStore(docs ...*model.ReportDoc) *MemoryStore {
	return &MemoryStore{docs: docs}
}

func (m *MemoryStore) CountByTitle(_ context.Context, title string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, d := range m.docs {
		if d.Title == title {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Insert(_ context.Context, doc *model.ReportDoc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.SetID(fmt.Sprintf("mem-%d", len(m.docs)+1))
	m.docs = append(m.docs, doc)
	return nil
}

func (m *MemoryStore) Docs() []*model.ReportDoc {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.ReportDoc(nil), m.docs...)
}
