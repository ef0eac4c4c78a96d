package es

import (
	"context"

	"github.com/LouYuanbo1/advisorycrawl/internal/domain/model"
	"github.com/elastic/go-elasticsearch/v9"
)

type TypedEsClient[D model.Document] interface {
	GetClient() *elasticsearch.TypedClient
	Index() string
	CreateIndexWithMapping(ctx context.Context) error
	// CreateDoc 只追加,生成新的文档ID,已存在同ID文档时失败
	CreateDoc(ctx context.Context, doc D) error
	// CountByTerm 统计 field 精确等于 value 的文档数
	CountByTerm(ctx context.Context, field string, value string) (int64, error)
	CountDocs(ctx context.Context) (int64, error)
}
