package model

import (
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
)

// Document 可写入 Elasticsearch 的文档
type Document interface {
	*ReportDoc
	GetID() string
	SetID(id string)
	GetTypeMapping() *types.TypeMapping
}
