package es

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/LouYuanbo1/advisorycrawl/internal/config"
	"github.com/LouYuanbo1/advisorycrawl/internal/domain/model"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types/enums/optype"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types/enums/refresh"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type typedEsClient[D model.Document] struct {
	client *elasticsearch.TypedClient
	index  string
	// 特别说明：这个实例仅用于获取配置信息，不用于存储数据
	// Instance used for getting schema/configuration, not for data storage
	schemaDoc D
	log       *logrus.Entry
}

func InitTypedEsClient[D model.Document](cfg *config.Config, log *logrus.Entry) (TypedEsClient[D], error) {
	typedClient, err := elasticsearch.NewTypedClient(elasticsearch.Config{
		Username: cfg.Elasticsearch.Username,
		Password: cfg.Elasticsearch.Password,
		Addresses: []string{
			cfg.Elasticsearch.Address,
		},
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			TLSClientConfig:       &tls.Config{InsecureSkipVerify: cfg.Elasticsearch.InsecureSkipVerify},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Elasticsearch client: %w", err)
	}
	return &typedEsClient[D]{client: typedClient, index: cfg.Elasticsearch.Index, log: log}, nil
}

func (tec *typedEsClient[D]) GetClient() *elasticsearch.TypedClient {
	return tec.client
}

func (tec *typedEsClient[D]) Index() string {
	return tec.index
}

func (tec *typedEsClient[D]) CreateIndexWithMapping(ctx context.Context) error {
	exists, err := tec.client.Indices.Exists(tec.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check index existence in es: %w", err)
	}
	if exists {
		tec.log.Infof("Index %s already exists, skip create", tec.index)
		return nil
	}

	mapping := tec.schemaDoc.GetTypeMapping()
	if mapping == nil {
		_, err = tec.client.Indices.Create(tec.index).Do(ctx)
	} else {
		_, err = tec.client.Indices.Create(tec.index).Mappings(mapping).Do(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to create index in es: %w", err)
	}
	tec.log.Infof("Index %s created", tec.index)
	return nil
}

// CreateDoc 写入后立即刷新,保证紧接着的去重查询能看到这条记录
func (tec *typedEsClient[D]) CreateDoc(ctx context.Context, doc D) error {
	id := uuid.NewString()
	_, err := tec.client.Index(tec.index).
		Id(id).
		OpType(optype.Create).
		Refresh(refresh.True).
		Document(doc).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to create doc in es: %w", err)
	}
	doc.SetID(id)
	return nil
}

func (tec *typedEsClient[D]) CountByTerm(ctx context.Context, field string, value string) (int64, error) {
	resp, err := tec.client.Count().
		Index(tec.index).
		Query(&types.Query{
			Term: map[string]types.TermQuery{
				field: {Value: value},
			},
		}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count docs by %s in es: %w", field, err)
	}
	return resp.Count, nil
}

func (tec *typedEsClient[D]) CountDocs(ctx context.Context) (int64, error) {
	resp, err := tec.client.Count().Index(tec.index).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count docs in es: %w", err)
	}
	return resp.Count, nil
}
