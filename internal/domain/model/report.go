package model

import (
	"time"

	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
)

// ReportDoc 持久化的漏洞通报记录,字段名与下游消费方约定一致,不要改动 json tag
type ReportDoc struct {
	ID           string     `json:"-"`
	Title        string     `json:"Title"`
	Subtitle     string     `json:"Subtitle"`
	CrawlingDate time.Time  `json:"CrawlingDate"`
	ReleaseDate  *time.Time `json:"ReleaseDate"`
	// ViewCount 由下游维护,爬虫只在创建时写入 0
	ViewCount   int    `json:"viewCount"`
	MainContent string `json:"MainContent"`
	SubContent  string `json:"SubContent"`
}

func (d *ReportDoc) GetID() string {
	return d.ID
}

func (d *ReportDoc) SetID(id string) {
	d.ID = id
}

// GetTypeMapping Title 使用 keyword 以支持精确匹配去重
func (d *ReportDoc) GetTypeMapping() *types.TypeMapping {
	return &types.TypeMapping{
		Properties: map[string]types.Property{
			"Title":        types.NewKeywordProperty(),
			"Subtitle":     types.NewTextProperty(),
			"CrawlingDate": types.NewDateProperty(),
			"ReleaseDate":  types.NewDateProperty(),
			"viewCount":    types.NewIntegerNumberProperty(),
			"MainContent":  types.NewTextProperty(),
			"SubContent":   types.NewTextProperty(),
		},
	}
}
