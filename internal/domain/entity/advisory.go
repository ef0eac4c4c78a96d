package entity

import (
	"time"

	"github.com/LouYuanbo1/advisorycrawl/internal/domain/model"
)

// ExtractedRecord 从详情页抽取出的原文字段,抽取后不再修改
type ExtractedRecord struct {
	MainTitle   string
	SubTitle    string
	MainContent string
	SubContent  string
	// ReleaseDate 从原文副标题中解析,没有匹配时为 nil
	ReleaseDate *time.Time
}

// TranslatedRecord 翻译后的字段
type TranslatedRecord struct {
	Title       string
	Subtitle    string
	MainContent string
	SubContent  string
}

// ToDocument 组装待写入的文档,crawledAt 由调度方在抓取时赋值
func (r *ExtractedRecord) ToDocument(t TranslatedRecord, crawledAt time.Time) *model.ReportDoc {
	return &model.ReportDoc{
		Title:        t.Title,
		Subtitle:     t.Subtitle,
		CrawlingDate: crawledAt,
		ReleaseDate:  r.ReleaseDate,
		ViewCount:    0,
		MainContent:  t.MainContent,
		SubContent:   t.SubContent,
	}
}
