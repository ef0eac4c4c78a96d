package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/LouYuanbo1/advisorycrawl/internal/config"
	"github.com/LouYuanbo1/advisorycrawl/internal/domain/entity"
	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

const (
	NoTitle    = "no title"
	NoSubtitle = "no subtitle"

	releaseDateLayout = "2006-01-02 15:04:05"
)

var releaseDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`)

// Extractor 从详情页 HTML 中抽取标题、副标题、正文和表格内容
type Extractor struct {
	sel config.Selectors
	loc *time.Location
	log *logrus.Entry
}

func NewExtractor(sel config.Selectors, loc *time.Location, log *logrus.Entry) *Extractor {
	if loc == nil {
		loc = time.UTC
	}
	return &Extractor{sel: sel, loc: loc, log: log}
}

// Extract 缺失的元素使用占位文本,不视为错误
func (e *Extractor) Extract(markup string) (*entity.ExtractedRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}

	rec := &entity.ExtractedRecord{
		MainTitle: e.firstText(doc, e.sel.DetailTitle, NoTitle),
		SubTitle:  e.firstText(doc, e.sel.DetailSubtitle, NoSubtitle),
	}
	rec.MainContent, rec.SubContent = e.splitContent(doc)
	rec.ReleaseDate = ParseReleaseDate(rec.SubTitle, e.loc)
	return rec, nil
}

func (e *Extractor) firstText(doc *goquery.Document, selector, placeholder string) string {
	s := doc.Find(selector).First()
	if s.Length() == 0 {
		e.log.WithField("selector", selector).Warn("详情页缺少元素,使用占位文本")
		return placeholder
	}
	return strings.TrimSpace(s.Text())
}

// splitContent 正文容器的直接子元素按文档顺序分类,带表格标记 class 的归入子内容
func (e *Extractor) splitContent(doc *goquery.Document) (string, string) {
	var main, sub []string
	container := doc.Find(e.sel.DetailContent)
	if container.Length() == 0 {
		e.log.WithField("selector", e.sel.DetailContent).Warn("详情页缺少正文容器")
	}
	container.Children().Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if s.HasClass(e.sel.TableClass) {
			sub = append(sub, text)
		} else {
			main = append(main, text)
		}
	})
	return strings.Join(main, "\n"), strings.Join(sub, "\n")
}

// ParseReleaseDate 取副标题中第一个 YYYY-MM-DD HH:MM:SS,没有则返回 nil
func ParseReleaseDate(subtitle string, loc *time.Location) *time.Time {
	m := releaseDatePattern.FindString(subtitle)
	if m == "" {
		return nil
	}
	t, err := time.ParseInLocation(releaseDateLayout, m, loc)
	if err != nil {
		// 形如 2024-13-45 的值能匹配正则但不是合法日期
		return nil
	}
	return &t
}
