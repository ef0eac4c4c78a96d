package crawl

import (
	"errors"
	"fmt"
)

// ErrNavigation 列表页加载或重新获取失败,整个运行终止
var ErrNavigation = errors.New("navigation failed")

var errItemOutOfRange = errors.New("link index out of range")

type StateKind int

const (
	ListPage StateKind = iota
	DetailPage
	Done
	Aborted
)

func (k StateKind) String() string {
	switch k {
	case ListPage:
		return "ListPage"
	case DetailPage:
		return "DetailPage"
	case Done:
		return "Done"
	case Aborted:
		return "Aborted"
	default:
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
}

// CrawlCursor 当前所在的页码和页内序号,只存在于一次运行中
type CrawlCursor struct {
	PageIndex int
	ItemIndex int
}

type State struct {
	Kind   StateKind
	Cursor CrawlCursor
	// LinkCount 进入列表页时获取到的链接数
	LinkCount int
	// Err 只在 Aborted 时设置
	Err error
}

func (s State) Terminal() bool {
	return s.Kind == Done || s.Kind == Aborted
}

func (s State) String() string {
	switch s.Kind {
	case ListPage:
		return fmt.Sprintf("ListPage(%d)", s.Cursor.PageIndex)
	case DetailPage:
		return fmt.Sprintf("DetailPage(%d, %d)", s.Cursor.PageIndex, s.Cursor.ItemIndex)
	default:
		return s.Kind.String()
	}
}

type Outcome int

const (
	OutcomeStored Outcome = iota
	OutcomeDuplicate
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStored:
		return "stored"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ItemResult 单条记录的处理结果。
// Stored/Duplicate 的 Err 非空表示记录已处理但返回列表失败;Skipped 的 Err 为跳过原因。
type ItemResult struct {
	Cursor  CrawlCursor
	Outcome Outcome
	Title   string
	Err     error
}

type Summary struct {
	Pages      int
	Stored     int
	Duplicates int
	Skipped    int
	Items      []ItemResult
	Final      State
}

func (s *Summary) add(r ItemResult) {
	s.Items = append(s.Items, r)
	switch r.Outcome {
	case OutcomeStored:
		s.Stored++
	case OutcomeDuplicate:
		s.Duplicates++
	case OutcomeSkipped:
		s.Skipped++
	}
}
