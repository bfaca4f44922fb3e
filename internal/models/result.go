package models

import (
	"encoding/json"
	"fmt"
)

// PagesHeader pages.jsonl 的首行摘要
// 例: {"format":"json-pages-1.0","id":"pages","title":"All Pages","hasText":true}
type PagesHeader struct {
	Format  string `json:"format"`
	ID      string `json:"id"`
	Title   string `json:"title"`
	HasText bool   `json:"hasText"`
}

// DecodePagesHeader 解析结果文件首行
func DecodePagesHeader(line []byte) (*PagesHeader, error) {
	var header PagesHeader
	if err := json.Unmarshal(line, &header); err != nil {
		return nil, err
	}
	if header.Format == "" {
		return nil, fmt.Errorf("摘要缺少format字段")
	}
	return &header, nil
}

// CrawlRecord 爬取器输出的单条页面记录
type CrawlRecord struct {
	ID        string  `json:"id,omitempty"`
	URL       string  `json:"url"`
	Title     string  `json:"title,omitempty"`
	Text      *string `json:"text,omitempty"` // 提取的文本, 未提取时为nil
	Status    int     `json:"status"`         // HTTP状态码
	LoadState int     `json:"loadState,omitempty"`
}

// HasText 记录是否带有可持久化的文本
func (r *CrawlRecord) HasText() bool {
	return r.Text != nil && *r.Text != ""
}

// DecodeCrawlRecord 解析一行结果记录
func DecodeCrawlRecord(line []byte) (*CrawlRecord, error) {
	var rec CrawlRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, err
	}
	if rec.URL == "" {
		return nil, fmt.Errorf("记录缺少url字段")
	}
	return &rec, nil
}
