package models

import (
	"path/filepath"
	"strconv"
)

const (
	// PagesFilename 爬取器为每个集合写出的结果文件名
	PagesFilename = "pages.jsonl"

	// URLListExt URL分块文件扩展名
	URLListExt = ".txt"

	// HarvestMarkerExt 收割完成标记的扩展名, 与数据集分块目录同级
	HarvestMarkerExt = ".harvested"
)

// ChunkLayout 分块相关的磁盘目录布局
type ChunkLayout struct {
	CrawlsDir  string // 爬取输出根目录(挂载到容器 /crawls/)
	URLsDir    string // URL分块文件目录(挂载到容器 /urls/)
	DatasetDir string // 收割后的文档数据集目录
}

// Chunk 一个可断点续爬的工作单元
// Index 从1开始, 同一次运行内严格递增且连续
type Chunk struct {
	Index int      `json:"index"`
	Lines []string `json:"-"`    // 原始输入行(未过滤)
	URLs  []string `json:"urls"` // 交错排序后的URL
}

// Name 分块名称, 同时用作爬取集合名
func (c *Chunk) Name() string {
	return CollectionName(c.Index)
}

// CollectionName 分块序号对应的集合名
func CollectionName(index int) string {
	return strconv.Itoa(index)
}

// URLListPath 分块URL列表文件路径
func (l ChunkLayout) URLListPath(index int) string {
	return filepath.Join(l.URLsDir, CollectionName(index)+URLListExt)
}

// CollectionsDir 所有爬取集合的父目录
func (l ChunkLayout) CollectionsDir() string {
	return filepath.Join(l.CrawlsDir, "collections")
}

// CollectionDir 分块对应的爬取集合目录
func (l ChunkLayout) CollectionDir(index int) string {
	return filepath.Join(l.CollectionsDir(), CollectionName(index))
}

// ResultPath 分块的爬取结果文件
// 格式: crawls/collections/{index}/pages/pages.jsonl
func (l ChunkLayout) ResultPath(index int) string {
	return ResultPathIn(l.CollectionDir(index))
}

// ResultPathIn 给定集合目录下的结果文件路径
func ResultPathIn(collectionDir string) string {
	return filepath.Join(collectionDir, "pages", PagesFilename)
}

// DatasetChunkDir 分块的文档输出目录
func (l ChunkLayout) DatasetChunkDir(index int) string {
	return filepath.Join(l.DatasetDir, CollectionName(index))
}

// DocumentPath 单个文档的输出路径, 文件名为记录在分块内的位置(从0开始)
func (l ChunkLayout) DocumentPath(index, position int) string {
	return filepath.Join(l.DatasetChunkDir(index), strconv.Itoa(position))
}

// HarvestMarkerPath 分块收割完成标记, 例如 dataset/3.harvested
func (l ChunkLayout) HarvestMarkerPath(index int) string {
	return filepath.Join(l.DatasetDir, CollectionName(index)+HarvestMarkerExt)
}
