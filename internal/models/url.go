package models

// URLRecord 输入文件中的一行URL
// 读取后不可变
type URLRecord struct {
	Raw       string // 原始文本
	Domain    string // 可注册域名(eTLD+1)
	HasDomain bool   // 是否成功提取域名
}

// DomainBucket 同一可注册域名下的URL集合
// Records 保持首次出现的插入顺序, 每个分块重新构建
type DomainBucket struct {
	Domain  string
	Records []URLRecord
}

// IsSolo 是否为单成员桶
func (b *DomainBucket) IsSolo() bool {
	return len(b.Records) == 1
}

// Len 桶内URL数量
func (b *DomainBucket) Len() int {
	return len(b.Records)
}

// ScheduledURL 带优先级分数的URL
// 分块内按Score升序排列得到最终顺序
type ScheduledURL struct {
	URL   string
	Score float64
}
