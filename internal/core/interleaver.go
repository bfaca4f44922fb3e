package core

import (
	"net"
	"net/url"
	"sort"
	"strings"

	"github.com/RecoveryAshes/TrixHarvest/internal/models"
	"golang.org/x/net/publicsuffix"
)

const (
	// bucketOffset 相邻域名桶之间的基础偏移
	bucketOffset = 0.0001

	// 单成员桶分数区间 [soloFloor, soloFloor+soloSpan]
	soloFloor = 0.01
	soloSpan  = 0.98
)

// DomainFunc 提取URL的可注册域名, 无法提取时返回false
type DomainFunc func(rawURL string) (string, bool)

// RegistrableDomain 默认域名提取: 主机名的 eTLD+1
func RegistrableDomain(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", false
	}
	// IP地址没有公共后缀, 以完整地址作为分桶键
	if net.ParseIP(host) != nil {
		return host, true
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", false
	}
	return domain, true
}

// Schedule 对一个分块的URL按域名交错排序
// 处理流程:
//  1. 过滤空行、以 / 开头的相对路径、无法提取域名的URL
//  2. 按域名分桶(保持首次出现顺序)
//  3. 计算每个URL的分数: 桶序号×0.0001 + 桶内分数
//  4. 按分数稳定排序
//
// 同域名的多个URL被分散到 [0,1] 区间, 排序后彼此远离;
// 单成员桶在 [0.01,0.99] 区间内均匀分布
func Schedule(urls []string, extract DomainFunc) []string {
	if extract == nil {
		extract = RegistrableDomain
	}

	records := make([]models.URLRecord, 0, len(urls))
	for _, raw := range urls {
		rec, ok := parseRecord(raw, extract)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	scored := scoreBuckets(groupByDomain(records))

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score < scored[j].Score
	})

	ordered := make([]string, len(scored))
	for i, s := range scored {
		ordered[i] = s.URL
	}
	return ordered
}

// parseRecord 过滤并解析单行
func parseRecord(raw string, extract DomainFunc) (models.URLRecord, bool) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "/") {
		return models.URLRecord{}, false
	}
	domain, ok := extract(line)
	if !ok || domain == "" {
		return models.URLRecord{Raw: line}, false
	}
	return models.URLRecord{Raw: line, Domain: domain, HasDomain: true}, true
}

// groupByDomain 按域名分桶, 桶顺序为域名首次出现的顺序
func groupByDomain(records []models.URLRecord) []models.DomainBucket {
	index := make(map[string]int)
	buckets := make([]models.DomainBucket, 0)

	for _, rec := range records {
		i, exists := index[rec.Domain]
		if !exists {
			i = len(buckets)
			index[rec.Domain] = i
			buckets = append(buckets, models.DomainBucket{Domain: rec.Domain})
		}
		buckets[i].Records = append(buckets[i].Records, rec)
	}
	return buckets
}

// scoreAcc 计分折叠的累加器
type scoreAcc struct {
	soloSeen int // 已遇到的单成员桶数量
	scored   []models.ScheduledURL
}

// scoreBuckets 为所有URL计算分数
func scoreBuckets(buckets []models.DomainBucket) []models.ScheduledURL {
	soloTotal := 0
	for i := range buckets {
		if buckets[i].IsSolo() {
			soloTotal++
		}
	}

	acc := scoreAcc{scored: make([]models.ScheduledURL, 0, len(buckets))}
	for i := range buckets {
		acc = scoreBucket(acc, i, &buckets[i], soloTotal)
	}
	return acc.scored
}

// scoreBucket 折叠步骤: 对第 i 个桶计分并返回新的累加器
func scoreBucket(acc scoreAcc, i int, bucket *models.DomainBucket, soloTotal int) scoreAcc {
	base := float64(i) * bucketOffset

	if bucket.IsSolo() {
		acc.scored = append(acc.scored, models.ScheduledURL{
			URL:   bucket.Records[0].Raw,
			Score: base + soloFraction(acc.soloSeen, soloTotal),
		})
		acc.soloSeen++
		return acc
	}

	n := bucket.Len()
	for j, rec := range bucket.Records {
		acc.scored = append(acc.scored, models.ScheduledURL{
			URL:   rec.Raw,
			Score: base + float64(j)/float64(n-1),
		})
	}
	return acc
}

// soloFraction 第 k 个单成员桶的分数
// 只有一个单成员桶时取区间下限
func soloFraction(k, total int) float64 {
	if total <= 1 {
		return soloFloor
	}
	return soloFloor + soloSpan*(float64(k)/float64(total-1))
}
