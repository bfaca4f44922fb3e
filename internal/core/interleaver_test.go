package core

import (
	"fmt"
	"reflect"
	"testing"
)

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://www.example.com/a", "example.com", true},
		{"https://blog.example.com/", "example.com", true},
		{"HTTPS://WWW.Example.COM/x", "example.com", true},
		{"http://shop.foo.co.uk/cart", "foo.co.uk", true},
		{"https://example.com:8443/x", "example.com", true},
		{"not a url", "", false},
		{"/relative/path", "", false},
		{"https://", "", false},
		{"https://co.uk/", "", false},
		{"http://127.0.0.1/a", "127.0.0.1", true},
		{"http://10.0.0.1:8080/b", "10.0.0.1", true},
		{"http://[::1]:8080/", "::1", true},
		{"http://[2001:DB8::1]/", "2001:db8::1", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := RegistrableDomain(tt.url)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("RegistrableDomain(%q) = (%q, %v), 期望 (%q, %v)", tt.url, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSchedule_Filtering(t *testing.T) {
	got := Schedule([]string{"", "/relative", "not a url", "https://a.example/x"}, nil)
	want := []string{"https://a.example/x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %v, 得到 %v", want, got)
	}
}

func TestSchedule_TrimsWhitespace(t *testing.T) {
	got := Schedule([]string{"  https://a.example/x \r", "   ", "\t/rel"}, nil)
	want := []string{"https://a.example/x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %v, 得到 %v", want, got)
	}
}

func TestSchedule_EndToEndScenario(t *testing.T) {
	input := []string{"https://a.example/1", "https://b.example/1", "https://a.example/2"}

	got := Schedule(input, nil)
	want := []string{"https://a.example/1", "https://b.example/1", "https://a.example/2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %v, 得到 %v", want, got)
	}
}

func TestSchedule_MultiBucketsInterleave(t *testing.T) {
	input := []string{
		"https://a.com/1", "https://a.com/2", "https://a.com/3",
		"https://b.com/1", "https://b.com/2", "https://b.com/3",
	}

	got := Schedule(input, nil)
	want := []string{
		"https://a.com/1", "https://b.com/1",
		"https://a.com/2", "https://b.com/2",
		"https://a.com/3", "https://b.com/3",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %v, 得到 %v", want, got)
	}
	assertNoAdjacentSameDomain(t, got)
}

func TestSchedule_SoloFairness(t *testing.T) {
	input := []string{
		"https://a.com/1", "https://x.com/", "https://a.com/2",
		"https://y.com/", "https://a.com/3", "https://z.com/",
	}

	got := Schedule(input, nil)
	want := []string{
		"https://a.com/1", "https://x.com/",
		"https://a.com/2", "https://y.com/",
		"https://z.com/", "https://a.com/3",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %v, 得到 %v", want, got)
	}

	// 单成员桶按首次出现顺序排列
	pos := positions(got)
	if !(pos["https://x.com/"] < pos["https://y.com/"] && pos["https://y.com/"] < pos["https://z.com/"]) {
		t.Errorf("单成员桶顺序错误: %v", got)
	}
	assertNoAdjacentSameDomain(t, got)
}

func TestSchedule_SingleSolo(t *testing.T) {
	// 只有一个单成员桶时取区间下限, 排在多成员桶首个URL之后
	input := []string{"https://a.com/1", "https://a.com/2", "https://solo.com/"}

	got := Schedule(input, nil)
	want := []string{"https://a.com/1", "https://solo.com/", "https://a.com/2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %v, 得到 %v", want, got)
	}
}

func TestSchedule_IPHostsAreSeparateBuckets(t *testing.T) {
	// 不同IP各自成桶, 两个单成员桶分布在多成员桶的两个URL之间
	input := []string{"https://a.com/1", "http://127.0.0.1/x", "http://10.0.0.1/y", "https://a.com/2"}

	got := Schedule(input, nil)
	want := []string{"https://a.com/1", "http://127.0.0.1/x", "http://10.0.0.1/y", "https://a.com/2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %v, 得到 %v", want, got)
	}
}

func TestSchedule_SameIPSharesBucket(t *testing.T) {
	input := []string{"http://10.0.0.1/1", "http://10.0.0.1:8080/2", "https://b.com/"}

	got := Schedule(input, nil)
	want := []string{"http://10.0.0.1/1", "https://b.com/", "http://10.0.0.1:8080/2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %v, 得到 %v", want, got)
	}
}

func TestSchedule_SameDomainOnly(t *testing.T) {
	input := []string{"https://a.com/1", "https://www.a.com/2", "https://a.com/3"}

	got := Schedule(input, nil)
	if !reflect.DeepEqual(got, input) {
		t.Errorf("同一域名应保持原顺序, 得到 %v", got)
	}
}

func TestSchedule_Stability(t *testing.T) {
	var input []string
	for i := 0; i < 50; i++ {
		input = append(input, fmt.Sprintf("https://d%d.com/%d", i%7, i))
		if i%5 == 0 {
			input = append(input, fmt.Sprintf("https://solo%d.org/", i))
		}
	}

	first := Schedule(input, nil)
	second := Schedule(input, nil)
	if !reflect.DeepEqual(first, second) {
		t.Error("相同输入应产生相同输出")
	}
	if len(first) != len(input) {
		t.Errorf("URL数量错误: 期望 %d, 得到 %d", len(input), len(first))
	}
}

func TestSchedule_CustomDomainFunc(t *testing.T) {
	// 所有URL归为同一桶
	same := func(string) (string, bool) { return "all", true }
	input := []string{"https://a.com/", "https://b.com/", "https://c.com/"}

	got := Schedule(input, same)
	if !reflect.DeepEqual(got, input) {
		t.Errorf("期望 %v, 得到 %v", input, got)
	}

	// 拒绝所有URL
	none := func(string) (string, bool) { return "", false }
	if got := Schedule(input, none); len(got) != 0 {
		t.Errorf("应过滤所有URL, 得到 %v", got)
	}
}

func TestSoloFraction(t *testing.T) {
	tests := []struct {
		k, total int
		want     float64
	}{
		{0, 1, 0.01},
		{0, 2, 0.01},
		{1, 2, 0.99},
		{1, 3, 0.5},
	}
	for _, tt := range tests {
		got := soloFraction(tt.k, tt.total)
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("soloFraction(%d, %d) = %v, 期望 %v", tt.k, tt.total, got, tt.want)
		}
	}
}

func positions(urls []string) map[string]int {
	pos := make(map[string]int, len(urls))
	for i, u := range urls {
		pos[u] = i
	}
	return pos
}

func assertNoAdjacentSameDomain(t *testing.T, urls []string) {
	t.Helper()
	for i := 1; i < len(urls); i++ {
		prev, _ := RegistrableDomain(urls[i-1])
		cur, _ := RegistrableDomain(urls[i])
		if prev == cur {
			t.Errorf("同域名URL相邻: %s, %s", urls[i-1], urls[i])
		}
	}
}
