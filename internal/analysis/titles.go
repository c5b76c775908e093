package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var listMarker = regexp.MustCompile(`^(?:\d+[.)]|[-*•])\s*`)

// MaxTitles 是 ParseTitles 返回的最大条数。
const MaxTitles = 8

// TitleAnalysis 是单个标题的 SEO 评估。
type TitleAnalysis struct {
	Title       string `json:"title"`
	Length      int    `json:"length"`
	SEOScore    int    `json:"seo_score"`
	HasKeywords bool   `json:"has_keywords"`
}

// ParseTitles 从模型输出中逐行提取标题，去掉序号、列表符号和引号。
func ParseTitles(output string) []string {
	titles := make([]string, 0, MaxTitles)
	for _, line := range strings.Split(output, "\n") {
		t := listMarker.ReplaceAllString(strings.TrimSpace(line), "")
		t = strings.Trim(strings.TrimSpace(t), `"'“”`)
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		titles = append(titles, t)
		if len(titles) == MaxTitles {
			break
		}
	}
	return titles
}

// AnalyzeTitle 评估标题长度与关键词命中情况。
func AnalyzeTitle(title, keyword string) TitleAnalysis {
	length := utf8.RuneCountInString(title)
	score := 75
	if length <= 60 {
		score = 95
	}
	return TitleAnalysis{
		Title:       title,
		Length:      length,
		SEOScore:    score,
		HasKeywords: containsFold(title, strings.TrimSpace(keyword)),
	}
}

// AnalyzeTitles 对每个标题调用 AnalyzeTitle。
func AnalyzeTitles(titles []string, keyword string) []TitleAnalysis {
	out := make([]TitleAnalysis, 0, len(titles))
	for _, t := range titles {
		out = append(out, AnalyzeTitle(t, keyword))
	}
	return out
}

// TopicTitleSuggestions 根据主题给出几个固定句式的标题建议，用于草稿结果。
func TopicTitleSuggestions(topic string) []string {
	return []string{
		"Complete Guide to " + topic,
		"Understanding " + topic + ": A Beginner's Guide",
		"10 Things You Need to Know About " + topic,
		"The Future of " + topic + ": Trends and Insights",
	}
}
