package analysis

import (
	"strings"
	"unicode/utf8"
)

const (
	maxMetaDescription = 160
	// contentKeywords 是从正文补充的高频词个数。
	contentKeywords = 3
)

// SEOOptimizations 是针对一篇文章的 SEO 建议。
type SEOOptimizations struct {
	MetaDescription string   `json:"meta_description"`
	SuggestedTitle  string   `json:"suggested_title"`
	Keywords        []string `json:"keywords"`
	InternalLinks   []string `json:"internal_links"`
	ImageAltTexts   []string `json:"image_alt_texts"`
}

// SEOScore 以 70 为基础分：标题含关键词 +10，正文含关键词 +10，标题不超过 60 字符 +5。
func SEOScore(title, content, keyword string) int {
	score := 70
	if containsFold(title, keyword) {
		score += 10
	}
	if containsFold(content, keyword) {
		score += 10
	}
	if utf8.RuneCountInString(title) <= 60 {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score
}

// SEORecommendations 返回需要改进的点；没有问题时返回空切片。
func SEORecommendations(title, content, keyword string) []string {
	recs := []string{}
	if strings.TrimSpace(keyword) == "" {
		recs = append(recs, "Add a target keyword for better optimization")
	}
	if utf8.RuneCountInString(title) > 60 {
		recs = append(recs, "Shorten title to under 60 characters")
	}
	if WordCount(content) < 300 {
		recs = append(recs, "Add more content for better SEO (aim for 300+ words)")
	}
	if keyword != "" && !containsFold(title, keyword) {
		recs = append(recs, "Include the target keyword in the title")
	}
	if keyword != "" && !containsFold(content, keyword) {
		recs = append(recs, "Use the target keyword in the content")
	}
	return recs
}

// MetaDescription 使用模型输出的第一段作为 meta description，超过 160 字符时按词截断；
// 输出为空时退回固定句式。
func MetaDescription(output, keyword string) string {
	desc := strings.TrimSpace(output)
	if i := strings.Index(desc, "\n\n"); i >= 0 {
		desc = desc[:i]
	}
	desc = strings.Join(strings.Fields(desc), " ")
	if desc == "" {
		return "Learn about " + keyword + " in this comprehensive guide. Discover key insights and practical tips."
	}
	if utf8.RuneCountInString(desc) <= maxMetaDescription {
		return desc
	}
	runes := []rune(desc)[:maxMetaDescription-3]
	cut := string(runes)
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

// BuildSEOOptimizations 组合 meta description、目标关键词及正文高频词，以及固定的链接与 alt 建议。
func BuildSEOOptimizations(title, keyword, content, output string) SEOOptimizations {
	keywords := []string{keyword, keyword + " tutorial", keyword + " guide"}
	seen := map[string]bool{strings.ToLower(keyword): true}
	for _, w := range ExtractKeywords(content, contentKeywords+1) {
		if len(keywords) == 3+contentKeywords {
			break
		}
		if !seen[w] {
			seen[w] = true
			keywords = append(keywords, w)
		}
	}
	return SEOOptimizations{
		MetaDescription: MetaDescription(output, keyword),
		SuggestedTitle:  title + " - Complete " + keyword + " Guide",
		Keywords:        keywords,
		InternalLinks:   []string{"Related tutorials", "Best practices guide"},
		ImageAltTexts:   []string{keyword + " diagram", keyword + " example"},
	}
}
