package analysis

import (
	"regexp"
	"sort"
	"strings"
)

var (
	keywordPattern = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)
	tagWord        = regexp.MustCompile(`[a-z0-9]+`)
)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the a an and or but in on at to for of with by is are was were be been
		have has had do does did will would could should may might must can this that these those
		you your our their its from into about than then them they there here what which who how`) {
		stopWords[w] = struct{}{}
	}
}

// tagVocabulary 是 SuggestTags 认识的标签，顺序即输出顺序。
var tagVocabulary = []string{
	"python", "django", "javascript", "react", "ai", "machine-learning",
	"web-development", "tutorial", "guide", "tips", "best-practices",
	"programming", "coding", "development", "software", "technology",
}

var fallbackTags = []string{"tutorial", "guide", "tips"}

// ExtractKeywords 返回出现频率最高的 n 个词，频率相同时按首次出现顺序。
func ExtractKeywords(text string, n int) []string {
	counts := map[string]int{}
	order := []string{}
	for _, w := range keywordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := stopWords[w]; stop {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// SuggestTags 在文本中匹配词表；多词标签同时匹配连字符和空格两种写法。
// 都不匹配时返回通用标签。
func SuggestTags(text string, limit int) []string {
	words := map[string]struct{}{}
	for _, w := range tagWord.FindAllString(strings.ToLower(text), -1) {
		words[w] = struct{}{}
	}
	lower := " " + strings.Join(strings.Fields(strings.ToLower(text)), " ") + " "

	tags := []string{}
	for _, tag := range tagVocabulary {
		if strings.Contains(tag, "-") {
			if strings.Contains(lower, tag) || strings.Contains(lower, strings.ReplaceAll(tag, "-", " ")) {
				tags = append(tags, tag)
			}
		} else if _, ok := words[tag]; ok {
			tags = append(tags, tag)
		}
		if len(tags) == limit {
			break
		}
	}
	if len(tags) == 0 {
		return append([]string(nil), fallbackTags...)
	}
	return tags
}
