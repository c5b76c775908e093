// Package analysis 提供对生成文本的确定性后处理：可读性、标题、SEO、关键词与语气解析。
// 这里的函数都是纯函数，不访问网络或数据库。
package analysis

import (
	"math"
	"regexp"
	"strings"
)

var (
	sentenceEnd = regexp.MustCompile(`[.!?]+`)
	wordPattern = regexp.MustCompile(`[A-Za-z]+(?:'[A-Za-z]+)?`)
	vowelGroups = regexp.MustCompile(`[aeiouy]+`)
)

// WordCount 按空白切分计数。
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// SentenceCount 统计以 . ! ? 结尾的句子；非空文本至少算一句。
func SentenceCount(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	n := 0
	for _, part := range sentenceEnd.Split(text, -1) {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

func syllables(word string) int {
	w := strings.ToLower(word)
	if len(w) <= 3 {
		return 1
	}
	// 结尾的不发音 e
	if strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") {
		w = w[:len(w)-1]
	}
	n := len(vowelGroups.FindAllString(w, -1))
	if n == 0 {
		return 1
	}
	return n
}

// ReadabilityScore 计算 Flesch reading ease，结果限制在 0..100 并保留一位小数。
func ReadabilityScore(text string) float64 {
	words := wordPattern.FindAllString(text, -1)
	if len(words) == 0 {
		return 0
	}
	sentences := SentenceCount(text)
	syl := 0
	for _, w := range words {
		syl += syllables(w)
	}
	wc := float64(len(words))
	score := 206.835 - 1.015*(wc/float64(sentences)) - 84.6*(float64(syl)/wc)
	return round1(clamp(score, 0, 100))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func containsFold(s, sub string) bool {
	return sub != "" && strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
