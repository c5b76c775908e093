package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentenceAndWordCount(t *testing.T) {
	assert.Equal(t, 3, SentenceCount("One. Two! Three?"))
	assert.Equal(t, 1, SentenceCount("no punctuation at all"))
	assert.Equal(t, 0, SentenceCount("   "))
	assert.Equal(t, 4, WordCount("  four   words here ok "))
}

func TestReadabilityScore(t *testing.T) {
	assert.Equal(t, 0.0, ReadabilityScore(""))
	// 单音节短句超过上限
	assert.Equal(t, 100.0, ReadabilityScore("The cat sat on the mat."))
	// 多音节词低于下限
	assert.Equal(t, 0.0, ReadabilityScore("Readability matters."))

	s := ReadabilityScore("Writing clear posts helps readers. Short sentences keep attention on the point.")
	assert.True(t, s > 0 && s < 100, "got %v", s)
	assert.Equal(t, math.Round(s*10)/10, s)
}

func TestParseTitles(t *testing.T) {
	out := "1. First Title\n2) \"Second Title\"\n- Third\n* Fourth\n\n5. 10 Things About Go\n6. Sixth\n7. Seventh\n8. Eighth\n9. Ninth"
	titles := ParseTitles(out)
	require.Len(t, titles, MaxTitles)
	assert.Equal(t, []string{"First Title", "Second Title", "Third", "Fourth", "10 Things About Go", "Sixth", "Seventh", "Eighth"}, titles)

	assert.Empty(t, ParseTitles("\n \n"))
}

func TestAnalyzeTitle(t *testing.T) {
	a := AnalyzeTitle("Django Tips", "django")
	assert.Equal(t, TitleAnalysis{Title: "Django Tips", Length: 11, SEOScore: 95, HasKeywords: true}, a)

	long := strings.Repeat("x", 61)
	assert.Equal(t, 75, AnalyzeTitle(long, "").SEOScore)
	assert.False(t, AnalyzeTitle("Django Tips", "").HasKeywords)

	assert.Len(t, AnalyzeTitles([]string{"a", "b"}, "a"), 2)
}

func TestSEOScore(t *testing.T) {
	assert.Equal(t, 95, SEOScore("Django Best Practices", "We love django.", "Django"))
	assert.Equal(t, 85, SEOScore("Best Practices", "We love django.", "django"))
	assert.Equal(t, 70, SEOScore(strings.Repeat("t", 61), "nothing here", "django"))
}

func TestSEORecommendations(t *testing.T) {
	recs := SEORecommendations("Django Tips", "A short post about django.", "django")
	assert.Equal(t, []string{"Add more content for better SEO (aim for 300+ words)"}, recs)

	recs = SEORecommendations(strings.Repeat("t", 61), strings.Repeat("word ", 300), "django")
	assert.Equal(t, []string{
		"Shorten title to under 60 characters",
		"Include the target keyword in the title",
		"Use the target keyword in the content",
	}, recs)
}

func TestMetaDescription(t *testing.T) {
	assert.Equal(t, "Short and sweet.", MetaDescription("  Short and\nsweet.\n\nSecond paragraph.", "go"))
	assert.Contains(t, MetaDescription("", "go"), "Learn about go")

	long := MetaDescription(strings.Repeat("lorem ipsum ", 40), "go")
	assert.LessOrEqual(t, len([]rune(long)), 160)
	assert.True(t, strings.HasSuffix(long, "..."))
}

func TestBuildSEOOptimizations(t *testing.T) {
	opt := BuildSEOOptimizations("Go Tips", "go", "", "A meta line.")
	assert.Equal(t, "A meta line.", opt.MetaDescription)
	assert.Equal(t, "Go Tips - Complete go Guide", opt.SuggestedTitle)
	assert.Equal(t, []string{"go", "go tutorial", "go guide"}, opt.Keywords)
}

func TestBuildSEOOptimizations_ContentKeywords(t *testing.T) {
	content := "Go channels make concurrency simple. Channels and goroutines: goroutines are cheap, channels are safe. Go go go."
	opt := BuildSEOOptimizations("Go Tips", "Channels", content, "")
	// 目标关键词不区分大小写去重
	assert.Equal(t, []string{"Channels", "Channels tutorial", "Channels guide", "goroutines", "make", "concurrency"}, opt.Keywords)
}

func TestExtractKeywords(t *testing.T) {
	text := "Go is great. Go routines are great for concurrency; concurrency matters in go."
	assert.Equal(t, []string{"great", "concurrency", "routines"}, ExtractKeywords(text, 3))
	assert.Empty(t, ExtractKeywords("a an the", 5))
}

func TestSuggestTags(t *testing.T) {
	text := "Building a React app with JavaScript: a web development tutorial"
	assert.Equal(t, []string{"javascript", "react", "web-development", "tutorial", "development"}, SuggestTags(text, 8))
	assert.Equal(t, []string{"javascript", "react"}, SuggestTags(text, 2))
	assert.Equal(t, []string{"tutorial", "guide", "tips"}, SuggestTags("cooking pasta at home", 8))
	// "ai" 只匹配完整单词
	assert.NotContains(t, SuggestTags("she said it was a tutorial", 8), "ai")
}

func TestParseTone(t *testing.T) {
	assert.Equal(t, Tone{Label: TonePositive, Confidence: 0.93}, ParseTone(`Result: {"sentiment": "positive", "confidence": 0.93}`))
	assert.Equal(t, Tone{Label: ToneNegative, Confidence: 0.80}, ParseTone("The tone is mostly Negative."))
	assert.Equal(t, Tone{Label: ToneNeutral, Confidence: 0.5}, ParseTone(`{"sentiment":"MIXED"}`))
	assert.Equal(t, Tone{Label: ToneNeutral, Confidence: 0.5}, ParseTone("unclear"))
}

func TestToneSuggestions(t *testing.T) {
	assert.Equal(t, []string{"Consider balancing with more positive language."}, ToneSuggestions("negative"))
	assert.Equal(t, ToneSuggestions(ToneNeutral), ToneSuggestions("other"))
}

func TestToneScore(t *testing.T) {
	assert.Equal(t, 89.5, ToneScore(Tone{Label: TonePositive, Confidence: 0.85}, 100))
	assert.Equal(t, 0.0, ToneScore(Tone{}, 0))
}
