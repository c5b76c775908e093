package service

import (
	"context"
	"regexp"
	"strings"

	"quill-ai-go/internal/analysis"
	"quill-ai-go/internal/model"
	"quill-ai-go/internal/prompt"
)

// 各功能输入字段的默认值。
const (
	DefaultTone        = "professional"
	DefaultLength      = "medium"
	DefaultAudience    = "general"
	DefaultImprovement = "readability"
	DefaultContentType = "article"
	maxTags            = 8
)

// Meta 是每个功能结果都携带的请求信息。
type Meta struct {
	RequestID      string  `json:"request_id"`
	ProcessingTime float64 `json:"processing_time"`
}

func metaOf(o *Outcome) Meta {
	return Meta{RequestID: o.RequestID, ProcessingTime: o.ProcessingTime}
}

// DraftInput 是生成草稿的输入。
type DraftInput struct {
	Topic    string
	Tone     string
	Length   string
	Keywords string
	Audience string
}

// DraftSuggestions 是草稿附带的标题和标签建议。
type DraftSuggestions struct {
	TitleSuggestions []string `json:"title_suggestions"`
	TagSuggestions   []string `json:"tag_suggestions"`
}

// DraftResult 是生成草稿的结果。
type DraftResult struct {
	Draft       string           `json:"draft"`
	Suggestions DraftSuggestions `json:"suggestions"`
	Meta
}

// ImproveInput 是内容改进的输入。
type ImproveInput struct {
	Content  string
	Type     string
	Audience string
}

// Improvements 描述改进前后的变化。
type Improvements struct {
	WordCountChange int      `json:"word_count_change"`
	Improvements    []string `json:"improvements"`
}

// ImproveResult 是内容改进的结果。
type ImproveResult struct {
	ImprovedContent  string       `json:"improved_content"`
	ReadabilityScore float64      `json:"readability_score"`
	ImprovementsMade Improvements `json:"improvements_made"`
	Meta
}

// TitleInput 是生成标题的输入。
type TitleInput struct {
	Topic       string
	Keyword     string
	Tone        string
	ContentType string
}

// TitleResult 是生成标题的结果。
type TitleResult struct {
	Titles      []string                 `json:"titles"`
	SEOAnalysis []analysis.TitleAnalysis `json:"seo_analysis"`
	Meta
}

// SEOInput 是 SEO 优化的输入。
type SEOInput struct {
	Title   string
	Content string
	Keyword string
}

// SEOResult 是 SEO 优化的结果。
type SEOResult struct {
	CurrentSEOScore  int                       `json:"current_seo_score"`
	SEOOptimizations analysis.SEOOptimizations `json:"seo_optimizations"`
	Recommendations  []string                  `json:"recommendations"`
	Meta
}

// ToneInput 是语气分析的输入。
type ToneInput struct {
	Content string
}

// ToneReport 是语气分析的明细。
type ToneReport struct {
	PrimaryTone string  `json:"primary_tone"`
	Confidence  float64 `json:"confidence"`
	ToneScore   float64 `json:"tone_score"`
	Readability float64 `json:"readability"`
}

// ToneResult 是语气分析的结果。
type ToneResult struct {
	Tone        ToneReport `json:"tone"`
	Suggestions []string   `json:"suggestions"`
	Meta
}

// TagInput 是标签建议的输入，Content 与 Title 至少一个非空。
type TagInput struct {
	Content  string
	Title    string
	Category string
}

// TagResult 是标签建议的结果。
type TagResult struct {
	SuggestedTags    []string           `json:"suggested_tags"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	Meta
}

// BlogService 为每个写作辅助功能提供一个方法。
type BlogService interface {
	GenerateDraft(ctx context.Context, caller Caller, in DraftInput) (*DraftResult, error)
	ImproveContent(ctx context.Context, caller Caller, in ImproveInput) (*ImproveResult, error)
	GenerateTitles(ctx context.Context, caller Caller, in TitleInput) (*TitleResult, error)
	OptimizeSEO(ctx context.Context, caller Caller, in SEOInput) (*SEOResult, error)
	AnalyzeTone(ctx context.Context, caller Caller, in ToneInput) (*ToneResult, error)
	SuggestTags(ctx context.Context, caller Caller, in TagInput) (*TagResult, error)
}

type blogService struct {
	ai      AIService
	prompts *prompt.Manager
}

// NewBlogService 创建一个新的 BlogService 实例。
func NewBlogService(ai AIService, prompts *prompt.Manager) BlogService {
	return &blogService{ai: ai, prompts: prompts}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

// run 渲染模板并执行调用。模板缺少变量属于输入问题，按校验错误返回。
func (s *blogService) run(ctx context.Context, caller Caller, rt model.RequestType, vars map[string]string, input string) (*Outcome, error) {
	name, text, err := s.prompts.Render(rt, vars)
	if err != nil {
		return nil, err
	}
	return s.ai.Execute(ctx, Call{
		Caller:      caller,
		RequestType: rt,
		Template:    name,
		Prompt:      text,
		InputText:   input,
		Parameters:  vars,
	})
}

func (s *blogService) GenerateDraft(ctx context.Context, caller Caller, in DraftInput) (*DraftResult, error) {
	in.Tone = orDefault(in.Tone, DefaultTone)
	in.Length = orDefault(in.Length, DefaultLength)
	in.Audience = orDefault(in.Audience, DefaultAudience)

	out, err := s.run(ctx, caller, model.RequestBlogDraft, map[string]string{
		"topic":        in.Topic,
		"tone":         in.Tone,
		"length":       in.Length,
		"length_words": prompt.LengthWords(in.Length),
		"keywords":     in.Keywords,
		"audience":     in.Audience,
	}, in.Topic)
	if err != nil {
		return nil, err
	}

	tags := analysis.SuggestTags(in.Topic+" "+in.Keywords+" "+out.Text, 3)
	return &DraftResult{
		Draft: out.Text,
		Suggestions: DraftSuggestions{
			TitleSuggestions: analysis.TopicTitleSuggestions(in.Topic),
			TagSuggestions:   tags,
		},
		Meta: metaOf(out),
	}, nil
}

var improvementNotes = map[string][]string{
	"readability": {"Better readability", "Shorter sentences", "Simpler wording"},
	"clarity":     {"Enhanced clarity", "Removed ambiguity"},
	"engagement":  {"Improved flow", "More engaging hooks"},
	"grammar":     {"Corrected grammar", "Fixed punctuation"},
	"seo":         {"Keyword placement", "Clearer headings"},
}

func (s *blogService) ImproveContent(ctx context.Context, caller Caller, in ImproveInput) (*ImproveResult, error) {
	in.Type = orDefault(in.Type, DefaultImprovement)
	in.Audience = orDefault(in.Audience, DefaultAudience)

	out, err := s.run(ctx, caller, model.RequestBlogImprove, map[string]string{
		"content":           in.Content,
		"improvement_focus": in.Type,
		"audience":          in.Audience,
	}, in.Content)
	if err != nil {
		return nil, err
	}

	notes := append([]string(nil), improvementNotes[in.Type]...)
	return &ImproveResult{
		ImprovedContent:  out.Text,
		ReadabilityScore: analysis.ReadabilityScore(out.Text),
		ImprovementsMade: Improvements{
			WordCountChange: analysis.WordCount(out.Text) - analysis.WordCount(in.Content),
			Improvements:    notes,
		},
		Meta: metaOf(out),
	}, nil
}

func (s *blogService) GenerateTitles(ctx context.Context, caller Caller, in TitleInput) (*TitleResult, error) {
	in.Tone = orDefault(in.Tone, DefaultTone)
	in.ContentType = orDefault(in.ContentType, DefaultContentType)

	out, err := s.run(ctx, caller, model.RequestTitleGeneration, map[string]string{
		"topic":        in.Topic,
		"keyword":      in.Keyword,
		"tone":         in.Tone,
		"content_type": in.ContentType,
	}, in.Topic)
	if err != nil {
		return nil, err
	}

	titles := analysis.ParseTitles(out.Text)
	return &TitleResult{
		Titles:      titles,
		SEOAnalysis: analysis.AnalyzeTitles(titles, in.Keyword),
		Meta:        metaOf(out),
	}, nil
}

func (s *blogService) OptimizeSEO(ctx context.Context, caller Caller, in SEOInput) (*SEOResult, error) {
	out, err := s.run(ctx, caller, model.RequestSEOOptimization, map[string]string{
		"title":   in.Title,
		"content": in.Content,
		"keyword": in.Keyword,
	}, in.Title+"\n\n"+in.Content)
	if err != nil {
		return nil, err
	}

	return &SEOResult{
		CurrentSEOScore:  analysis.SEOScore(in.Title, in.Content, in.Keyword),
		SEOOptimizations: analysis.BuildSEOOptimizations(in.Title, in.Keyword, in.Content, out.Text),
		Recommendations:  analysis.SEORecommendations(in.Title, in.Content, in.Keyword),
		Meta:             metaOf(out),
	}, nil
}

func (s *blogService) AnalyzeTone(ctx context.Context, caller Caller, in ToneInput) (*ToneResult, error) {
	out, err := s.run(ctx, caller, model.RequestToneAnalysis, map[string]string{
		"content": in.Content,
	}, in.Content)
	if err != nil {
		return nil, err
	}

	tone := analysis.ParseTone(out.Text)
	readability := analysis.ReadabilityScore(in.Content)
	return &ToneResult{
		Tone: ToneReport{
			PrimaryTone: tone.Label,
			Confidence:  tone.Confidence,
			ToneScore:   analysis.ToneScore(tone, readability),
			Readability: readability,
		},
		Suggestions: analysis.ToneSuggestions(tone.Label),
		Meta:        metaOf(out),
	}, nil
}

var tagSplit = regexp.MustCompile(`[,\n]+`)

// parseTagList 解析模型返回的逗号分隔标签，丢弃明显不是标签的长句。
func parseTagList(output string) []string {
	var tags []string
	for _, raw := range tagSplit.Split(output, -1) {
		t := strings.ToLower(strings.Trim(strings.TrimSpace(raw), `#"'.- `))
		if t == "" || len(t) > 30 || len(strings.Fields(t)) > 3 {
			continue
		}
		tags = append(tags, strings.Join(strings.Fields(t), "-"))
	}
	return tags
}

func (s *blogService) SuggestTags(ctx context.Context, caller Caller, in TagInput) (*TagResult, error) {
	if strings.TrimSpace(in.Content) == "" && strings.TrimSpace(in.Title) == "" {
		return nil, &ValidationError{Missing: []string{"content or title"}}
	}
	text := strings.TrimSpace(in.Title + "\n\n" + in.Content)

	out, err := s.run(ctx, caller, model.RequestTagSuggestion, map[string]string{
		"text":     text,
		"category": in.Category,
	}, text)
	if err != nil {
		return nil, err
	}

	// 模型给出的标签在前，词表匹配的补在后面
	vocab := analysis.SuggestTags(text+" "+in.Category, maxTags)
	candidates := parseTagList(out.Text)
	confidence := map[string]float64{}
	var tags []string
	add := func(tag string, score float64) {
		if _, seen := confidence[tag]; seen || len(tags) == maxTags {
			return
		}
		confidence[tag] = score
		tags = append(tags, tag)
	}
	for _, t := range candidates {
		add(t, 0.9)
	}
	for _, t := range vocab {
		add(t, 0.7)
	}

	return &TagResult{
		SuggestedTags:    tags,
		ConfidenceScores: confidence,
		Meta:             metaOf(out),
	}, nil
}
