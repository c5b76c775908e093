// Package prompt 管理各功能的提示词模板。
package prompt

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"quill-ai-go/internal/model"
)

// ErrMissingVariables 表示渲染时缺少模板声明的必填变量。
var ErrMissingVariables = errors.New("missing prompt variables")

var lengthWords = map[string]string{
	"short":  "300-500 words",
	"medium": "800-1200 words",
	"long":   "1500-2000 words",
}

// LengthWords 把 short/medium/long 映射为字数范围，未知值按 medium 处理。
func LengthWords(length string) string {
	if w, ok := lengthWords[length]; ok {
		return w
	}
	return lengthWords["medium"]
}

// Template 是一个带必填变量声明的提示词模板。
type Template struct {
	Name     string
	Required []string
	tmpl     *template.Template
}

// Render 校验必填变量后执行模板。
func (t *Template) Render(vars map[string]string) (string, error) {
	var missing []string
	for _, k := range t.Required {
		if strings.TrimSpace(vars[k]) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w for %s: %s", ErrMissingVariables, t.Name, strings.Join(missing, ", "))
	}

	var b strings.Builder
	if err := t.tmpl.Execute(&b, vars); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", t.Name, err)
	}
	return strings.TrimSpace(b.String()), nil
}

type definition struct {
	name     string
	required []string
	text     string
}

var builtins = map[model.RequestType]definition{
	model.RequestBlogDraft: {
		name:     "blog_draft",
		required: []string{"topic", "tone", "length_words"},
		text: `Write a {{.tone}} blog post about {{.topic}}.

Requirements:
- Length: {{.length_words}}
- Tone: {{.tone}}
- Audience: {{or .audience "general"}}
{{- if .keywords}}
- Work in these keywords naturally: {{.keywords}}
{{- end}}
- Include an engaging introduction
- Use subheadings to structure the content
- Provide practical examples or insights
- End with a compelling conclusion
- Use markdown formatting

Topic: {{.topic}}`,
	},
	model.RequestBlogImprove: {
		name:     "blog_improve",
		required: []string{"content", "improvement_focus"},
		text: `Improve the following blog content, focusing on {{.improvement_focus}}.
Target audience: {{or .audience "general"}}.
Keep the original meaning and markdown structure. Return only the improved content.

Content:
{{.content}}`,
	},
	model.RequestTitleGeneration: {
		name:     "title_generation",
		required: []string{"topic", "tone", "content_type"},
		text: `Suggest 8 {{.tone}} titles for a {{.content_type}} about {{.topic}}.
{{- if .keyword}}
Each title should include the keyword "{{.keyword}}" where it reads naturally.
{{- end}}
Keep titles under 60 characters. Return one title per line as a numbered list.`,
	},
	model.RequestSEOOptimization: {
		name:     "seo_optimization",
		required: []string{"title", "content", "keyword"},
		text: `Write a meta description of at most 160 characters for the blog post below.
The target keyword is "{{.keyword}}". Return only the meta description.

Title: {{.title}}

{{.content}}`,
	},
	model.RequestToneAnalysis: {
		name:     "tone_analysis",
		required: []string{"content"},
		text: `Classify the overall tone of the text as POSITIVE, NEGATIVE or NEUTRAL.
Answer with JSON only: {"sentiment": "<LABEL>", "confidence": <0..1>}

Text:
{{.content}}`,
	},
	model.RequestTagSuggestion: {
		name:     "tag_suggestion",
		required: []string{"text"},
		text: `Suggest up to 8 short lowercase tags for the blog post below.
{{- if .category}}
The post belongs to the category "{{.category}}".
{{- end}}
Return a comma separated list.

{{.text}}`,
	},
}

// Manager 按请求类型保存已解析的模板。
type Manager struct {
	templates map[model.RequestType]*Template
}

// NewManager 解析内置模板；overrides 的键为请求类型，值替换对应模板正文，必填变量不变。
func NewManager(overrides map[string]string) (*Manager, error) {
	m := &Manager{templates: make(map[model.RequestType]*Template, len(builtins))}
	for rt, def := range builtins {
		text := def.text
		if o, ok := overrides[string(rt)]; ok && strings.TrimSpace(o) != "" {
			text = o
		}
		tmpl, err := template.New(def.name).Option("missingkey=zero").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse prompt %s: %w", def.name, err)
		}
		m.templates[rt] = &Template{Name: def.name, Required: def.required, tmpl: tmpl}
	}
	for k := range overrides {
		if _, ok := builtins[model.RequestType(k)]; !ok {
			return nil, fmt.Errorf("unknown prompt override %q", k)
		}
	}
	return m, nil
}

// Get 返回请求类型对应的模板。
func (m *Manager) Get(rt model.RequestType) (*Template, error) {
	t, ok := m.templates[rt]
	if !ok {
		return nil, fmt.Errorf("no prompt template for %s", rt)
	}
	return t, nil
}

// Render 渲染请求类型对应的模板，返回模板名与提示词。
func (m *Manager) Render(rt model.RequestType, vars map[string]string) (string, string, error) {
	t, err := m.Get(rt)
	if err != nil {
		return "", "", err
	}
	out, err := t.Render(vars)
	if err != nil {
		return t.Name, "", err
	}
	return t.Name, out, nil
}

// Names 返回所有模板名，按字母排序。
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.templates))
	for _, t := range m.templates {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}
