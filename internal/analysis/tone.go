package analysis

import (
	"encoding/json"
	"regexp"
	"strings"
)

// 语气标签。
const (
	TonePositive = "POSITIVE"
	ToneNegative = "NEGATIVE"
	ToneNeutral  = "NEUTRAL"
)

var (
	jsonObject = regexp.MustCompile(`(?s)\{.*?\}`)
	toneLabel  = regexp.MustCompile(`(?i)\b(positive|negative|neutral)\b`)

	defaultConfidence = map[string]float64{
		TonePositive: 0.85,
		ToneNegative: 0.80,
		ToneNeutral:  0.70,
	}

	toneSuggestions = map[string][]string{
		TonePositive: {"Great tone! Consider adding more specific examples."},
		ToneNegative: {"Consider balancing with more positive language."},
		ToneNeutral:  {"Consider adding more engaging language to make content more compelling."},
	}
)

// Tone 是解析后的语气结果。
type Tone struct {
	Label      string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

// ParseTone 优先解析输出中的 JSON 对象 {"sentiment","confidence"}，
// 否则取第一个出现的标签，都没有时返回 NEUTRAL 0.5。
func ParseTone(output string) Tone {
	if m := jsonObject.FindString(output); m != "" {
		var raw struct {
			Sentiment  string   `json:"sentiment"`
			Confidence *float64 `json:"confidence"`
		}
		if err := json.Unmarshal([]byte(m), &raw); err == nil {
			label := strings.ToUpper(strings.TrimSpace(raw.Sentiment))
			if _, known := defaultConfidence[label]; known {
				conf := defaultConfidence[label]
				if raw.Confidence != nil {
					conf = clamp(*raw.Confidence, 0, 1)
				}
				return Tone{Label: label, Confidence: conf}
			}
		}
	}
	if m := toneLabel.FindString(output); m != "" {
		label := strings.ToUpper(m)
		return Tone{Label: label, Confidence: defaultConfidence[label]}
	}
	return Tone{Label: ToneNeutral, Confidence: 0.5}
}

// ToneSuggestions 返回对应语气的改进建议，未知标签按 NEUTRAL 处理。
func ToneSuggestions(label string) []string {
	if s, ok := toneSuggestions[strings.ToUpper(label)]; ok {
		return append([]string(nil), s...)
	}
	return append([]string(nil), toneSuggestions[ToneNeutral]...)
}

// ToneScore 衡量语气一致性：置信度与可读性的加权，0..100。
func ToneScore(t Tone, readability float64) float64 {
	return round1(clamp(t.Confidence*70+readability*0.3, 0, 100))
}
