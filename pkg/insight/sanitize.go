package insight

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

var (
	leadingJsonFence = regexp.MustCompile("^```json\\s*")
	leadingFence     = regexp.MustCompile("^```\\s*")
	trailingFence    = regexp.MustCompile("\\s*```$")
	trailingObjComma = regexp.MustCompile(`,\s*}`)
	trailingArrComma = regexp.MustCompile(`,\s*]`)
)

const (
	maxTitleLength   = 30
	maxMessageLength = 100
	maxActionLength  = 50

	defaultConfidence = 0.7
	minConfidence     = 0.5
	maxConfidence     = 1.0
)

// sanitizeModelJSON repairs the usual defects of model generated JSON: code fences, prose around
// the array, single quotes, trailing commas and raw line breaks.
func sanitizeModelJSON(response string) string {
	s := strings.TrimSpace(response)
	s = leadingJsonFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")

	first, last := strings.Index(s, "["), strings.LastIndex(s, "]")
	if first != -1 && last > first {
		s = s[first : last+1]
	}

	s = strings.ReplaceAll(s, "'", `"`)
	s = trailingObjComma.ReplaceAllString(s, "}")
	s = trailingArrComma.ReplaceAllString(s, "]")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\t", " ")
	return s
}

// parseModelInsights turns a model response into at most two insights. A single object is
// accepted as a one element list. Items without title or message are dropped.
func parseModelInsights(response string) ([]Insight, bool) {
	cleaned := sanitizeModelJSON(response)
	if !gjson.Valid(cleaned) {
		return nil, false
	}

	parsed := gjson.Parse(cleaned)
	var items []gjson.Result
	switch {
	case parsed.IsArray():
		items = parsed.Array()
	case parsed.IsObject():
		items = []gjson.Result{parsed}
	default:
		return nil, false
	}

	insights := make([]Insight, 0, maxAIInsights)
	for _, item := range items {
		if len(insights) == maxAIInsights {
			break
		}
		title := strings.TrimSpace(item.Get("title").String())
		message := strings.TrimSpace(item.Get("message").String())
		if title == "" || message == "" {
			continue
		}

		insightType := Type(item.Get("type").String())
		if !insightType.valid() {
			insightType = TypeTip
		}
		confidence := defaultConfidence
		if c := item.Get("confidence"); c.Exists() && c.Float() != 0 {
			confidence = c.Float()
		}

		insights = append(insights, Insight{
			Id:         "ai-" + uuid.NewString(),
			Type:       insightType,
			Title:      truncate(title, maxTitleLength),
			Message:    truncate(message, maxMessageLength),
			Action:     truncate(strings.TrimSpace(item.Get("action").String()), maxActionLength),
			Confidence: min(max(confidence, minConfidence), maxConfidence),
		})
	}
	return insights, true
}
