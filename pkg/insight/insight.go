package insight

type Type string

const (
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeTip     Type = "tip"
)

func (t Type) valid() bool {
	switch t {
	case TypeWarning, TypeInfo, TypeSuccess, TypeTip:
		return true
	}
	return false
}

type Insight struct {
	Id         string
	Type       Type
	Title      string
	Message    string
	Action     string
	Confidence float64
}

const (
	maxRuleInsights = 2
	maxAIInsights   = 2
	maxInsights     = 4
)

var welcomeInsights = []Insight{
	{
		Id:         "welcome-1",
		Type:       TypeInfo,
		Title:      "Welcome to AI Insights!",
		Message:    "Start adding expenses to get personalized financial insights.",
		Action:     "Add your first expense",
		Confidence: 1.0,
	},
	{
		Id:         "welcome-2",
		Type:       TypeTip,
		Title:      "Track Regularly",
		Message:    "Daily expense tracking helps AI provide better insights.",
		Action:     "Learn tracking tips",
		Confidence: 1.0,
	},
}

var fallbackInsights = []Insight{
	{
		Id:         "error-1",
		Type:       TypeWarning,
		Title:      "Connection Issue",
		Message:    "Unable to analyze expenses. Check your connection and try again.",
		Action:     "Retry analysis",
		Confidence: 0.5,
	},
	{
		Id:         "error-2",
		Type:       TypeTip,
		Title:      "Manual Review",
		Message:    "While AI loads, review your recent expenses for patterns.",
		Action:     "View expense history",
		Confidence: 1.0,
	},
}

func copyInsights(insights []Insight) []Insight {
	return append([]Insight(nil), insights...)
}
