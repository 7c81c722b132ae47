package report

// Quote is a notable sentence picked from the blog.
type Quote struct {
	Quote            string `json:"quote" yaml:"quote"`
	QuoteExplanation string `json:"quote_explanation" yaml:"quote_explanation"`
	SourceLink       string `json:"source_link" yaml:"source_link"`
}

// Category is one of the fixed content categories.
type Category string

const (
	CategoryExpertise       Category = "expertise"
	CategoryEssay           Category = "essay"
	CategoryTravel          Category = "travel"
	CategorySelfImprovement Category = "self_improvement"
)

// Categories lists the content categories in display order.
var Categories = []Category{
	CategoryExpertise,
	CategoryEssay,
	CategoryTravel,
	CategorySelfImprovement,
}

// Result is the report returned by an analysis provider.
type Result struct {
	Summary            string               `json:"summary" yaml:"summary"`
	SummaryExplanation string               `json:"summary_explanation" yaml:"summary_explanation"`
	PersonalityCode    string               `json:"mbti" yaml:"mbti"`
	AxisExplanations   map[Axis]string      `json:"mbti_explanation" yaml:"mbti_explanation"`
	Keywords           []string             `json:"keywords" yaml:"keywords"`
	Quotes             []Quote              `json:"quotes" yaml:"quotes"`
	ContentRatio       map[Category]Percent `json:"content_ratio" yaml:"content_ratio"`
}

// RatioTotal sums the content ratio percentages.
func (r Result) RatioTotal() int {
	total := 0
	for _, v := range r.ContentRatio {
		total += int(v)
	}
	return total
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (r Result) Clone() Result {
	out := r
	if r.AxisExplanations != nil {
		out.AxisExplanations = make(map[Axis]string, len(r.AxisExplanations))
		for k, v := range r.AxisExplanations {
			out.AxisExplanations[k] = v
		}
	}
	if r.Keywords != nil {
		out.Keywords = append([]string(nil), r.Keywords...)
	}
	if r.Quotes != nil {
		out.Quotes = append([]Quote(nil), r.Quotes...)
	}
	if r.ContentRatio != nil {
		out.ContentRatio = make(map[Category]Percent, len(r.ContentRatio))
		for k, v := range r.ContentRatio {
			out.ContentRatio[k] = v
		}
	}
	return out
}
