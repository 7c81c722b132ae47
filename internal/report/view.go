package report

// RatioEntry is one content category as displayed.
type RatioEntry struct {
	Category Category `json:"category" yaml:"category"`
	Value    int      `json:"value" yaml:"value"`
	Label    string   `json:"label" yaml:"label"`
}

// View is the presentation-ready projection of a result: the raw report,
// the derived axis bars and the formatted content ratios.
type View struct {
	Result   Result       `json:"result" yaml:"result"`
	Leanings []Leaning    `json:"axisLeanings" yaml:"axis_leanings"`
	Ratios   []RatioEntry `json:"contentRatios" yaml:"content_ratios"`
	Warnings []string     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewView builds the view for r.
func NewView(r Result) View {
	ratios := make([]RatioEntry, 0, len(Categories))
	for _, cat := range Categories {
		v := int(r.ContentRatio[cat])
		ratios = append(ratios, RatioEntry{
			Category: cat,
			Value:    v,
			Label:    FormatPercent(v),
		})
	}
	return View{
		Result:   r.Clone(),
		Leanings: AxisLeanings(r.PersonalityCode),
		Ratios:   ratios,
		Warnings: r.Warnings(),
	}
}
