package provider

import (
	"context"
	"time"

	"blog-analyzer-backend/internal/report"
)

// DefaultMockDelay matches the simulated latency of the demo backend.
const DefaultMockDelay = 2 * time.Second

// Mock waits for Delay and then returns a fixed report, regardless of URL.
type Mock struct {
	Delay  time.Duration
	Result *report.Result
}

// NewMock constructs a Mock returning SampleResult.
func NewMock(delay time.Duration) *Mock {
	if delay < 0 {
		delay = 0
	}
	res := SampleResult()
	return &Mock{Delay: delay, Result: &res}
}

// Analyze implements Provider.
func (m *Mock) Analyze(ctx context.Context, blogURL string) (report.Result, error) {
	_ = blogURL
	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return report.Result{}, ctx.Err()
		}
	}
	if m.Result == nil {
		return SampleResult(), nil
	}
	return m.Result.Clone(), nil
}

// SampleResult is the demo report served by the mock backend.
func SampleResult() report.Result {
	return report.Result{
		Summary:            "창의적인 작가",
		SummaryExplanation: "이 블로그는 일상에서 발견한 특별한 순간들을 섬세하게 포착하고, 감성적인 시선으로 재해석합니다. 글쓴이는 개인적인 성찰과 경험을 바탕으로 독자들에게 공감과 위로를 전달합니다.",
		PersonalityCode:    "ENFP",
		AxisExplanations: map[report.Axis]string{
			report.AxisEI: "다양한 경험과 사람들과의 만남을 통해 에너지를 얻는 외향형(E) 성향이 강합니다.",
			report.AxisSN: "세부 사항보다 큰 그림을 보고 가능성에 집중하는 직관형(N) 특성이 뚜렷합니다.",
			report.AxisTF: "논리적 분석보다 감정과 가치에 따라 판단하는 경향이 있어 감정형(F)으로 분류됩니다.",
			report.AxisJP: "계획보다는 즉흥적이고 유연한 태도를 선호하는 인식형(P) 성향이 나타납니다.",
		},
		Keywords: []string{"#감성에세이", "#여행일기", "#일상의발견"},
		Quotes: []report.Quote{
			{
				Quote:            "가장 특별한 순간은 대개 계획하지 않았던 곳에서 찾아온다.",
				QuoteExplanation: "작가의 인생 철학을 잘 보여주는 문장으로, 예상치 못한 상황에서 발견하는 소중한 가치를 강조합니다.",
				SourceLink:       "https://blog.example.com/unexpected-moments",
			},
			{
				Quote:            "우리는 떠나기 위해 살지 않고, 살기 위해 떠난다.",
				QuoteExplanation: "여행의 진정한 의미에 대한 작가의 통찰력 있는 관점을 담고 있습니다.",
				SourceLink:       "https://blog.example.com/travel-philosophy",
			},
		},
		ContentRatio: map[report.Category]report.Percent{
			report.CategoryExpertise:       15,
			report.CategoryEssay:           45,
			report.CategoryTravel:          30,
			report.CategorySelfImprovement: 10,
		},
	}
}
