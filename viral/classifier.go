// Package viral 은 참여 지표를 바탕으로 콘텐츠의 바이럴 여부를 판정한다.
package viral

import (
	"math"
	"time"

	"viral-recipes/config"
	"viral-recipes/models"
)

// DefaultMinSignals 는 바이럴 판정에 필요한 최소 신호 수다.
// 단일 지표는 봇 트래픽 등으로 쉽게 부풀려지므로 두 개 이상의 독립 신호를 요구한다.
const DefaultMinSignals = 2

// 신뢰도 가중치. 합이 1 이다.
var signalWeights = map[models.Signal]float64{
	models.SignalHighViews:  0.30,
	models.SignalHighLikes:  0.20,
	models.SignalHighShares: 0.25,
	models.SignalHighGrowth: 0.25,
}

// Thresholds 는 신호별 임계값이다. 0 은 해당 신호를 항상 발생시킨다.
type Thresholds struct {
	Views      int64
	Likes      int64
	Shares     int64
	GrowthRate float64
	TimeWindow time.Duration
	MinSignals int
}

func ThresholdsFromConfig(c config.ViralConfig) Thresholds {
	return Thresholds{
		Views:      c.ViewsThreshold,
		Likes:      c.LikesThreshold,
		Shares:     c.SharesThreshold,
		GrowthRate: c.GrowthRate,
		TimeWindow: c.TimeWindow(),
		MinSignals: c.MinSignals,
	}
}

// Classify 는 content 를 임계값과 비교해 판정 결과를 반환한다.
// 입출력이나 상태 변경이 없는 순수 함수다.
func Classify(content models.RawContent, th Thresholds) models.ViralVerdict {
	minSignals := th.MinSignals
	if minSignals <= 0 {
		minSignals = DefaultMinSignals
	}

	growth, hasBaseline := GrowthRate(content)

	var (
		signals  models.SignalSet
		weighted float64
	)
	for _, s := range models.AllSignals {
		var strength float64
		var ok bool
		switch s {
		case models.SignalHighViews:
			strength, ok = countStrength(content.Metrics.Views, th.Views)
		case models.SignalHighLikes:
			strength, ok = countStrength(content.Metrics.Likes, th.Likes)
		case models.SignalHighShares:
			strength, ok = countStrength(content.Metrics.Shares, th.Shares)
		case models.SignalHighGrowth:
			if hasBaseline {
				strength, ok = rateStrength(growth, th.GrowthRate)
			}
		}
		if !ok {
			continue
		}
		signals = append(signals, s)
		weighted += signalWeights[s] * strength
	}

	return models.ViralVerdict{
		Content:    content,
		IsViral:    len(signals) >= minSignals,
		Signals:    signals,
		GrowthRate: growth,
		Confidence: math.Min(weighted/totalWeight(), 1.0),
	}
}

// GrowthRate 는 기준 관측값 대비 조회수 변화율(%)을 계산한다.
// 기준값이 없거나 0 이면 (0, false) 를 반환한다.
func GrowthRate(content models.RawContent) (float64, bool) {
	b := content.Baseline
	if b == nil || b.Metrics.Views <= 0 {
		return 0, false
	}
	cur := float64(content.Metrics.Views)
	base := float64(b.Metrics.Views)
	return (cur - base) / base * 100, true
}

// countStrength returns the strength in [0.5,1] of a triggered count predicate.
func countStrength(value, threshold int64) (float64, bool) {
	if threshold <= 0 {
		return 1, true
	}
	if value <= 0 || value < threshold {
		return 0, false
	}
	return 0.5 + 0.5*(1-float64(threshold)/float64(value)), true
}

func rateStrength(value, threshold float64) (float64, bool) {
	if threshold <= 0 {
		return 1, true
	}
	if value <= 0 || value < threshold {
		return 0, false
	}
	return 0.5 + 0.5*(1-threshold/value), true
}

func totalWeight() float64 {
	var sum float64
	for _, w := range signalWeights {
		sum += w
	}
	return sum
}
