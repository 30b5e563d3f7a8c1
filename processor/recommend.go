package processor

import (
	"fmt"

	"viral-recipes/models"
)

// ViralPriorityConfidence 이상이면 우선순위가 viral 이다.
const ViralPriorityConfidence = 0.8

// Recommend 는 신뢰도로 게시 여부와 우선순위를 정한다.
// publish 는 minConfidence 이상일 때만 true 이고, 그 미만은 AUTO 모드에서도 검수 대기열로 간다.
func Recommend(confidence, minConfidence float64) models.PublishRecommendation {
	rec := models.PublishRecommendation{
		Publish:  confidence >= minConfidence,
		Priority: models.PriorityNormal,
	}
	switch {
	case confidence >= ViralPriorityConfidence:
		rec.Priority = models.PriorityViral
	case confidence >= minConfidence:
		rec.Priority = models.PriorityHighlight
	}

	if rec.Publish {
		rec.Reason = fmt.Sprintf("confidence %.2f >= %.2f", confidence, minConfidence)
	} else {
		rec.Reason = fmt.Sprintf("confidence %.2f below %.2f, needs review", confidence, minConfidence)
	}
	return rec
}
