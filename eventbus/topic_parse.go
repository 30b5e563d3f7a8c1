package eventbus

import (
	"strings"
	"time"
)

// ParseRetryDelayFromTopicName 은 "<base>.retry.<duration>" 토픽 이름에서 지연 시간을 읽는다.
// 예: "viral-recipes.recipe.events.retry.1m0s" -> 1m0s
func ParseRetryDelayFromTopicName(name string) (time.Duration, bool) {
	idx := strings.LastIndex(name, ".retry.")
	if idx == -1 || idx+7 >= len(name) {
		return 0, false
	}
	d, err := time.ParseDuration(name[idx+7:])
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
