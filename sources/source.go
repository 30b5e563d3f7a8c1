// Package sources 는 바이럴 후보 콘텐츠를 가져오는 폴링 소스들이다.
package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"viral-recipes/models"
)

// ErrSourceUnavailable 은 소스가 이번 폴링에 응답하지 못했음을 뜻한다.
// 소스별 원인은 이 에러를 감싸서 반환한다.
var ErrSourceUnavailable = errors.New("source unavailable")

// Source 는 원본 콘텐츠 공급자다. Poll 은 since 이후 관측된 게시물을 반환하며
// 반환한 값을 이후에 수정하지 않는다.
type Source interface {
	Name() string
	Poll(ctx context.Context, since time.Time) ([]models.RawContent, error)
}

func unavailable(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, name, err)
}
