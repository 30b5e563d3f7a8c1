package processor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExtractionIncomplete 는 필수 필드를 추출하지 못해 아이템을 버릴 때 쓴다.
	ErrExtractionIncomplete = errors.New("extraction incomplete")
	// ErrEnrichmentFailure 는 보강 단계 실패(외부 호출 실패, 결과 검증 실패)다.
	ErrEnrichmentFailure = errors.New("enrichment failure")
)

// MissingFieldsError names the required fields that could not be produced.
type MissingFieldsError struct {
	Missing []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s: missing %s", ErrExtractionIncomplete, strings.Join(e.Missing, ", "))
}

func (e *MissingFieldsError) Is(target error) bool { return target == ErrExtractionIncomplete }
