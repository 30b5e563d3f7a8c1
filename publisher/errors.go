package publisher

import (
	"errors"
	"fmt"
)

// TransientError 는 다시 시도하면 성공할 수 있는 싱크 실패다 (네트워크, 5xx, 429, 회로 차단).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient sink error: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// RejectedError 는 싱크가 레시피를 영구적으로 거부한 경우다. 재시도하지 않는다.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return "rejected by sink: " + e.Reason }

var (
	ErrPendingNotFound = errors.New("pending recipe not found")
	ErrAlreadyDecided  = errors.New("pending recipe already decided")
)

// IsTransient reports whether err (or anything it wraps) is a *TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}
