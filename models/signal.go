package models

import "fmt"

// Signal 은 바이럴 판정에 쓰이는 독립적인 참여 지표 조건이다.
// 새 신호는 상수를 추가하는 방식으로만 확장한다.
type Signal uint8

const (
	SignalHighViews Signal = iota
	SignalHighLikes
	SignalHighShares
	SignalHighGrowth
)

// AllSignals is the canonical evaluation order.
var AllSignals = []Signal{SignalHighViews, SignalHighLikes, SignalHighShares, SignalHighGrowth}

var signalNames = [...]string{
	SignalHighViews:  "high_views",
	SignalHighLikes:  "high_likes",
	SignalHighShares: "high_shares",
	SignalHighGrowth: "high_growth",
}

func (s Signal) String() string {
	if int(s) < len(signalNames) {
		return signalNames[s]
	}
	return fmt.Sprintf("signal(%d)", uint8(s))
}

func (s Signal) MarshalText() ([]byte, error) {
	if int(s) >= len(signalNames) {
		return nil, fmt.Errorf("unknown signal %d", uint8(s))
	}
	return []byte(signalNames[s]), nil
}

func (s *Signal) UnmarshalText(b []byte) error {
	for i, name := range signalNames {
		if name == string(b) {
			*s = Signal(i)
			return nil
		}
	}
	return fmt.Errorf("unknown signal %q", string(b))
}

// SignalSet is an ordered set of distinct signals.
type SignalSet []Signal

func (ss SignalSet) Has(s Signal) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func (ss SignalSet) Strings() []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.String()
	}
	return out
}
