package models

// ViralVerdict 는 RawContent 하나에 대한 분류 결과이다.
type ViralVerdict struct {
	Content    RawContent `json:"content"`
	IsViral    bool       `json:"is_viral"`
	Signals    SignalSet  `json:"signals"`
	GrowthRate float64    `json:"growth_rate"`
	Confidence float64    `json:"confidence"`
}
