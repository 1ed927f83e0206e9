package scene_rank_core

import "math"

// ExpectedComparisons 预估比较次数 n*log2(n)，只是近似值而非上界
func ExpectedComparisons(n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(n) * math.Log2(float64(n))
}

// Progress 会话开始时按歌曲数固定预估值。
// 只统计真正等待用户输入的比较，账本条数即已完成数。
type Progress struct {
	expected float64
}

func NewProgress(songCount int) *Progress {
	return &Progress{expected: ExpectedComparisons(songCount)}
}

func (p *Progress) Expected() float64 {
	return p.expected
}

// Percent 四舍五入的完成百分比，超出预估时截断为 100
func (p *Progress) Percent(resolved int) int {
	if p.expected <= 0 {
		return 100
	}
	if resolved <= 0 {
		return 0
	}
	percent := int(math.Round(float64(resolved) / p.expected * 100))
	if percent > 100 {
		return 100
	}
	return percent
}
