package engine

import (
	"math/bits"

	"github.com/hbulgarini/imbue/internal/model"
)

// mulCmp 比较 a*b 与 c*d，使用128位中间结果
func mulCmp(a, b, c, d uint64) int {
	hi1, lo1 := bits.Mul64(a, b)
	hi2, lo2 := bits.Mul64(c, d)
	switch {
	case hi1 != hi2:
		if hi1 < hi2 {
			return -1
		}
		return 1
	case lo1 < lo2:
		return -1
	case lo1 > lo2:
		return 1
	}
	return 0
}

// tally 一次计票的快照，remaining 为尚未投票的贡献权重
type tally struct {
	yay, nay, remaining uint64
}

func newTally(yay, nay, raised model.Balance) (tally, bool) {
	cast, ok := yay.Add(nay)
	if !ok {
		return tally{}, false
	}
	remaining, _ := raised.Sub(cast)
	return tally{yay: uint64(yay), nay: uint64(nay), remaining: uint64(remaining)}, true
}

// outcome 根据通过条件判断结果是否已确定
//
// passes 对 yay 单调递增、对 nay 单调递减时，剩余权重全投反对仍通过即必然通过，
// 全投赞成仍不通过即必然失败。
func (t tally) outcome(passes func(yay, nay, total uint64) bool, total uint64) (pass, decided bool) {
	current := passes(t.yay, t.nay, total)
	allNay := passes(t.yay, t.nay+t.remaining, total)
	if current && allNay {
		return true, true
	}
	allYay := passes(t.yay+t.remaining, t.nay, total)
	if !allYay {
		return false, true
	}
	return current, false
}

// milestonePasses 参与率达到法定比例且赞成超过批准比例
func (e *Engine) milestonePasses(yay, nay, raised uint64) bool {
	cast := yay + nay
	if mulCmp(cast, 100, raised, e.cfg.MilestoneQuorumPercent) < 0 {
		return false
	}
	return mulCmp(yay, 100, cast, e.cfg.MilestoneApprovalPercent) > 0
}

// noConfidencePasses 有投票且赞成达到通过比例
func (e *Engine) noConfidencePasses(yay, nay, _ uint64) bool {
	cast := yay + nay
	if cast == 0 {
		return false
	}
	return mulCmp(yay, 100, cast, e.cfg.NoConfidencePassPercent) >= 0
}
