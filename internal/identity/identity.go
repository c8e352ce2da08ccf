package identity

import (
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/hbulgarini/imbue/internal/model"
)

// Judgement 身份认证结论
type Judgement uint8

const (
	JudgementUnknown Judgement = iota
	JudgementFeePaid
	JudgementReasonable
	JudgementKnownGood
	JudgementOutOfDate
	JudgementLowQuality
	JudgementErroneous
)

var judgementNames = map[Judgement]string{
	JudgementUnknown:    "unknown",
	JudgementFeePaid:    "fee_paid",
	JudgementReasonable: "reasonable",
	JudgementKnownGood:  "known_good",
	JudgementOutOfDate:  "out_of_date",
	JudgementLowQuality: "low_quality",
	JudgementErroneous:  "erroneous",
}

func (j Judgement) String() string {
	if s, ok := judgementNames[j]; ok {
		return s
	}
	return "unknown"
}

// ParseJudgement 解析认证结论名称
func ParseJudgement(s string) (Judgement, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for j, name := range judgementNames {
		if name == s {
			return j, nil
		}
	}
	return 0, errors.Errorf("unknown judgement %q", s)
}

// Sufficient 只有 Reasonable 与 KnownGood 视为有效认证
func (j Judgement) Sufficient() bool {
	return j == JudgementReasonable || j == JudgementKnownGood
}

// Provider 身份认证适配器
type Provider interface {
	HasSufficientAttestation(account model.AccountID) bool
}

// Registry 内存身份登记表，每个账户可有多个认证人的结论
type Registry struct {
	mu         sync.RWMutex
	judgements map[model.AccountID][]Judgement
}

// NewRegistry 创建空登记表
func NewRegistry() *Registry {
	return &Registry{judgements: make(map[model.AccountID][]Judgement)}
}

// AddJudgement 追加账户的一条认证结论
func (r *Registry) AddJudgement(account model.AccountID, j Judgement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.judgements[account] = append(r.judgements[account], j)
}

// HasSufficientAttestation 任一结论有效即通过
func (r *Registry) HasSufficientAttestation(account model.AccountID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, j := range r.judgements[account] {
		if j.Sufficient() {
			return true
		}
	}
	return false
}
