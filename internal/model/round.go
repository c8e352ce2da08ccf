package model

import (
	"strings"

	"github.com/pkg/errors"
)

// RoundType 轮次类型
type RoundType uint8

const (
	RoundTypeContribution RoundType = iota // 募资轮
	RoundTypeVoting                        // 里程碑投票轮
	RoundTypeNoConfidence                  // 不信任投票轮
)

// String 返回轮次类型名称
func (t RoundType) String() string {
	switch t {
	case RoundTypeContribution:
		return "contribution"
	case RoundTypeVoting:
		return "voting"
	case RoundTypeNoConfidence:
		return "no_confidence"
	default:
		return "unknown"
	}
}

// ParseRoundType 解析轮次类型名称
func ParseRoundType(s string) (RoundType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "contribution":
		return RoundTypeContribution, nil
	case "voting":
		return RoundTypeVoting, nil
	case "no_confidence", "noconfidence":
		return RoundTypeNoConfidence, nil
	default:
		return 0, errors.Errorf("unknown round type %q", s)
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (t RoundType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (t *RoundType) UnmarshalText(b []byte) error {
	v, err := ParseRoundType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Round 轮次，窗口为 [Start, End)
type Round struct {
	Key           RoundKey       `json:"key"`
	Start         BlockNumber    `json:"start"`
	End           BlockNumber    `json:"end"`
	ProjectKeys   []ProjectKey   `json:"project_keys"`
	MilestoneKeys []MilestoneKey `json:"milestone_keys,omitempty"`
	Type          RoundType      `json:"round_type"`
	IsCanceled    bool           `json:"is_canceled"`
}

// Clone 深拷贝轮次
func (r Round) Clone() Round {
	c := r
	c.ProjectKeys = append([]ProjectKey(nil), r.ProjectKeys...)
	c.MilestoneKeys = append([]MilestoneKey(nil), r.MilestoneKeys...)
	return c
}

// HasProject 轮次是否包含项目
func (r Round) HasProject(key ProjectKey) bool {
	for _, k := range r.ProjectKeys {
		if k == key {
			return true
		}
	}
	return false
}

// HasMilestone 投票轮是否覆盖里程碑
func (r Round) HasMilestone(key MilestoneKey) bool {
	for _, k := range r.MilestoneKeys {
		if k == key {
			return true
		}
	}
	return false
}

// IsOpenAt 高度是否在窗口内
func (r Round) IsOpenAt(h BlockNumber) bool {
	return r.Start <= h && h < r.End
}

// HasEndedAt 高度是否已越过窗口结束
func (r Round) HasEndedAt(h BlockNumber) bool {
	return h > r.End
}
