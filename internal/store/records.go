package store

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/hbulgarini/imbue/internal/model"
)

const (
	keyProjectCount = "count:project"
	keyRoundCount   = "count:round"
	keyParams       = "params"

	prefixProject      = "project:"
	prefixRound        = "round:"
	prefixVote         = "vote:"
	prefixUserVote     = "uservote:"
	prefixNoConfidence = "nc:"
	prefixNCUserVote   = "ncvote:"
	prefixWhitelist    = "whitelist:"
)

func projectKey(k model.ProjectKey) string {
	return fmt.Sprintf("%s%08x", prefixProject, uint32(k))
}

func roundKey(k model.RoundKey) string {
	return fmt.Sprintf("%s%08x", prefixRound, uint32(k))
}

func voteKey(p model.ProjectKey, m model.MilestoneKey) string {
	return fmt.Sprintf("%s%08x:%08x", prefixVote, uint32(p), uint32(m))
}

func userVoteKey(a model.AccountID, p model.ProjectKey, m model.MilestoneKey, r model.RoundKey) string {
	return fmt.Sprintf("%s%x:%08x:%08x:%08x", prefixUserVote, a[:], uint32(p), uint32(m), uint32(r))
}

func noConfidenceKey(p model.ProjectKey) string {
	return fmt.Sprintf("%s%08x", prefixNoConfidence, uint32(p))
}

func ncUserVoteKey(a model.AccountID, p model.ProjectKey, r model.RoundKey) string {
	return fmt.Sprintf("%s%x:%08x:%08x", prefixNCUserVote, a[:], uint32(p), uint32(r))
}

func whitelistKey(p model.ProjectKey) string {
	return fmt.Sprintf("%s%08x", prefixWhitelist, uint32(p))
}

func (t *Tx) counter(key string) (uint32, error) {
	b, ok, err := t.get(key)
	if err != nil || !ok {
		return 0, err
	}
	if len(b) != 4 {
		return 0, errors.Errorf("corrupt counter %s", key)
	}
	return binary.BigEndian.Uint32(b), nil
}

func (t *Tx) putCounter(key string, n uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	return t.put(key, b[:])
}

// ProjectCount 已创建的项目数量，也是下一个项目编号
func (t *Tx) ProjectCount() (uint32, error) {
	return t.counter(keyProjectCount)
}

// PutProjectCount 写入项目计数
func (t *Tx) PutProjectCount(n uint32) error {
	return t.putCounter(keyProjectCount, n)
}

// RoundCount 已创建的轮次数量，也是下一个轮次编号
func (t *Tx) RoundCount() (uint32, error) {
	return t.counter(keyRoundCount)
}

// PutRoundCount 写入轮次计数
func (t *Tx) PutRoundCount(n uint32) error {
	return t.putCounter(keyRoundCount, n)
}

// Project 读取项目
func (t *Tx) Project(k model.ProjectKey) (model.Project, bool, error) {
	var p model.Project
	ok, err := t.getRecord(projectKey(k), &p)
	return p, ok, err
}

// PutProject 整体替换项目记录
func (t *Tx) PutProject(p model.Project) error {
	return t.putRecord(projectKey(p.Key), p)
}

// Round 读取轮次
func (t *Tx) Round(k model.RoundKey) (model.Round, bool, error) {
	var r model.Round
	ok, err := t.getRecord(roundKey(k), &r)
	return r, ok, err
}

// PutRound 整体替换轮次记录
func (t *Tx) PutRound(r model.Round) error {
	return t.putRecord(roundKey(r.Key), r)
}

// MilestoneVote 读取里程碑计票
func (t *Tx) MilestoneVote(p model.ProjectKey, m model.MilestoneKey) (model.Vote, bool, error) {
	var v model.Vote
	ok, err := t.getRecord(voteKey(p, m), &v)
	return v, ok, err
}

// PutMilestoneVote 写入里程碑计票
func (t *Tx) PutMilestoneVote(p model.ProjectKey, m model.MilestoneKey, v model.Vote) error {
	return t.putRecord(voteKey(p, m), v)
}

// HasUserVote 投票人是否已在该轮为里程碑投票
func (t *Tx) HasUserVote(a model.AccountID, p model.ProjectKey, m model.MilestoneKey, r model.RoundKey) (bool, error) {
	_, ok, err := t.get(userVoteKey(a, p, m, r))
	return ok, err
}

// PutUserVote 记录投票人的里程碑投票方向
func (t *Tx) PutUserVote(a model.AccountID, p model.ProjectKey, m model.MilestoneKey, r model.RoundKey, approve bool) error {
	return t.put(userVoteKey(a, p, m, r), []byte(strconv.FormatBool(approve)))
}

// NoConfidenceVote 读取不信任投票计票
func (t *Tx) NoConfidenceVote(p model.ProjectKey) (model.NoConfidenceVote, bool, error) {
	var v model.NoConfidenceVote
	ok, err := t.getRecord(noConfidenceKey(p), &v)
	return v, ok, err
}

// PutNoConfidenceVote 写入不信任投票计票
func (t *Tx) PutNoConfidenceVote(p model.ProjectKey, v model.NoConfidenceVote) error {
	return t.putRecord(noConfidenceKey(p), v)
}

// ForEachNoConfidenceVote 按项目编号顺序遍历不信任投票计票
func (t *Tx) ForEachNoConfidenceVote(fn func(p model.ProjectKey, v model.NoConfidenceVote) error) error {
	return t.scan(prefixNoConfidence, func(key string, value []byte) error {
		n, err := strconv.ParseUint(key[len(prefixNoConfidence):], 16, 32)
		if err != nil {
			return errors.Wrapf(err, "parse key %s", key)
		}
		var v model.NoConfidenceVote
		if err := Unmarshal(value, &v); err != nil {
			return errors.Wrapf(err, "decode %s", key)
		}
		return fn(model.ProjectKey(n), v)
	})
}

// HasNoConfidenceUserVote 投票人是否已在该不信任轮投票
func (t *Tx) HasNoConfidenceUserVote(a model.AccountID, p model.ProjectKey, r model.RoundKey) (bool, error) {
	_, ok, err := t.get(ncUserVoteKey(a, p, r))
	return ok, err
}

// PutNoConfidenceUserVote 记录不信任投票方向
func (t *Tx) PutNoConfidenceUserVote(a model.AccountID, p model.ProjectKey, r model.RoundKey, isYay bool) error {
	return t.put(ncUserVoteKey(a, p, r), []byte(strconv.FormatBool(isYay)))
}

// Whitelist 读取项目白名单
func (t *Tx) Whitelist(p model.ProjectKey) (model.Whitelist, bool, error) {
	var w model.Whitelist
	ok, err := t.getRecord(whitelistKey(p), &w)
	return w, ok, err
}

// PutWhitelist 写入项目白名单
func (t *Tx) PutWhitelist(w model.Whitelist) error {
	return t.putRecord(whitelistKey(w.ProjectKey), w)
}

// DeleteWhitelist 删除项目白名单
func (t *Tx) DeleteWhitelist(p model.ProjectKey) error {
	return t.del(whitelistKey(p))
}

// Params 读取运行参数
func (t *Tx) Params() (model.Params, bool, error) {
	var p model.Params
	ok, err := t.getRecord(keyParams, &p)
	return p, ok, err
}

// PutParams 写入运行参数
func (t *Tx) PutParams(p model.Params) error {
	return t.putRecord(keyParams, p)
}
