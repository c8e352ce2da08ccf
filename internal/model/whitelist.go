package model

import (
	"bytes"
	"sort"
)

// WhitelistEntry 白名单条目，MaxCap 为0表示不限额
type WhitelistEntry struct {
	Account AccountID `json:"account"`
	MaxCap  Balance   `json:"max_cap"`
}

// Whitelist 项目白名单
type Whitelist struct {
	ProjectKey ProjectKey       `json:"project_key"`
	Entries    []WhitelistEntry `json:"entries"`
}

// Lookup 查找账户的白名单条目
func (w Whitelist) Lookup(account AccountID) (WhitelistEntry, bool) {
	for _, e := range w.Entries {
		if e.Account == account {
			return e, true
		}
	}
	return WhitelistEntry{}, false
}

// Merge 合并条目，后出现的条目覆盖已有额度
func (w Whitelist) Merge(entries []WhitelistEntry) Whitelist {
	byAccount := make(map[AccountID]Balance, len(w.Entries)+len(entries))
	for _, e := range w.Entries {
		byAccount[e.Account] = e.MaxCap
	}
	for _, e := range entries {
		byAccount[e.Account] = e.MaxCap
	}

	merged := Whitelist{ProjectKey: w.ProjectKey, Entries: make([]WhitelistEntry, 0, len(byAccount))}
	for account, maxCap := range byAccount {
		merged.Entries = append(merged.Entries, WhitelistEntry{Account: account, MaxCap: maxCap})
	}
	sort.Slice(merged.Entries, func(i, j int) bool {
		return bytes.Compare(merged.Entries[i].Account[:], merged.Entries[j].Account[:]) < 0
	})
	return merged
}
