package model

// Vote 里程碑投票计票，按 (项目, 里程碑) 存储
type Vote struct {
	Yay        Balance  `json:"yay"`
	Nay        Balance  `json:"nay"`
	RoundKey   RoundKey `json:"round_key"`
	Finalised  bool     `json:"finalised"`
	IsApproved bool     `json:"is_approved"`
}

// NoConfidenceVote 不信任投票计票，按项目存储
type NoConfidenceVote struct {
	Yay       Balance  `json:"yay"`
	Nay       Balance  `json:"nay"`
	RoundKey  RoundKey `json:"round_key"`
	Finalised bool     `json:"finalised"`
	Passed    bool     `json:"passed"`
}
