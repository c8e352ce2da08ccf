package engine

import (
	"fmt"
)

// Kind 错误类别
type Kind int

const (
	KindValidation    Kind = iota + 1 // 参数校验失败
	KindAuthorization                 // 调用方无权限
	KindLifecycle                     // 状态不允许该操作
	KindResource                      // 溢出、余额不足或存储故障
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindLifecycle:
		return "lifecycle"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// ErrorCode 错误码
type ErrorCode int

const (
	ErrorCodeInvalid ErrorCode = iota

	// 校验
	ErrorCodeInvalidParam
	ErrorCodeInvalidString
	ErrorCodeMilestonesNotEqual100
	ErrorCodeInvalidAmount
	ErrorCodeInvalidRoundWindow
	ErrorCodeTooManyProjects
	ErrorCodeWhitelistCapExceeded

	// 权限
	ErrorCodeNotAuthority
	ErrorCodeUserIsNotInitiator
	ErrorCodeIdentityNeeded
	ErrorCodeOnlyContributorsCanVote
	ErrorCodeNotWhitelisted

	// 生命周期
	ErrorCodeProjectNotFound
	ErrorCodeRoundNotFound
	ErrorCodeMilestoneNotFound
	ErrorCodeNoActiveRound
	ErrorCodeWrongRoundType
	ErrorCodeProjectNotInRound
	ErrorCodeRoundNotEnded
	ErrorCodeRoundStarted
	ErrorCodeRoundCanceled
	ErrorCodeProjectNotApproved
	ErrorCodeProjectAlreadyApproved
	ErrorCodeProjectCancelled
	ErrorCodeMilestoneAlreadyApproved
	ErrorCodeMilestoneNotSubmitted
	ErrorCodeMilestoneVotingInProgress
	ErrorCodeVotingNotDecided
	ErrorCodeVoteAlreadyExists
	ErrorCodeVoteFinalised
	ErrorCodeNoConfidenceRoundLive
	ErrorCodeNoWhitelist
	ErrorCodeNothingToWithdraw

	// 资源
	ErrorCodeOverflow
	ErrorCodeInsufficientEscrow
	ErrorCodeLedger
	ErrorCodeStorage
)

// ErrorCodes 错误码说明
var ErrorCodes = map[ErrorCode]string{
	ErrorCodeInvalid:                   "invalid error",
	ErrorCodeInvalidParam:              "invalid parameter",
	ErrorCodeInvalidString:             "string field empty or too long",
	ErrorCodeMilestonesNotEqual100:     "milestone percentages must sum to 100",
	ErrorCodeInvalidAmount:             "amount must be greater than zero",
	ErrorCodeInvalidRoundWindow:        "invalid round window",
	ErrorCodeTooManyProjects:           "too many projects in round",
	ErrorCodeWhitelistCapExceeded:      "contribution exceeds whitelist cap",
	ErrorCodeNotAuthority:              "caller is not the authority",
	ErrorCodeUserIsNotInitiator:        "caller is not the project initiator",
	ErrorCodeIdentityNeeded:            "identity attestation required",
	ErrorCodeOnlyContributorsCanVote:   "only contributors can vote",
	ErrorCodeNotWhitelisted:            "contributor is not whitelisted",
	ErrorCodeProjectNotFound:           "project not found",
	ErrorCodeRoundNotFound:             "round not found",
	ErrorCodeMilestoneNotFound:         "milestone not found",
	ErrorCodeNoActiveRound:             "no active round",
	ErrorCodeWrongRoundType:            "wrong round type",
	ErrorCodeProjectNotInRound:         "project is not part of the round",
	ErrorCodeRoundNotEnded:             "round has not ended",
	ErrorCodeRoundStarted:              "round has already started",
	ErrorCodeRoundCanceled:             "round is canceled",
	ErrorCodeProjectNotApproved:        "project is not approved for funding",
	ErrorCodeProjectAlreadyApproved:    "project is already approved",
	ErrorCodeProjectCancelled:          "project is cancelled",
	ErrorCodeMilestoneAlreadyApproved:  "milestone is already approved",
	ErrorCodeMilestoneNotSubmitted:     "milestone has not been submitted for voting",
	ErrorCodeMilestoneVotingInProgress: "milestone voting in progress",
	ErrorCodeVotingNotDecided:          "voting window open and outcome undecided",
	ErrorCodeVoteAlreadyExists:         "vote already exists",
	ErrorCodeVoteFinalised:             "vote already finalised",
	ErrorCodeNoConfidenceRoundLive:     "no-confidence round already live",
	ErrorCodeNoWhitelist:               "project has no whitelist",
	ErrorCodeNothingToWithdraw:         "nothing to withdraw",
	ErrorCodeOverflow:                  "arithmetic overflow",
	ErrorCodeInsufficientEscrow:        "insufficient escrow balance",
	ErrorCodeLedger:                    "ledger transfer failed",
	ErrorCodeStorage:                   "storage failure",
}

// Kind 错误码所属类别
func (c ErrorCode) Kind() Kind {
	switch {
	case c >= ErrorCodeInvalidParam && c <= ErrorCodeWhitelistCapExceeded:
		return KindValidation
	case c >= ErrorCodeNotAuthority && c <= ErrorCodeNotWhitelisted:
		return KindAuthorization
	case c >= ErrorCodeProjectNotFound && c <= ErrorCodeNothingToWithdraw:
		return KindLifecycle
	case c >= ErrorCodeOverflow && c <= ErrorCodeStorage:
		return KindResource
	default:
		return 0
	}
}

// NotFound 是否为记录不存在
func (c ErrorCode) NotFound() bool {
	switch c {
	case ErrorCodeProjectNotFound, ErrorCodeRoundNotFound, ErrorCodeMilestoneNotFound:
		return true
	}
	return false
}

func (c ErrorCode) String() string {
	if s, ok := ErrorCodes[c]; ok {
		return s
	}
	return fmt.Sprintf("error code %d", int(c))
}

// Error 引擎返回的类型化错误，errors.Is 按错误码匹配
type Error struct {
	Code    ErrorCode
	Context string
	cause   error
}

func (e *Error) Error() string {
	if e.Context == "" {
		return e.Code.String()
	}
	return e.Code.String() + ": " + e.Context
}

// Is 错误码相同即匹配
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Kind 错误类别
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// 供 errors.Is 比较的哨兵错误
var (
	ErrInvalidParam              = &Error{Code: ErrorCodeInvalidParam}
	ErrInvalidString             = &Error{Code: ErrorCodeInvalidString}
	ErrMilestonesNotEqual100     = &Error{Code: ErrorCodeMilestonesNotEqual100}
	ErrInvalidAmount             = &Error{Code: ErrorCodeInvalidAmount}
	ErrInvalidRoundWindow        = &Error{Code: ErrorCodeInvalidRoundWindow}
	ErrTooManyProjects           = &Error{Code: ErrorCodeTooManyProjects}
	ErrWhitelistCapExceeded      = &Error{Code: ErrorCodeWhitelistCapExceeded}
	ErrNotAuthority              = &Error{Code: ErrorCodeNotAuthority}
	ErrUserIsNotInitiator        = &Error{Code: ErrorCodeUserIsNotInitiator}
	ErrIdentityNeeded            = &Error{Code: ErrorCodeIdentityNeeded}
	ErrOnlyContributorsCanVote   = &Error{Code: ErrorCodeOnlyContributorsCanVote}
	ErrNotWhitelisted            = &Error{Code: ErrorCodeNotWhitelisted}
	ErrProjectNotFound           = &Error{Code: ErrorCodeProjectNotFound}
	ErrRoundNotFound             = &Error{Code: ErrorCodeRoundNotFound}
	ErrMilestoneNotFound         = &Error{Code: ErrorCodeMilestoneNotFound}
	ErrNoActiveRound             = &Error{Code: ErrorCodeNoActiveRound}
	ErrWrongRoundType            = &Error{Code: ErrorCodeWrongRoundType}
	ErrProjectNotInRound         = &Error{Code: ErrorCodeProjectNotInRound}
	ErrRoundNotEnded             = &Error{Code: ErrorCodeRoundNotEnded}
	ErrRoundStarted              = &Error{Code: ErrorCodeRoundStarted}
	ErrRoundCanceled             = &Error{Code: ErrorCodeRoundCanceled}
	ErrProjectNotApproved        = &Error{Code: ErrorCodeProjectNotApproved}
	ErrProjectAlreadyApproved    = &Error{Code: ErrorCodeProjectAlreadyApproved}
	ErrProjectCancelled          = &Error{Code: ErrorCodeProjectCancelled}
	ErrMilestoneAlreadyApproved  = &Error{Code: ErrorCodeMilestoneAlreadyApproved}
	ErrMilestoneNotSubmitted     = &Error{Code: ErrorCodeMilestoneNotSubmitted}
	ErrMilestoneVotingInProgress = &Error{Code: ErrorCodeMilestoneVotingInProgress}
	ErrVotingNotDecided          = &Error{Code: ErrorCodeVotingNotDecided}
	ErrVoteAlreadyExists         = &Error{Code: ErrorCodeVoteAlreadyExists}
	ErrVoteFinalised             = &Error{Code: ErrorCodeVoteFinalised}
	ErrNoConfidenceRoundLive     = &Error{Code: ErrorCodeNoConfidenceRoundLive}
	ErrNoWhitelist               = &Error{Code: ErrorCodeNoWhitelist}
	ErrNothingToWithdraw         = &Error{Code: ErrorCodeNothingToWithdraw}
	ErrOverflow                  = &Error{Code: ErrorCodeOverflow}
	ErrInsufficientEscrow        = &Error{Code: ErrorCodeInsufficientEscrow}
	ErrLedger                    = &Error{Code: ErrorCodeLedger}
	ErrStorage                   = &Error{Code: ErrorCodeStorage}
)

// fail 以哨兵错误码构造带上下文的错误
func fail(sentinel *Error, format string, args ...interface{}) *Error {
	return &Error{Code: sentinel.Code, Context: fmt.Sprintf(format, args...)}
}

// wrap 包装底层故障
func wrap(sentinel *Error, err error) *Error {
	return &Error{Code: sentinel.Code, Context: err.Error(), cause: err}
}
