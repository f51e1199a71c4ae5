package ledger

import "errors"

// Errors returned by ledger operations. Callers match them with errors.Is;
// returned errors usually wrap one of these with detail.
var (
	ErrMemberNotRegistered   = errors.New("ledger: member not registered")
	ErrDuplicateMember       = errors.New("ledger: duplicate member")
	ErrInvalidMembers        = errors.New("ledger: invalid members")
	ErrInvalidWeights        = errors.New("ledger: invalid weights")
	ErrInvalidBillingPeriod  = errors.New("ledger: invalid billing period")
	ErrPotDoesNotExist       = errors.New("ledger: pot does not exist")
	ErrNotMember             = errors.New("ledger: not a member of the pot")
	ErrNothingToCut          = errors.New("ledger: nothing to cut")
	ErrBatchDoesNotExist     = errors.New("ledger: batch does not exist")
	ErrNoDebtToPay           = errors.New("ledger: no debt to pay")
	ErrNoCreditToClaim       = errors.New("ledger: no credit to claim")
	ErrInsufficientFundsSent = errors.New("ledger: insufficient funds sent")
	ErrInsufficientLiquidity = errors.New("ledger: insufficient liquidity")
	ErrConversionFailed      = errors.New("ledger: conversion failed")

	ErrInvalidAccount = errors.New("ledger: invalid account")
	ErrInvalidAmount  = errors.New("ledger: invalid amount")
	ErrPotInactive    = errors.New("ledger: pot is inactive")
	ErrPotNotSettled  = errors.New("ledger: pot has unsettled balances")
	ErrReentrantCall  = errors.New("ledger: reentrant call")

	// ErrBalanceOverflow is returned by Cut when a balance would no longer
	// fit in 256 bits. The pot is left as it was.
	ErrBalanceOverflow = errors.New("ledger: balance overflows 256 bits")
)
