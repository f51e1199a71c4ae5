package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/cakepot/internal/ledger"
	"github.com/mmynk/cakepot/internal/lock"
	"github.com/mmynk/cakepot/internal/money"
)

// errorCodes maps ledger sentinels to the Connect code clients see.
var errorCodes = []struct {
	err  error
	code connect.Code
}{
	{ledger.ErrPotDoesNotExist, connect.CodeNotFound},
	{ledger.ErrBatchDoesNotExist, connect.CodeNotFound},
	{ledger.ErrMemberNotRegistered, connect.CodeNotFound},

	{ledger.ErrDuplicateMember, connect.CodeInvalidArgument},
	{ledger.ErrInvalidMembers, connect.CodeInvalidArgument},
	{ledger.ErrInvalidWeights, connect.CodeInvalidArgument},
	{ledger.ErrInvalidBillingPeriod, connect.CodeInvalidArgument},
	{ledger.ErrInvalidAccount, connect.CodeInvalidArgument},
	{ledger.ErrInvalidAmount, connect.CodeInvalidArgument},
	{money.ErrInvalidAmount, connect.CodeInvalidArgument},

	{ledger.ErrNotMember, connect.CodePermissionDenied},

	{ledger.ErrNothingToCut, connect.CodeFailedPrecondition},
	{ledger.ErrNoDebtToPay, connect.CodeFailedPrecondition},
	{ledger.ErrNoCreditToClaim, connect.CodeFailedPrecondition},
	{ledger.ErrInsufficientFundsSent, connect.CodeFailedPrecondition},
	{ledger.ErrInsufficientLiquidity, connect.CodeFailedPrecondition},
	{ledger.ErrConversionFailed, connect.CodeFailedPrecondition},
	{ledger.ErrPotInactive, connect.CodeFailedPrecondition},
	{ledger.ErrPotNotSettled, connect.CodeFailedPrecondition},
	{ledger.ErrBalanceOverflow, connect.CodeFailedPrecondition},

	{ledger.ErrReentrantCall, connect.CodeAborted},
	{lock.ErrLockFailed, connect.CodeUnavailable},
}

// toConnectError wraps err with the Connect code matching its ledger kind.
// Unknown errors become CodeInternal.
func toConnectError(err error) error {
	for _, m := range errorCodes {
		if errors.Is(err, m.err) {
			return connect.NewError(m.code, err)
		}
	}
	return connect.NewError(connect.CodeInternal, err)
}
