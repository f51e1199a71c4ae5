package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"connectrpc.com/connect"
	"github.com/holiman/uint256"

	"github.com/mmynk/cakepot/internal/ledger"
	"github.com/mmynk/cakepot/internal/middleware"
	"github.com/mmynk/cakepot/internal/money"
	"github.com/mmynk/cakepot/pkg/api"
)

// maxBillingPeriodSeconds is the longest period a time.Duration can hold.
const maxBillingPeriodSeconds = int64(math.MaxInt64 / int64(time.Second))

// errNoCaller is returned when a mutating call reaches the service without
// an authenticated account.
var errNoCaller = errors.New("authenticated caller required")

// LedgerService implements the Connect LedgerService on top of the ledger.
type LedgerService struct {
	api.UnimplementedLedgerServiceHandler
	ledger *ledger.Ledger
}

// NewLedgerService creates a new LedgerService backed by l.
func NewLedgerService(l *ledger.Ledger) *LedgerService {
	return &LedgerService{ledger: l}
}

// caller returns the authenticated account or an Unauthenticated error.
func caller(ctx context.Context) (string, error) {
	account := middleware.GetAccount(ctx)
	if account == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errNoCaller)
	}
	return account, nil
}

// Register registers the calling account as a member.
func (s *LedgerService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	account, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("Register request received", "account", account)

	member, err := s.ledger.Register(ctx, account)
	if err != nil {
		slog.Error("Register failed", "account", account, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Member registered", "member_id", member.ID, "account", member.Account)

	return connect.NewResponse(&api.RegisterResponse{Member: toAPIMember(member)}), nil
}

// CreatePot opens a new pot. Any authenticated account may create a pot for
// registered members.
func (s *LedgerService) CreatePot(ctx context.Context, req *connect.Request[api.CreatePotRequest]) (*connect.Response[api.CreatePotResponse], error) {
	account, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreatePot request received",
		"account", account,
		"denomination", req.Msg.DenominationAsset,
		"members_count", len(req.Msg.MemberAccounts),
		"interest_rate_bps", req.Msg.InterestRateBps,
		"billing_period_seconds", req.Msg.BillingPeriodSeconds,
	)

	// Out of range periods stay zero and are rejected by the ledger in order
	var period time.Duration
	if secs := req.Msg.BillingPeriodSeconds; secs > 0 && secs <= maxBillingPeriodSeconds {
		period = time.Duration(secs) * time.Second
	}

	pot, err := s.ledger.CreatePot(ctx, ledger.CreatePotParams{
		DenominationAsset: req.Msg.DenominationAsset,
		MemberAccounts:    req.Msg.MemberAccounts,
		WeightsBps:        req.Msg.WeightsBps,
		InterestRateBps:   req.Msg.InterestRateBps,
		BillingPeriod:     period,
	})
	if err != nil {
		slog.Error("CreatePot failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Pot created", "pot_id", pot.ID, "members_count", len(pot.MemberIDs))

	return connect.NewResponse(&api.CreatePotResponse{Pot: toAPIPot(pot)}), nil
}

// AddBatch queues an expense batch against a pot.
func (s *LedgerService) AddBatch(ctx context.Context, req *connect.Request[api.AddBatchRequest]) (*connect.Response[api.AddBatchResponse], error) {
	account, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("AddBatch request received",
		"account", account,
		"pot_id", req.Msg.PotID,
		"payers_count", len(req.Msg.Payers),
		"override", len(req.Msg.WeightsOverride) > 0,
	)

	amounts := make([]*uint256.Int, len(req.Msg.Amounts))
	for i, a := range req.Msg.Amounts {
		v, err := money.ParseBaseUnits(a)
		if err != nil {
			return nil, toConnectError(fmt.Errorf("%w: amount %d: %v", ledger.ErrInvalidAmount, i, err))
		}
		amounts[i] = v
	}

	batch, err := s.ledger.AddBatch(ctx, account, req.Msg.PotID, ledger.AddBatchParams{
		WeightsOverride: req.Msg.WeightsOverride,
		Payers:          req.Msg.Payers,
		Amounts:         amounts,
	})
	if err != nil {
		slog.Error("AddBatch failed", "pot_id", req.Msg.PotID, "error", err)
		return nil, toConnectError(err)
	}

	pot, err := s.ledger.GetPot(ctx, req.Msg.PotID)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Batch added", "pot_id", batch.PotID, "batch_id", batch.ID)

	return connect.NewResponse(&api.AddBatchResponse{Batch: toAPIBatch(batch, pot.MemberIDs)}), nil
}

// Cut applies pending batches and any due interest.
func (s *LedgerService) Cut(ctx context.Context, req *connect.Request[api.CutRequest]) (*connect.Response[api.CutResponse], error) {
	account, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("Cut request received", "account", account, "pot_id", req.Msg.PotID)

	result, err := s.ledger.Cut(ctx, account, req.Msg.PotID)
	if err != nil {
		slog.Error("Cut failed", "pot_id", req.Msg.PotID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Cut successful",
		"pot_id", req.Msg.PotID,
		"first_batch_id", result.FirstBatchID,
		"last_batch_id", result.LastBatchID,
		"periods_charged", result.PeriodsCharged,
		"remaining", result.Remaining,
	)

	return connect.NewResponse(&api.CutResponse{
		Pot:            toAPIPot(result.Pot),
		FirstBatchID:   result.FirstBatchID,
		LastBatchID:    result.LastBatchID,
		PeriodsCharged: result.PeriodsCharged,
		Residue:        money.BigString(result.Residue),
		Remaining:      result.Remaining,
	}), nil
}

// PayDebt settles the caller's debt with the funds sent.
func (s *LedgerService) PayDebt(ctx context.Context, req *connect.Request[api.PayDebtRequest]) (*connect.Response[api.PayDebtResponse], error) {
	account, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("PayDebt request received",
		"account", account,
		"pot_id", req.Msg.PotID,
		"asset", req.Msg.Asset,
		"amount_sent", req.Msg.AmountSent,
	)

	sent, err := money.ParseBaseUnits(req.Msg.AmountSent)
	if err != nil {
		return nil, toConnectError(fmt.Errorf("%w: %v", ledger.ErrInvalidAmount, err))
	}

	result, err := s.ledger.PayDebt(ctx, account, req.Msg.PotID, req.Msg.Asset, sent)
	if err != nil {
		slog.Error("PayDebt failed", "pot_id", req.Msg.PotID, "account", account, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Debt paid",
		"pot_id", req.Msg.PotID,
		"settlement_id", result.Settlement.ID,
		"denomination_amount", money.UintString(result.Settlement.DenominationAmount),
	)

	return connect.NewResponse(&api.PayDebtResponse{
		Settlement: toAPISettlement(result.Settlement),
		Liquidity:  money.UintString(result.Liquidity),
	}), nil
}

// ClaimCredit pays out the caller's credit.
func (s *LedgerService) ClaimCredit(ctx context.Context, req *connect.Request[api.ClaimCreditRequest]) (*connect.Response[api.ClaimCreditResponse], error) {
	account, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ClaimCredit request received",
		"account", account,
		"pot_id", req.Msg.PotID,
		"payout_asset", req.Msg.PayoutAsset,
		"min_payout", req.Msg.MinPayout,
	)

	minPayout, err := money.ParseBaseUnits(req.Msg.MinPayout)
	if err != nil {
		return nil, toConnectError(fmt.Errorf("%w: %v", ledger.ErrInvalidAmount, err))
	}

	result, err := s.ledger.ClaimCredit(ctx, account, req.Msg.PotID, req.Msg.PayoutAsset, minPayout)
	if err != nil {
		slog.Error("ClaimCredit failed", "pot_id", req.Msg.PotID, "account", account, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Credit claimed",
		"pot_id", req.Msg.PotID,
		"settlement_id", result.Settlement.ID,
		"asset_amount", money.UintString(result.Settlement.AssetAmount),
	)

	return connect.NewResponse(&api.ClaimCreditResponse{
		Settlement: toAPISettlement(result.Settlement),
		Liquidity:  money.UintString(result.Liquidity),
	}), nil
}

// DeactivatePot closes a settled pot to new batches.
func (s *LedgerService) DeactivatePot(ctx context.Context, req *connect.Request[api.DeactivatePotRequest]) (*connect.Response[api.DeactivatePotResponse], error) {
	account, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeactivatePot request received", "account", account, "pot_id", req.Msg.PotID)

	pot, err := s.ledger.DeactivatePot(ctx, account, req.Msg.PotID)
	if err != nil {
		slog.Error("DeactivatePot failed", "pot_id", req.Msg.PotID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Pot deactivated", "pot_id", pot.ID)

	return connect.NewResponse(&api.DeactivatePotResponse{Pot: toAPIPot(pot)}), nil
}

// GetPot retrieves a pot by ID.
func (s *LedgerService) GetPot(ctx context.Context, req *connect.Request[api.GetPotRequest]) (*connect.Response[api.GetPotResponse], error) {
	slog.Info("GetPot request received", "pot_id", req.Msg.PotID)

	pot, err := s.ledger.GetPot(ctx, req.Msg.PotID)
	if err != nil {
		slog.Error("GetPot failed", "pot_id", req.Msg.PotID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetPotResponse{Pot: toAPIPot(pot)}), nil
}

// GetBalance returns one member's balance in a pot.
func (s *LedgerService) GetBalance(ctx context.Context, req *connect.Request[api.GetBalanceRequest]) (*connect.Response[api.GetBalanceResponse], error) {
	slog.Info("GetBalance request received", "pot_id", req.Msg.PotID, "member_id", req.Msg.MemberID)

	balance, err := s.ledger.GetBalance(ctx, req.Msg.PotID, req.Msg.MemberID)
	if err != nil {
		slog.Error("GetBalance failed", "pot_id", req.Msg.PotID, "member_id", req.Msg.MemberID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetBalanceResponse{Balance: toSignedAmount(balance)}), nil
}

// GetBatch retrieves a batch by pot and batch ID.
func (s *LedgerService) GetBatch(ctx context.Context, req *connect.Request[api.GetBatchRequest]) (*connect.Response[api.GetBatchResponse], error) {
	slog.Info("GetBatch request received", "pot_id", req.Msg.PotID, "batch_id", req.Msg.BatchID)

	batch, err := s.ledger.GetBatch(ctx, req.Msg.PotID, req.Msg.BatchID)
	if err != nil {
		slog.Error("GetBatch failed", "pot_id", req.Msg.PotID, "batch_id", req.Msg.BatchID, "error", err)
		return nil, toConnectError(err)
	}

	var memberIDs []int64
	if batch.WeightsOverride != nil {
		pot, err := s.ledger.GetPot(ctx, req.Msg.PotID)
		if err != nil {
			return nil, toConnectError(err)
		}
		memberIDs = pot.MemberIDs
	}

	return connect.NewResponse(&api.GetBatchResponse{Batch: toAPIBatch(batch, memberIDs)}), nil
}

// GetMember looks up a member by account.
func (s *LedgerService) GetMember(ctx context.Context, req *connect.Request[api.GetMemberRequest]) (*connect.Response[api.GetMemberResponse], error) {
	slog.Info("GetMember request received", "account", req.Msg.Account)

	member, err := s.ledger.GetMember(ctx, req.Msg.Account)
	if err != nil {
		slog.Error("GetMember failed", "account", req.Msg.Account, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetMemberResponse{Member: toAPIMember(member)}), nil
}

// ListMemberPots lists the pots a member belongs to.
func (s *LedgerService) ListMemberPots(ctx context.Context, req *connect.Request[api.ListMemberPotsRequest]) (*connect.Response[api.ListMemberPotsResponse], error) {
	slog.Info("ListMemberPots request received", "member_id", req.Msg.MemberID)

	potIDs, err := s.ledger.ListMemberPots(ctx, req.Msg.MemberID)
	if err != nil {
		slog.Error("ListMemberPots failed", "member_id", req.Msg.MemberID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("ListMemberPots successful", "member_id", req.Msg.MemberID, "count", len(potIDs))

	if potIDs == nil {
		potIDs = []int64{}
	}
	return connect.NewResponse(&api.ListMemberPotsResponse{PotIDs: potIDs}), nil
}

// ListSettlements lists a pot's settlements, newest first.
func (s *LedgerService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	slog.Info("ListSettlements request received", "pot_id", req.Msg.PotID)

	settlements, err := s.ledger.ListSettlements(ctx, req.Msg.PotID)
	if err != nil {
		slog.Error("ListSettlements failed", "pot_id", req.Msg.PotID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toAPISettlement(st)
	}

	slog.Info("ListSettlements successful", "pot_id", req.Msg.PotID, "count", len(out))

	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}
