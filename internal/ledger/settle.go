package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/mmynk/cakepot/internal/conversion"
	"github.com/mmynk/cakepot/internal/models"
	"github.com/mmynk/cakepot/internal/money"
	"github.com/mmynk/cakepot/internal/storage"
)

// SettlementResult reports a completed payment or claim.
type SettlementResult struct {
	Settlement *models.Settlement

	// Liquidity is the pot's liquidity after the settlement.
	Liquidity *uint256.Int
}

// PayDebt clears the caller's debt in a pot.
//
// Paying in the denomination asset requires amountSent >= debt. Paying in
// another asset converts amountSent with the debt as the minimum output;
// native pots only accept the native asset. The balance becomes exactly zero.
func (l *Ledger) PayDebt(ctx context.Context, caller string, potID int64, asset string, amountSent *uint256.Int) (result *SettlementResult, err error) {
	defer l.track("pay_debt")(&err)

	if amountSent == nil {
		return nil, fmt.Errorf("%w: missing amount", ErrInvalidAmount)
	}
	asset = normalizeAsset(asset)

	var receipt *conversion.Receipt
	err = l.withPot(ctx, potID, func(ctx context.Context, q storage.Queries) error {
		member, err := lookupMember(ctx, q, caller)
		if err != nil {
			return err
		}
		pot, err := loadPot(ctx, q, potID)
		if err != nil {
			return err
		}
		if !pot.IsMember(member.ID) {
			return fmt.Errorf("%w: member %d, pot %d", ErrNotMember, member.ID, potID)
		}

		balance := pot.Balances[member.ID]
		if balance.Sign() >= 0 {
			return fmt.Errorf("%w: balance %s", ErrNoDebtToPay, balance)
		}
		debt, overflow := uint256.FromBig(new(big.Int).Neg(balance))
		if overflow {
			return fmt.Errorf("%w: debt exceeds 256 bits", ErrInvalidAmount)
		}

		// Work out how much denomination asset the payment delivers
		var received *uint256.Int
		switch {
		case pot.DenominationAsset == models.NativeAsset && asset != models.NativeAsset:
			return fmt.Errorf("%w: native pot requires the native asset, got %s", ErrInsufficientFundsSent, asset)
		case asset == pot.DenominationAsset:
			if amountSent.Lt(debt) {
				return fmt.Errorf("%w: sent %s, debt %s", ErrInsufficientFundsSent, amountSent.Dec(), debt.Dec())
			}
			received = amountSent
		default:
			receipt, err = l.convert(ctx, conversion.Request{
				AssetIn:      asset,
				AssetOut:     pot.DenominationAsset,
				AmountIn:     amountSent,
				MinAmountOut: debt,
			})
			if err != nil {
				return err
			}
			received = receipt.AmountOut
		}

		credited, refund := received, new(uint256.Int)
		if l.cfg.Overpayment == OverpaymentRefund {
			credited = debt
			refund = new(uint256.Int).Sub(received, debt)
		}
		liquidity, overflow := new(uint256.Int).AddOverflow(pot.Liquidity, credited)
		if overflow {
			return fmt.Errorf("%w: liquidity overflows", ErrInvalidAmount)
		}

		pot.Liquidity = liquidity
		balance.SetInt64(0)
		if err := q.UpdatePot(ctx, pot); err != nil {
			return err
		}

		settlement := &models.Settlement{
			PotID:              potID,
			MemberID:           member.ID,
			Direction:          models.SettlementPayment,
			Asset:              asset,
			AssetAmount:        amountSent,
			DenominationAmount: debt,
			Refund:             refund,
			CreatedAt:          l.now(),
		}
		if err := q.CreateSettlement(ctx, settlement); err != nil {
			return err
		}
		result = &SettlementResult{Settlement: settlement, Liquidity: liquidity}

		return l.emit(ctx, q, models.TopicPayment, potID, settlementPayload(settlement, member))
	}, func(ctx context.Context) { l.unwind(ctx, receipt) })
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ClaimCredit pays out the caller's credit from pot liquidity.
//
// With a payout asset other than the denomination, the credit is converted
// and minPayout bounds the conversion output. The balance becomes exactly
// zero and liquidity drops by the credit. The emitted pot.claim event is the
// instruction to transfer the payout to the member.
func (l *Ledger) ClaimCredit(ctx context.Context, caller string, potID int64, payoutAsset string, minPayout *uint256.Int) (result *SettlementResult, err error) {
	defer l.track("claim_credit")(&err)

	var receipt *conversion.Receipt
	err = l.withPot(ctx, potID, func(ctx context.Context, q storage.Queries) error {
		member, err := lookupMember(ctx, q, caller)
		if err != nil {
			return err
		}
		pot, err := loadPot(ctx, q, potID)
		if err != nil {
			return err
		}
		if !pot.IsMember(member.ID) {
			return fmt.Errorf("%w: member %d, pot %d", ErrNotMember, member.ID, potID)
		}

		balance := pot.Balances[member.ID]
		if balance.Sign() <= 0 {
			return fmt.Errorf("%w: balance %s", ErrNoCreditToClaim, balance)
		}
		credit, overflow := uint256.FromBig(balance)
		if overflow || pot.Liquidity.Lt(credit) {
			return fmt.Errorf("%w: credit %s, liquidity %s", ErrInsufficientLiquidity, balance, pot.Liquidity.Dec())
		}

		asset := pot.DenominationAsset
		if payoutAsset != "" {
			asset = normalizeAsset(payoutAsset)
		}
		payout := credit
		if asset != pot.DenominationAsset {
			receipt, err = l.convert(ctx, conversion.Request{
				AssetIn:      pot.DenominationAsset,
				AssetOut:     asset,
				AmountIn:     credit,
				MinAmountOut: minPayout,
			})
			if err != nil {
				return err
			}
			payout = receipt.AmountOut
		}

		pot.Liquidity = new(uint256.Int).Sub(pot.Liquidity, credit)
		balance.SetInt64(0)
		if err := q.UpdatePot(ctx, pot); err != nil {
			return err
		}

		settlement := &models.Settlement{
			PotID:              potID,
			MemberID:           member.ID,
			Direction:          models.SettlementClaim,
			Asset:              asset,
			AssetAmount:        payout,
			DenominationAmount: credit,
			Refund:             new(uint256.Int),
			CreatedAt:          l.now(),
		}
		if err := q.CreateSettlement(ctx, settlement); err != nil {
			return err
		}
		result = &SettlementResult{Settlement: settlement, Liquidity: pot.Liquidity}

		return l.emit(ctx, q, models.TopicClaim, potID, settlementPayload(settlement, member))
	}, func(ctx context.Context) { l.unwind(ctx, receipt) })
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListSettlements returns a pot's settlements, newest first.
func (l *Ledger) ListSettlements(ctx context.Context, potID int64) ([]*models.Settlement, error) {
	if _, err := loadPot(ctx, l.store, potID); err != nil {
		return nil, err
	}
	return l.store.ListSettlementsByPot(ctx, potID)
}

// convert runs a conversion through the provider. Every provider failure
// surfaces as ErrConversionFailed.
func (l *Ledger) convert(ctx context.Context, req conversion.Request) (*conversion.Receipt, error) {
	if l.converter == nil {
		return nil, fmt.Errorf("%w: no conversion provider for %s->%s", ErrConversionFailed, req.AssetIn, req.AssetOut)
	}
	receipt, err := l.converter.Convert(ctx, req)
	l.metrics.ObserveConversion(req.AssetIn, req.AssetOut, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}
	return receipt, nil
}

// unwind reverses a conversion whose ledger update did not commit. It runs
// while the pot lock is still held.
func (l *Ledger) unwind(ctx context.Context, receipt *conversion.Receipt) {
	if receipt == nil {
		return
	}
	if err := l.converter.Unwind(context.WithoutCancel(ctx), receipt); err != nil {
		slog.Error("Failed to unwind conversion",
			"asset_in", receipt.AssetIn,
			"asset_out", receipt.AssetOut,
			"amount_in", receipt.AmountIn.Dec(),
			"error", err,
		)
	}
}

func settlementPayload(s *models.Settlement, member *models.Member) settlementEvent {
	ev := settlementEvent{
		SettlementID:       s.ID,
		PotID:              s.PotID,
		MemberID:           s.MemberID,
		Account:            member.Account,
		Asset:              s.Asset,
		AssetAmount:        money.UintString(s.AssetAmount),
		DenominationAmount: money.UintString(s.DenominationAmount),
	}
	if s.Refund != nil && !s.Refund.IsZero() {
		ev.Refund = s.Refund.Dec()
	}
	return ev
}
