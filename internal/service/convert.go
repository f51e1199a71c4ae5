package service

import (
	"math/big"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/mmynk/cakepot/internal/calculator"
	"github.com/mmynk/cakepot/internal/identity"
	"github.com/mmynk/cakepot/internal/models"
	"github.com/mmynk/cakepot/internal/money"
	"github.com/mmynk/cakepot/pkg/api"
)

func timestamp(t time.Time) *timestamppb.Timestamp {
	if t.IsZero() {
		return nil
	}
	return timestamppb.New(t)
}

func toAPIMember(m *models.Member) *api.Member {
	return &api.Member{
		ID:              m.ID,
		Account:         m.Account,
		ChecksumAccount: identity.Checksum(m.Account),
		CreatedAt:       timestamp(m.CreatedAt),
	}
}

func toSignedAmount(v *big.Int) *api.SignedAmount {
	return &api.SignedAmount{
		Value:   money.BigString(v),
		Display: money.FormatUnits(v, money.DefaultDecimals),
	}
}

func toAPIPot(p *models.Pot) *api.Pot {
	members := make([]*api.PotMember, len(p.MemberIDs))
	for i, id := range p.MemberIDs {
		members[i] = &api.PotMember{
			MemberID:  id,
			WeightBps: p.WeightsBps[id],
			Balance:   toSignedAmount(p.Balance(id)),
		}
	}

	return &api.Pot{
		ID:                   p.ID,
		DenominationAsset:    p.DenominationAsset,
		Members:              members,
		InterestRateBps:      p.InterestRateBps,
		BillingPeriodSeconds: int64(p.BillingPeriod / time.Second),
		LastCutAt:            timestamp(p.LastCutAt),
		NextDueAt:            timestamp(p.NextDueAt),
		LastAppliedBatchID:   p.LastAppliedBatchID,
		BatchCount:           p.BatchCount,
		Liquidity:            money.UintString(p.Liquidity),
		Active:               p.Active,
		CreatedAt:            timestamp(p.CreatedAt),
	}
}

// toAPIBatch renders a batch. memberIDs orders the override weights and may
// be nil when the batch carries no override.
func toAPIBatch(b *models.Batch, memberIDs []int64) *api.Batch {
	payments := make([]*api.Payment, len(b.Payments))
	for i, p := range b.Payments {
		payments[i] = &api.Payment{
			MemberID: p.MemberID,
			Amount:   money.UintString(p.Amount),
		}
	}

	var override []uint32
	if b.WeightsOverride != nil {
		override = calculator.OrderedWeights(memberIDs, b.WeightsOverride)
	}

	total := "0"
	if sum, overflow := b.Total(); !overflow {
		total = money.UintString(sum)
	}

	return &api.Batch{
		PotID:           b.PotID,
		ID:              b.ID,
		WeightsOverride: override,
		Payments:        payments,
		Total:           total,
		CreatedAt:       timestamp(b.CreatedAt),
	}
}

func toAPISettlement(s *models.Settlement) *api.Settlement {
	return &api.Settlement{
		ID:                 s.ID,
		PotID:              s.PotID,
		MemberID:           s.MemberID,
		Direction:          string(s.Direction),
		Asset:              s.Asset,
		AssetAmount:        money.UintString(s.AssetAmount),
		DenominationAmount: money.UintString(s.DenominationAmount),
		Refund:             money.UintString(s.Refund),
		CreatedAt:          timestamp(s.CreatedAt),
	}
}
