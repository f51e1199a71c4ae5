package ledger

import (
	"context"
	"encoding/json"
	"math/big"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/cakepot/internal/conversion"
	"github.com/mmynk/cakepot/internal/models"
	"github.com/mmynk/cakepot/internal/storage"
	"github.com/mmynk/cakepot/internal/storage/sqlite"
)

const (
	alice = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	bob   = "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"
	carol = "carol.eth"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	ledger *Ledger
	store  storage.Store
	clock  *fakeClock
}

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newFixture(t *testing.T, cfg Config, opts ...Option) *fixture {
	t.Helper()
	return newFixtureWithStore(t, newTestStore(t), cfg, opts...)
}

func newFixtureWithStore(t *testing.T, store storage.Store, cfg Config, opts ...Option) *fixture {
	t.Helper()
	clock := &fakeClock{now: t0}
	lg, err := New(store, cfg, append([]Option{WithClock(clock.Now)}, opts...)...)
	require.NoError(t, err)
	return &fixture{ledger: lg, store: store, clock: clock}
}

// eth converts hundredths of a unit into 18-decimal base units.
func eth(hundredths int64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(uint64(hundredths)), uint256.NewInt(1e16))
}

// signed is the *big.Int counterpart of eth.
func signed(hundredths int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(hundredths), big.NewInt(1e16))
}

func (f *fixture) register(t *testing.T, accounts ...string) []*models.Member {
	t.Helper()
	members := make([]*models.Member, len(accounts))
	for i, account := range accounts {
		m, err := f.ledger.Register(context.Background(), account)
		require.NoError(t, err)
		members[i] = m
	}
	return members
}

// examplePot creates the three-member pot with weights 5000/3000/2000 used
// throughout these tests.
func (f *fixture) examplePot(t *testing.T, denomination string) *models.Pot {
	t.Helper()
	f.register(t, alice, bob, carol)
	pot, err := f.ledger.CreatePot(context.Background(), CreatePotParams{
		DenominationAsset: denomination,
		MemberAccounts:    []string{alice, bob, carol},
		WeightsBps:        []uint32{5000, 3000, 2000},
		InterestRateBps:   150,
		BillingPeriod:     24 * time.Hour,
	})
	require.NoError(t, err)
	return pot
}

// cutExampleBatch adds alice=1.00, bob=0.50 and cuts, leaving balances of
// -0.25, -0.05 and +0.30.
func (f *fixture) cutExampleBatch(t *testing.T, pot *models.Pot) *CutResult {
	t.Helper()
	ctx := context.Background()
	_, err := f.ledger.AddBatch(ctx, alice, pot.ID, AddBatchParams{
		Payers:  []int64{pot.MemberIDs[0], pot.MemberIDs[1]},
		Amounts: []*uint256.Int{eth(100), eth(50)},
	})
	require.NoError(t, err)

	result, err := f.ledger.Cut(ctx, carol, pot.ID)
	require.NoError(t, err)
	return result
}

func (f *fixture) balances(t *testing.T, potID int64) []*big.Int {
	t.Helper()
	pot, err := f.ledger.GetPot(context.Background(), potID)
	require.NoError(t, err)
	out := make([]*big.Int, len(pot.MemberIDs))
	for i, id := range pot.MemberIDs {
		out[i] = pot.Balance(id)
	}
	return out
}

func assertBalances(t *testing.T, want []*big.Int, got []*big.Int) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].String(), got[i].String(), "balance of member %d", i)
	}
}

func (f *fixture) topics(t *testing.T) []string {
	t.Helper()
	outbox, ok := f.store.(storage.OutboxStore)
	require.True(t, ok)
	events, err := outbox.ListPendingEvents(context.Background(), 100)
	require.NoError(t, err)
	topics := make([]string, len(events))
	for i, ev := range events {
		topics[i] = ev.Topic
	}
	return topics
}

func TestRegister(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	first, err := f.ledger.Register(ctx, "  0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED ")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, alice, first.Account)

	again, err := f.ledger.Register(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "registration is idempotent")

	second, err := f.ledger.Register(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID, "ids are dense")

	_, err = f.ledger.Register(ctx, "has space")
	assert.ErrorIs(t, err, ErrInvalidAccount)

	got, err := f.ledger.GetMember(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	_, err = f.ledger.GetMember(ctx, carol)
	assert.ErrorIs(t, err, ErrMemberNotRegistered)
}

func TestCreatePot_Preconditions(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.register(t, alice, bob, carol)
	ctx := context.Background()

	tests := []struct {
		name     string
		accounts []string
		weights  []uint32
		period   time.Duration
		wantErr  error
	}{
		{
			name:     "unregistered member is reported before duplicates",
			accounts: []string{alice, alice, "dave"},
			weights:  []uint32{10000},
			period:   time.Hour,
			wantErr:  ErrMemberNotRegistered,
		},
		{
			name:     "duplicate member is reported before member count",
			accounts: []string{alice, alice},
			weights:  []uint32{10000},
			period:   0,
			wantErr:  ErrDuplicateMember,
		},
		{
			name:     "single member",
			accounts: []string{alice},
			weights:  []uint32{10000},
			period:   0,
			wantErr:  ErrInvalidMembers,
		},
		{
			name:     "billing period is checked before weights",
			accounts: []string{alice, bob},
			weights:  []uint32{1},
			period:   0,
			wantErr:  ErrInvalidBillingPeriod,
		},
		{
			name:     "weights length mismatch",
			accounts: []string{alice, bob},
			weights:  []uint32{10000},
			period:   time.Hour,
			wantErr:  ErrInvalidWeights,
		},
		{
			name:     "weights do not sum to 10000",
			accounts: []string{alice, bob},
			weights:  []uint32{5000, 4999},
			period:   time.Hour,
			wantErr:  ErrInvalidWeights,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.CreatePot(ctx, CreatePotParams{
				MemberAccounts: tt.accounts,
				WeightsBps:     tt.weights,
				BillingPeriod:  tt.period,
			})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Empty(t, f.topics(t), "failed creations must not emit events")
}

func TestCreatePot(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	pot := f.examplePot(t, "")
	ctx := context.Background()

	assert.Equal(t, int64(1), pot.ID)
	assert.Equal(t, models.NativeAsset, pot.DenominationAsset)
	assert.True(t, pot.Active)
	assert.Equal(t, t0, pot.LastCutAt)
	assert.Equal(t, t0.Add(24*time.Hour), pot.NextDueAt)
	assert.True(t, pot.Liquidity.IsZero())
	assertBalances(t, []*big.Int{signed(0), signed(0), signed(0)}, f.balances(t, pot.ID))

	for _, id := range pot.MemberIDs {
		pots, err := f.ledger.ListMemberPots(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []int64{pot.ID}, pots)
	}

	_, err := f.ledger.ListMemberPots(ctx, 42)
	assert.ErrorIs(t, err, ErrMemberNotRegistered)

	assert.Equal(t, []string{models.TopicPotCreated}, f.topics(t))
}

func TestAddBatch(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	pot := f.examplePot(t, "")
	ctx := context.Background()
	outsider := f.register(t, "dave")[0]

	tests := []struct {
		name    string
		caller  string
		potID   int64
		params  AddBatchParams
		wantErr error
	}{
		{
			name:    "unknown pot",
			caller:  alice,
			potID:   99,
			params:  AddBatchParams{Payers: []int64{1}, Amounts: []*uint256.Int{eth(1)}},
			wantErr: ErrPotDoesNotExist,
		},
		{
			name:    "caller not a member",
			caller:  "dave",
			potID:   pot.ID,
			params:  AddBatchParams{Payers: []int64{1}, Amounts: []*uint256.Int{eth(1)}},
			wantErr: ErrNotMember,
		},
		{
			name:    "length mismatch",
			caller:  alice,
			potID:   pot.ID,
			params:  AddBatchParams{Payers: []int64{1, 2}, Amounts: []*uint256.Int{eth(1)}},
			wantErr: ErrInvalidMembers,
		},
		{
			name:    "empty batch",
			caller:  alice,
			potID:   pot.ID,
			params:  AddBatchParams{},
			wantErr: ErrInvalidMembers,
		},
		{
			name:    "payer not a member",
			caller:  alice,
			potID:   pot.ID,
			params:  AddBatchParams{Payers: []int64{outsider.ID}, Amounts: []*uint256.Int{eth(1)}},
			wantErr: ErrNotMember,
		},
		{
			name:   "invalid override",
			caller: alice,
			potID:  pot.ID,
			params: AddBatchParams{
				WeightsOverride: []uint32{5000, 5000},
				Payers:          []int64{1},
				Amounts:         []*uint256.Int{eth(1)},
			},
			wantErr: ErrInvalidWeights,
		},
		{
			name:   "total overflows",
			caller: alice,
			potID:  pot.ID,
			params: AddBatchParams{
				Payers:  []int64{1, 2},
				Amounts: []*uint256.Int{new(uint256.Int).SetAllOne(), uint256.NewInt(1)},
			},
			wantErr: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.AddBatch(ctx, tt.caller, tt.potID, tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("valid batches are numbered and do not move balances", func(t *testing.T) {
		first, err := f.ledger.AddBatch(ctx, bob, pot.ID, AddBatchParams{
			Payers:  []int64{pot.MemberIDs[2], pot.MemberIDs[2]},
			Amounts: []*uint256.Int{eth(0), eth(10)},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), first.ID)

		second, err := f.ledger.AddBatch(ctx, bob, pot.ID, AddBatchParams{
			WeightsOverride: []uint32{0, 0, 10000},
			Payers:          []int64{pot.MemberIDs[0]},
			Amounts:         []*uint256.Int{eth(3)},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), second.ID)

		got, err := f.ledger.GetBatch(ctx, pot.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, uint32(10000), got.WeightsOverride[pot.MemberIDs[2]])
		assert.True(t, t0.Equal(got.CreatedAt))

		_, err = f.ledger.GetBatch(ctx, pot.ID, 3)
		assert.ErrorIs(t, err, ErrBatchDoesNotExist)

		assertBalances(t, []*big.Int{signed(0), signed(0), signed(0)}, f.balances(t, pot.ID))
	})
}

func TestCut_WeightedExample(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	pot := f.examplePot(t, "")

	f.clock.Advance(time.Hour)
	result := f.cutExampleBatch(t, pot)

	assert.Equal(t, int64(1), result.FirstBatchID)
	assert.Equal(t, int64(1), result.LastBatchID)
	assert.Equal(t, int64(0), result.PeriodsCharged, "not yet due")
	assert.Equal(t, "0", result.Residue.String())
	assert.False(t, result.Remaining)
	assertBalances(t, []*big.Int{signed(-25), signed(-5), signed(30)}, f.balances(t, pot.ID))

	got, err := f.ledger.GetPot(context.Background(), pot.ID)
	require.NoError(t, err)
	assert.True(t, t0.Add(time.Hour).Equal(got.LastCutAt))
	assert.True(t, t0.Add(25*time.Hour).Equal(got.NextDueAt))
	assert.Equal(t, int64(1), got.LastAppliedBatchID)

	balance, err := f.ledger.GetBalance(context.Background(), pot.ID, pot.MemberIDs[2])
	require.NoError(t, err)
	assert.Equal(t, signed(30).String(), balance.String())
}

func TestCut_InterestOneSecondPastDue(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	pot := f.examplePot(t, "")

	f.clock.Advance(24*time.Hour + time.Second)
	result := f.cutExampleBatch(t, pot)

	assert.Equal(t, int64(1), result.PeriodsCharged)
	assertBalances(t, []*big.Int{
		new(big.Int).Mul(big.NewInt(-25375), big.NewInt(1e13)),
		new(big.Int).Mul(big.NewInt(-5075), big.NewInt(1e13)),
		new(big.Int).Mul(big.NewInt(3045), big.NewInt(1e14)),
	}, f.balances(t, pot.ID))
}

// periodPot creates the example pot with a custom billing period and adds
// a batch where alice pays 1.00, which cuts to -0.50, +0.30 and +0.20.
func (f *fixture) periodPot(t *testing.T, period time.Duration) *models.Pot {
	t.Helper()
	f.register(t, alice, bob, carol)
	pot, err := f.ledger.CreatePot(context.Background(), CreatePotParams{
		MemberAccounts:  []string{alice, bob, carol},
		WeightsBps:      []uint32{5000, 3000, 2000},
		InterestRateBps: 150,
		BillingPeriod:   period,
	})
	require.NoError(t, err)

	_, err = f.ledger.AddBatch(context.Background(), alice, pot.ID, AddBatchParams{
		Payers:  []int64{pot.MemberIDs[0]},
		Amounts: []*uint256.Int{eth(100)},
	})
	require.NoError(t, err)
	return pot
}

func TestCut_InterestOverflowLeavesPotUnchanged(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	pot := f.periodPot(t, time.Hour)
	ctx := context.Background()

	_, err := f.ledger.Cut(ctx, carol, pot.ID)
	require.NoError(t, err)
	before, err := f.ledger.GetPot(ctx, pot.ID)
	require.NoError(t, err)
	assertBalances(t, []*big.Int{signed(-50), signed(30), signed(20)}, f.balances(t, pot.ID))

	_, err = f.ledger.AddBatch(ctx, bob, pot.ID, AddBatchParams{
		Payers:  []int64{pot.MemberIDs[1]},
		Amounts: []*uint256.Int{eth(10)},
	})
	require.NoError(t, err)
	topics := f.topics(t)

	// 17520 hourly periods at 1.5% multiply balances by roughly 2^376
	f.clock.Advance(2 * 365 * 24 * time.Hour)
	_, err = f.ledger.Cut(ctx, carol, pot.ID)
	require.ErrorIs(t, err, ErrBalanceOverflow)

	after, err := f.ledger.GetPot(ctx, pot.ID)
	require.NoError(t, err)
	assertBalances(t, []*big.Int{signed(-50), signed(30), signed(20)}, f.balances(t, pot.ID))
	assert.True(t, before.LastCutAt.Equal(after.LastCutAt))
	assert.True(t, before.NextDueAt.Equal(after.NextDueAt))
	assert.Equal(t, before.LastAppliedBatchID, after.LastAppliedBatchID)
	assert.True(t, after.HasPending())
	assert.Equal(t, topics, f.topics(t), "a failed cut emits nothing")

	// The pot can still be settled at its pre-cut balances
	paid, err := f.ledger.PayDebt(ctx, alice, pot.ID, "", eth(50))
	require.NoError(t, err)
	assert.Equal(t, eth(50).Dec(), paid.Settlement.DenominationAmount.Dec())
	_, err = f.ledger.ClaimCredit(ctx, bob, pot.ID, "", nil)
	require.NoError(t, err)
}

func TestCut_OverflowFailsFast(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	pot := f.periodPot(t, time.Second)

	f.clock.Advance(30 * 24 * time.Hour)
	start := time.Now()
	_, err := f.ledger.Cut(context.Background(), carol, pot.ID)
	require.ErrorIs(t, err, ErrBalanceOverflow)
	assert.Less(t, time.Since(start), 2*time.Second)

	got, err := f.ledger.GetPot(context.Background(), pot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.LastAppliedBatchID)
	assert.True(t, t0.Equal(got.LastCutAt))
}

func TestCut_InterestKeepsBalancesBounded(t *testing.T) {
	tests := []struct {
		name    string
		period  time.Duration
		elapsed time.Duration
		periods int64
	}{
		{"ten daily periods", 24 * time.Hour, 10 * 24 * time.Hour, 10},
		{"thousand hourly periods", time.Hour, 1000 * time.Hour, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, DefaultConfig())
			pot := f.periodPot(t, tt.period)

			f.clock.Advance(tt.elapsed)
			result, err := f.ledger.Cut(context.Background(), carol, pot.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.periods, result.PeriodsCharged)

			balances := f.balances(t, pot.ID)
			sum := new(big.Int)
			for i, b := range balances {
				assert.LessOrEqual(t, b.BitLen(), 256, "balance of member %d", i)
				sum.Add(sum, b)
			}
			// Each balance truncates toward zero by less than one unit
			assert.LessOrEqual(t, sum.CmpAbs(big.NewInt(int64(len(balances)))), 0, "sum(balances) = %s", sum)
			assert.Equal(t, -1, balances[0].Sign())
			assert.Equal(t, 1, balances[0].CmpAbs(signed(50)), "debt grew with interest")
		})
	}
}

func TestCut_NothingToCut(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	pot := f.examplePot(t, "")
	ctx := context.Background()

	_, err := f.ledger.Cut(ctx, alice, pot.ID)
	assert.ErrorIs(t, err, ErrNothingToCut)

	f.cutExampleBatch(t, pot)
	before := f.balances(t, pot.ID)

	f.clock.Advance(72 * time.Hour)
	_, err = f.ledger.Cut(ctx, alice, pot.ID)
	assert.ErrorIs(t, err, ErrNothingToCut, "a second cut without new batches fails")
	assertBalances(t, before, f.balances(t, pot.ID))

	_, err = f.ledger.Cut(ctx, "dave", pot.ID)
	assert.ErrorIs(t, err, ErrNotMember)

	_, err = f.ledger.Cut(ctx, alice, 99)
	assert.ErrorIs(t, err, ErrPotDoesNotExist)
}

func TestCut_ZeroBatchAdvancesClock(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	pot := f.examplePot(t, "")
	ctx := context.Background()

	_, err := f.ledger.AddBatch(ctx, alice, pot.ID, AddBatchParams{
		Payers:  []int64{pot.MemberIDs[0]},
		Amounts: []*uint256.Int{uint256.NewInt(0)},
	})
	require.NoError(t, err)

	f.clock.Advance(48 * time.Hour)
	result, err := f.ledger.Cut(ctx, alice, pot.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.PeriodsCharged)
	assert.Equal(t, t0.Add(48*time.Hour), result.Pot.LastCutAt)
	assertBalances(t, []*big.Int{signed(0), signed(0), signed(0)}, f.balances(t, pot.ID))
}

func TestCut_BatchCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBatchesPerCut = 2
	f := newFixture(t, cfg)
	pot := f.examplePot(t, "")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.ledger.AddBatch(ctx, alice, pot.ID, AddBatchParams{
			Payers:  []int64{pot.MemberIDs[0]},
			Amounts: []*uint256.Int{eth(10)},
		})
		require.NoError(t, err)
	}

	first, err := f.ledger.Cut(ctx, alice, pot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.FirstBatchID)
	assert.Equal(t, int64(2), first.LastBatchID)
	assert.True(t, first.Remaining)

	second, err := f.ledger.Cut(ctx, alice, pot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), second.FirstBatchID)
	assert.False(t, second.Remaining)

	// alice paid 0.30 and owes half of it
	assertBalances(t, []*big.Int{signed(-15), signed(9), signed(6)}, f.balances(t, pot.ID))

	_, err = f.ledger.Cut(ctx, alice, pot.ID)
	assert.ErrorIs(t, err, ErrNothingToCut)
}

func TestCut_OverrideAndResidue(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	pot := f.examplePot(t, "")
	ctx := context.Background()

	_, err := f.ledger.AddBatch(ctx, alice, pot.ID, AddBatchParams{
		WeightsOverride: []uint32{3333, 3333, 3334},
		Payers:          []int64{pot.MemberIDs[0]},
		Amounts:         []*uint256.Int{uint256.NewInt(10)},
	})
	require.NoError(t, err)

	result, err := f.ledger.Cut(ctx, alice, pot.ID)
	require.NoError(t, err)
	assert.Equal(t, "1", result.Residue.String())
	assertBalances(t, []*big.Int{big.NewInt(-7), big.NewInt(3), big.NewInt(3)}, f.balances(t, pot.ID))

	sum := new(big.Int)
	for _, b := range f.balances(t, pot.ID) {
		sum.Add(sum, b)
	}
	assert.Equal(t, "-1", sum.String(), "balances sum to minus the residue")
}

func TestCut_EmitsBalanceVector(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	pot := f.examplePot(t, "")
	f.cutExampleBatch(t, pot)

	outbox := f.store.(storage.OutboxStore)
	events, err := outbox.ListPendingEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, models.TopicPotCut, events[2].Topic)
	assert.Equal(t, "1", events[2].MessageKey)

	var payload potCutEvent
	require.NoError(t, json.Unmarshal([]byte(events[2].Payload), &payload))
	require.Len(t, payload.Balances, 3)
	assert.Equal(t, signed(-25).String(), payload.Balances[0].Balance)
	assert.Equal(t, signed(30).String(), payload.Balances[2].Balance)
}

func TestNew_RejectsUnknownOverpayment(t *testing.T) {
	_, err := New(newTestStore(t), Config{Overpayment: "donate"})
	assert.Error(t, err)
}

// Provider used to check the behaviour around conversions.
type stubProvider struct {
	convert  func(ctx context.Context, req conversion.Request) (*conversion.Receipt, error)
	unwound  []*conversion.Receipt
	unwindMu sync.Mutex
}

func (p *stubProvider) Convert(ctx context.Context, req conversion.Request) (*conversion.Receipt, error) {
	return p.convert(ctx, req)
}

func (p *stubProvider) Unwind(_ context.Context, r *conversion.Receipt) error {
	p.unwindMu.Lock()
	defer p.unwindMu.Unlock()
	p.unwound = append(p.unwound, r)
	return nil
}
