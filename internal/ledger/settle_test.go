package ledger

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/cakepot/internal/conversion"
	"github.com/mmynk/cakepot/internal/lock"
	"github.com/mmynk/cakepot/internal/models"
	"github.com/mmynk/cakepot/internal/storage"
)

func newTestRouter(t *testing.T) *conversion.Router {
	t.Helper()
	reserve := new(uint256.Int).Mul(uint256.NewInt(1000), uint256.NewInt(1e18))
	r, err := conversion.NewRouter(conversion.PoolConfig{
		AssetA:   "usdc",
		AssetB:   "dai",
		ReserveA: reserve,
		ReserveB: reserve,
	})
	require.NoError(t, err)
	return r
}

func TestSettlement_PaymentAndClaimExample(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	pot := f.examplePot(t, "")
	f.cutExampleBatch(t, pot)
	ctx := context.Background()

	// Alice pays her 0.25 debt
	paid, err := f.ledger.PayDebt(ctx, alice, pot.ID, "", eth(25))
	require.NoError(t, err)
	assert.Equal(t, eth(25).Dec(), paid.Liquidity.Dec())
	assert.Equal(t, models.SettlementPayment, paid.Settlement.Direction)
	assert.Equal(t, models.NativeAsset, paid.Settlement.Asset)
	assertBalances(t, []*big.Int{signed(0), signed(-5), signed(30)}, f.balances(t, pot.ID))

	// 0.25 of liquidity cannot cover Carol's 0.30
	_, err = f.ledger.ClaimCredit(ctx, carol, pot.ID, "", nil)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = f.ledger.PayDebt(ctx, bob, pot.ID, models.NativeAsset, eth(5))
	require.NoError(t, err)

	claimed, err := f.ledger.ClaimCredit(ctx, carol, pot.ID, "", nil)
	require.NoError(t, err)
	assert.True(t, claimed.Liquidity.IsZero())
	assert.Equal(t, eth(30).Dec(), claimed.Settlement.AssetAmount.Dec())
	assert.Equal(t, models.SettlementClaim, claimed.Settlement.Direction)
	assertBalances(t, []*big.Int{signed(0), signed(0), signed(0)}, f.balances(t, pot.ID))

	settlements, err := f.ledger.ListSettlements(ctx, pot.ID)
	require.NoError(t, err)
	assert.Len(t, settlements, 3)

	assert.Equal(t, []string{
		models.TopicPotCreated,
		models.TopicBatchAdded,
		models.TopicPotCut,
		models.TopicPayment,
		models.TopicPayment,
		models.TopicClaim,
	}, f.topics(t))
}

func TestSettlement_Preconditions(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	pot := f.examplePot(t, "")
	f.cutExampleBatch(t, pot)
	f.register(t, "dave")
	ctx := context.Background()

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{
			name: "unregistered payer",
			run: func() error {
				_, err := f.ledger.PayDebt(ctx, "erin", pot.ID, "", eth(1))
				return err
			},
			wantErr: ErrMemberNotRegistered,
		},
		{
			name: "unknown pot",
			run: func() error {
				_, err := f.ledger.PayDebt(ctx, alice, 99, "", eth(1))
				return err
			},
			wantErr: ErrPotDoesNotExist,
		},
		{
			name: "payer not a member",
			run: func() error {
				_, err := f.ledger.PayDebt(ctx, "dave", pot.ID, "", eth(1))
				return err
			},
			wantErr: ErrNotMember,
		},
		{
			name: "creditor has no debt",
			run: func() error {
				_, err := f.ledger.PayDebt(ctx, carol, pot.ID, "", eth(1))
				return err
			},
			wantErr: ErrNoDebtToPay,
		},
		{
			name: "underpayment",
			run: func() error {
				_, err := f.ledger.PayDebt(ctx, alice, pot.ID, "", eth(24))
				return err
			},
			wantErr: ErrInsufficientFundsSent,
		},
		{
			name: "native pot paid in another asset",
			run: func() error {
				_, err := f.ledger.PayDebt(ctx, alice, pot.ID, "usdc", eth(100))
				return err
			},
			wantErr: ErrInsufficientFundsSent,
		},
		{
			name: "debtor has no credit",
			run: func() error {
				_, err := f.ledger.ClaimCredit(ctx, alice, pot.ID, "", nil)
				return err
			},
			wantErr: ErrNoCreditToClaim,
		},
		{
			name: "unregistered claimant",
			run: func() error {
				_, err := f.ledger.ClaimCredit(ctx, "erin", pot.ID, "", nil)
				return err
			},
			wantErr: ErrMemberNotRegistered,
		},
		{
			name: "claim from empty pot",
			run: func() error {
				_, err := f.ledger.ClaimCredit(ctx, carol, pot.ID, "", nil)
				return err
			},
			wantErr: ErrInsufficientLiquidity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tt.wantErr)
		})
	}

	// Nothing above may have moved state
	assertBalances(t, []*big.Int{signed(-25), signed(-5), signed(30)}, f.balances(t, pot.ID))
}

func TestPayDebt_OverpaymentPolicies(t *testing.T) {
	tests := []struct {
		name          string
		policy        Overpayment
		wantLiquidity *uint256.Int
		wantRefund    *uint256.Int
	}{
		{name: "forfeit", policy: OverpaymentForfeit, wantLiquidity: eth(40), wantRefund: eth(0)},
		{name: "refund", policy: OverpaymentRefund, wantLiquidity: eth(25), wantRefund: eth(15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{Overpayment: tt.policy})
			pot := f.examplePot(t, "")
			f.cutExampleBatch(t, pot)

			result, err := f.ledger.PayDebt(context.Background(), alice, pot.ID, "", eth(40))
			require.NoError(t, err)

			assert.Equal(t, tt.wantLiquidity.Dec(), result.Liquidity.Dec())
			assert.Equal(t, tt.wantRefund.Dec(), result.Settlement.Refund.Dec())
			assert.Equal(t, eth(25).Dec(), result.Settlement.DenominationAmount.Dec())
			assert.Equal(t, "0", f.balances(t, pot.ID)[0].String())
		})
	}
}

func TestSettlement_CrossAsset(t *testing.T) {
	router := newTestRouter(t)
	f := newFixture(t, DefaultConfig(), WithConverter(router))
	pot := f.examplePot(t, "usdc")
	f.cutExampleBatch(t, pot)
	ctx := context.Background()

	t.Run("payment converts into the denomination", func(t *testing.T) {
		quote, err := router.Quote("dai", "usdc", eth(30))
		require.NoError(t, err)

		result, err := f.ledger.PayDebt(ctx, alice, pot.ID, "dai", eth(30))
		require.NoError(t, err)
		assert.Equal(t, "dai", result.Settlement.Asset)
		assert.Equal(t, quote.Dec(), result.Liquidity.Dec(), "forfeit keeps the whole conversion output")
	})

	t.Run("payment below debt after conversion fails", func(t *testing.T) {
		_, err := f.ledger.PayDebt(ctx, bob, pot.ID, "dai", eth(5))
		assert.ErrorIs(t, err, ErrConversionFailed)
	})

	t.Run("payment without a route fails", func(t *testing.T) {
		_, err := f.ledger.PayDebt(ctx, bob, pot.ID, "eur", eth(100))
		assert.ErrorIs(t, err, ErrConversionFailed)
	})

	t.Run("claim converts out of the denomination", func(t *testing.T) {
		_, err := f.ledger.PayDebt(ctx, bob, pot.ID, "usdc", eth(5))
		require.NoError(t, err)

		_, err = f.ledger.ClaimCredit(ctx, carol, pot.ID, "dai", eth(31))
		assert.ErrorIs(t, err, ErrConversionFailed, "slippage bound is enforced")

		quote, err := router.Quote("usdc", "dai", eth(30))
		require.NoError(t, err)
		result, err := f.ledger.ClaimCredit(ctx, carol, pot.ID, "dai", eth(29))
		require.NoError(t, err)
		assert.Equal(t, quote.Dec(), result.Settlement.AssetAmount.Dec())
		assert.Equal(t, eth(30).Dec(), result.Settlement.DenominationAmount.Dec())
	})
}

// failingStore fails every settlement insert so the enclosing transaction rolls back.
type failingStore struct {
	storage.Store
}

func (s failingStore) InTx(ctx context.Context, fn func(q storage.Queries) error) error {
	return s.Store.InTx(ctx, func(q storage.Queries) error {
		return fn(failingQueries{q})
	})
}

type failingQueries struct {
	storage.Queries
}

func (failingQueries) CreateSettlement(context.Context, *models.Settlement) error {
	return errors.New("disk full")
}

func TestPayDebt_UnwindsConversionOnRollback(t *testing.T) {
	router := newTestRouter(t)
	store := newTestStore(t)

	// Build the pot with a working store, then settle through the failing one
	setup := newFixtureWithStore(t, store, DefaultConfig())
	pot := setup.examplePot(t, "usdc")
	setup.cutExampleBatch(t, pot)

	f := newFixtureWithStore(t, failingStore{store}, DefaultConfig(), WithConverter(router))
	usdcBefore, daiBefore, err := router.Reserves("usdc", "dai")
	require.NoError(t, err)

	_, err = f.ledger.PayDebt(context.Background(), alice, pot.ID, "dai", eth(30))
	require.Error(t, err)

	usdcAfter, daiAfter, err := router.Reserves("usdc", "dai")
	require.NoError(t, err)
	assert.Equal(t, usdcBefore.Dec(), usdcAfter.Dec())
	assert.Equal(t, daiBefore.Dec(), daiAfter.Dec())

	got, err := setup.ledger.GetPot(context.Background(), pot.ID)
	require.NoError(t, err)
	assert.True(t, got.Liquidity.IsZero())
	assert.Equal(t, signed(-25).String(), got.Balance(pot.MemberIDs[0]).String())
}

// journal records lock releases and unwinds in the order they happen.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

type journalLocker struct {
	lock.Locker
	j *journal
}

func (l journalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	release, err := l.Locker.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	return func() {
		l.j.add("release")
		release()
	}, nil
}

type journalProvider struct {
	*conversion.Router
	j      *journal
	onUndo func(ctx context.Context)
}

func (p journalProvider) Unwind(ctx context.Context, r *conversion.Receipt) error {
	p.j.add("unwind")
	if p.onUndo != nil {
		p.onUndo(ctx)
	}
	return p.Router.Unwind(ctx, r)
}

func TestPayDebt_UnwindsBeforeReleasingPot(t *testing.T) {
	store := newTestStore(t)
	setup := newFixtureWithStore(t, store, DefaultConfig())
	pot := setup.examplePot(t, "usdc")
	setup.cutExampleBatch(t, pot)

	var (
		j        journal
		f        *fixture
		innerErr error
	)
	provider := journalProvider{
		Router: newTestRouter(t),
		j:      &j,
		onUndo: func(ctx context.Context) {
			// The pot is still held while the conversion is reversed
			_, innerErr = f.ledger.PayDebt(ctx, bob, pot.ID, "usdc", eth(5))
		},
	}
	f = newFixtureWithStore(t, failingStore{store}, DefaultConfig(),
		WithConverter(provider),
		WithLocker(journalLocker{Locker: lock.NewLocal(), j: &j}),
	)

	_, err := f.ledger.PayDebt(context.Background(), alice, pot.ID, "dai", eth(30))
	require.Error(t, err)
	assert.ErrorIs(t, innerErr, ErrReentrantCall)
	assert.Equal(t, []string{"unwind", "release"}, j.entries)
}

func TestPayDebt_RejectsReentrantProvider(t *testing.T) {
	var (
		f        *fixture
		potID    int64
		innerErr error
	)
	provider := &stubProvider{
		convert: func(ctx context.Context, req conversion.Request) (*conversion.Receipt, error) {
			_, innerErr = f.ledger.PayDebt(ctx, bob, potID, "usdc", eth(5))
			return nil, innerErr
		},
	}
	f = newFixture(t, DefaultConfig(), WithConverter(provider))
	pot := f.examplePot(t, "usdc")
	potID = pot.ID
	f.cutExampleBatch(t, pot)

	_, err := f.ledger.PayDebt(context.Background(), alice, pot.ID, "dai", eth(30))
	assert.ErrorIs(t, err, ErrConversionFailed)
	assert.ErrorIs(t, innerErr, ErrReentrantCall)
	assert.Empty(t, provider.unwound, "failed conversions are not unwound")
}

func TestDeactivatePot(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	pot := f.examplePot(t, "")
	ctx := context.Background()

	_, err := f.ledger.AddBatch(ctx, alice, pot.ID, AddBatchParams{
		Payers:  []int64{pot.MemberIDs[0], pot.MemberIDs[1]},
		Amounts: []*uint256.Int{eth(100), eth(50)},
	})
	require.NoError(t, err)

	_, err = f.ledger.DeactivatePot(ctx, alice, pot.ID)
	assert.ErrorIs(t, err, ErrPotNotSettled, "pending batches block deactivation")

	_, err = f.ledger.Cut(ctx, alice, pot.ID)
	require.NoError(t, err)
	_, err = f.ledger.DeactivatePot(ctx, alice, pot.ID)
	assert.ErrorIs(t, err, ErrPotNotSettled, "non-zero balances block deactivation")

	_, err = f.ledger.PayDebt(ctx, alice, pot.ID, "", eth(25))
	require.NoError(t, err)
	_, err = f.ledger.PayDebt(ctx, bob, pot.ID, "", eth(5))
	require.NoError(t, err)
	_, err = f.ledger.ClaimCredit(ctx, carol, pot.ID, "", nil)
	require.NoError(t, err)

	closed, err := f.ledger.DeactivatePot(ctx, bob, pot.ID)
	require.NoError(t, err)
	assert.False(t, closed.Active)

	_, err = f.ledger.AddBatch(ctx, alice, pot.ID, AddBatchParams{
		Payers:  []int64{pot.MemberIDs[0]},
		Amounts: []*uint256.Int{eth(1)},
	})
	assert.ErrorIs(t, err, ErrPotInactive)

	again, err := f.ledger.DeactivatePot(ctx, carol, pot.ID)
	require.NoError(t, err)
	assert.False(t, again.Active)
}
