package selection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
)

// --- Mocks ---

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchProduct(ctx context.Context, slug, variantID string) (*domain.Product, error) {
	args := m.Called(ctx, slug, variantID)
	if p := args.Get(0); p != nil {
		return p.(*domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

type recordingTarget struct {
	applied   []string
	abandoned int
}

func (r *recordingTarget) applyRefresh(_ *domain.Product, variantID string) {
	r.applied = append(r.applied, variantID)
}

func (r *recordingTarget) abandonRefresh() {
	r.abandoned++
}

// --- Tests ---

func TestCoordinator_RefreshAppliesMergedProduct(t *testing.T) {
	fetcher := new(mockFetcher)
	merged := mergeFor(shirtProduct(), "blue")
	fetcher.On("FetchProduct", mock.Anything, "linen-shirt", "blue").Return(merged, nil)

	c := NewCoordinator(fetcher, testLogger())
	target := &recordingTarget{}

	got, err := c.Refresh(context.Background(), "linen-shirt", "blue", target)

	require.NoError(t, err)
	assert.Same(t, merged, got)
	assert.Equal(t, []string{"blue"}, target.applied)
	assert.Equal(t, "blue", c.LastApplied())
	fetcher.AssertExpectations(t)
}

func TestCoordinator_RefreshIsIdempotentPerVariant(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("FetchProduct", mock.Anything, "linen-shirt", "blue").Return(mergeFor(shirtProduct(), "blue"), nil)

	c := NewCoordinator(fetcher, testLogger())
	target := &recordingTarget{}

	first, err := c.Refresh(context.Background(), "linen-shirt", "blue", target)
	require.NoError(t, err)
	second, err := c.Refresh(context.Background(), "linen-shirt", "blue", target)
	require.NoError(t, err)

	fetcher.AssertNumberOfCalls(t, "FetchProduct", 1)
	assert.Same(t, first, second)
	assert.Equal(t, []string{"blue"}, target.applied)
	assert.Equal(t, 1, target.abandoned)
}

func TestCoordinator_RefreshAgainAfterSwitchingAway(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("FetchProduct", mock.Anything, "linen-shirt", "blue").Return(mergeFor(shirtProduct(), "blue"), nil)
	fetcher.On("FetchProduct", mock.Anything, "linen-shirt", "red").Return(mergeFor(shirtProduct(), "red"), nil)

	c := NewCoordinator(fetcher, testLogger())
	target := &recordingTarget{}

	for _, id := range []string{"blue", "red", "blue"} {
		_, err := c.Refresh(context.Background(), "linen-shirt", id, target)
		require.NoError(t, err)
	}

	fetcher.AssertNumberOfCalls(t, "FetchProduct", 3)
	assert.Equal(t, []string{"blue", "red", "blue"}, target.applied)
}

func TestCoordinator_FailureLeavesTargetUntouched(t *testing.T) {
	catalogErr := errors.New("connection refused")
	fetcher := new(mockFetcher)
	fetcher.On("FetchProduct", mock.Anything, "linen-shirt", "blue").Return(nil, catalogErr)

	c := NewCoordinator(fetcher, testLogger())
	target := &recordingTarget{}

	_, err := c.Refresh(context.Background(), "linen-shirt", "blue", target)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRefreshFailed)
	assert.ErrorIs(t, err, catalogErr)
	assert.Empty(t, target.applied)
	assert.Equal(t, 1, target.abandoned)
	assert.Equal(t, "", c.LastApplied())
}

func TestCoordinator_FailureIsRetriedByNextRequest(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("FetchProduct", mock.Anything, "linen-shirt", "blue").Return(nil, errors.New("timeout")).Once()
	fetcher.On("FetchProduct", mock.Anything, "linen-shirt", "blue").Return(mergeFor(shirtProduct(), "blue"), nil).Once()

	c := NewCoordinator(fetcher, testLogger())
	target := &recordingTarget{}

	_, err := c.Refresh(context.Background(), "linen-shirt", "blue", target)
	require.ErrorIs(t, err, domain.ErrRefreshFailed)

	_, err = c.Refresh(context.Background(), "linen-shirt", "blue", target)
	require.NoError(t, err)
	assert.Equal(t, []string{"blue"}, target.applied)
	fetcher.AssertExpectations(t)
}

func TestCoordinator_UnrecognisedVariantFails(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("FetchProduct", mock.Anything, "linen-shirt", "ghost").Return(shirtProduct(), nil)

	c := NewCoordinator(fetcher, testLogger())
	target := &recordingTarget{}

	_, err := c.Refresh(context.Background(), "linen-shirt", "ghost", target)

	assert.ErrorIs(t, err, domain.ErrRefreshFailed)
	assert.Empty(t, target.applied)
}

func TestCoordinator_ResponseMergedForOtherVariantFails(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("FetchProduct", mock.Anything, "linen-shirt", "blue").Return(mergeFor(shirtProduct(), "red"), nil)

	c := NewCoordinator(fetcher, testLogger())
	target := &recordingTarget{}

	product, err := c.Refresh(context.Background(), "linen-shirt", "blue", target)

	assert.Nil(t, product)
	assert.ErrorIs(t, err, domain.ErrRefreshFailed)
	assert.Empty(t, target.applied)
	assert.Equal(t, 1, target.abandoned)
	assert.Empty(t, c.LastApplied())
}

func TestCoordinator_StaleResponseDiscarded(t *testing.T) {
	cat := newFakeCatalog(shirtProduct)
	gateA := cat.gate("blue")
	gateB := cat.gate("red")
	started := cat.watch()

	c := NewCoordinator(cat, testLogger())
	target := &recordingTarget{}

	errA := make(chan error, 1)
	go func() {
		_, err := c.Refresh(context.Background(), "linen-shirt", "blue", target)
		errA <- err
	}()
	require.Equal(t, "blue", <-started)

	errB := make(chan error, 1)
	go func() {
		_, err := c.Refresh(context.Background(), "linen-shirt", "red", target)
		errB <- err
	}()
	require.Equal(t, "red", <-started)

	close(gateB)
	require.NoError(t, <-errB)
	close(gateA)
	assert.ErrorIs(t, <-errA, domain.ErrStaleRefresh)

	assert.Equal(t, []string{"red"}, target.applied)
	assert.Equal(t, "red", c.LastApplied())
}
