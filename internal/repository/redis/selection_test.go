package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func setupTestRedis(t *testing.T) (*SelectionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSelectionRepository(client, 24*time.Hour), mr
}

func sampleSelection(at time.Time) *domain.SavedSelection {
	return &domain.SavedSelection{
		ShopperID: "shopper-1",
		Slug:      "linen-shirt",
		VariantID: "blue",
		Color:     "Blue",
		Size:      "L",
		UpdatedAt: at.UTC().Truncate(time.Millisecond),
	}
}

// ---------------------------------------------------------------------------
// Get / Save
// ---------------------------------------------------------------------------

func TestSelectionRepository_SaveAndGet(t *testing.T) {
	repo, mr := setupTestRedis(t)
	sel := sampleSelection(time.Now())

	written, err := repo.Save(context.Background(), sel)
	require.NoError(t, err)
	assert.True(t, written)

	got, err := repo.Get(context.Background(), "shopper-1", "linen-shirt")
	require.NoError(t, err)
	assert.Equal(t, "blue", got.VariantID)
	assert.Equal(t, "Blue", got.Color)
	assert.Equal(t, "L", got.Size)
	assert.True(t, sel.UpdatedAt.Equal(got.UpdatedAt))

	assert.True(t, mr.Exists("storefront:selection:shopper-1:linen-shirt"))
	assert.Equal(t, 24*time.Hour, mr.TTL("storefront:selection:shopper-1:linen-shirt"))
}

func TestSelectionRepository_Get_NotFound(t *testing.T) {
	repo, _ := setupTestRedis(t)

	_, err := repo.Get(context.Background(), "shopper-1", "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSelectionRepository_Get_CorruptPayload(t *testing.T) {
	repo, mr := setupTestRedis(t)
	mr.HSet(Key("shopper-1", "linen-shirt"), "data", "{broken")

	_, err := repo.Get(context.Background(), "shopper-1", "linen-shirt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal selection")
}

func TestSelectionRepository_Save_OlderWriteIgnored(t *testing.T) {
	repo, _ := setupTestRedis(t)
	now := time.Now()

	newer := sampleSelection(now)
	older := sampleSelection(now.Add(-time.Minute))
	older.VariantID = "red"
	older.Color = "Red"

	written, err := repo.Save(context.Background(), newer)
	require.NoError(t, err)
	require.True(t, written)

	written, err = repo.Save(context.Background(), older)
	require.NoError(t, err)
	assert.False(t, written)

	got, err := repo.Get(context.Background(), "shopper-1", "linen-shirt")
	require.NoError(t, err)
	assert.Equal(t, "blue", got.VariantID)
}

func TestSelectionRepository_Save_NewerWriteReplaces(t *testing.T) {
	repo, _ := setupTestRedis(t)
	now := time.Now()

	_, err := repo.Save(context.Background(), sampleSelection(now))
	require.NoError(t, err)

	next := sampleSelection(now.Add(time.Second))
	next.VariantID = "red"
	written, err := repo.Save(context.Background(), next)
	require.NoError(t, err)
	assert.True(t, written)

	got, err := repo.Get(context.Background(), "shopper-1", "linen-shirt")
	require.NoError(t, err)
	assert.Equal(t, "red", got.VariantID)
}

func TestSelectionRepository_Save_RedisDown(t *testing.T) {
	repo, mr := setupTestRedis(t)
	mr.Close()

	_, err := repo.Save(context.Background(), sampleSelection(time.Now()))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis save selection")
}

func TestSelectionRepository_KeysDoNotCollide(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	first := sampleSelection(time.Now())
	first.ShopperID, first.Slug, first.Color = "a:b", "c", "Blue"
	second := sampleSelection(time.Now())
	second.ShopperID, second.Slug, second.Color = "a", "b:c", "Red"

	assert.NotEqual(t, Key(first.ShopperID, first.Slug), Key(second.ShopperID, second.Slug))

	_, err := repo.Save(ctx, first)
	require.NoError(t, err)
	_, err = repo.Save(ctx, second)
	require.NoError(t, err)

	got, err := repo.Get(ctx, "a:b", "c")
	require.NoError(t, err)
	assert.Equal(t, "Blue", got.Color)
	got, err = repo.Get(ctx, "a", "b:c")
	require.NoError(t, err)
	assert.Equal(t, "Red", got.Color)
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestSelectionRepository_Delete(t *testing.T) {
	repo, mr := setupTestRedis(t)
	_, err := repo.Save(context.Background(), sampleSelection(time.Now()))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), "shopper-1", "linen-shirt"))

	assert.False(t, mr.Exists(Key("shopper-1", "linen-shirt")))
	_, err = repo.Get(context.Background(), "shopper-1", "linen-shirt")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSelectionRepository_Delete_Missing(t *testing.T) {
	repo, _ := setupTestRedis(t)

	assert.NoError(t, repo.Delete(context.Background(), "nobody", "nothing"))
}
