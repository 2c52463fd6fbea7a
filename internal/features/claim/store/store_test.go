package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-claim-backend/internal/common/errors"
	"daily-claim-backend/internal/platform/redis/redistest"
)

const (
	alice = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	bob   = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

func TestTimersArePerAddress(t *testing.T) {
	fake := redistest.NewFake()
	timers := NewTimers(fake)
	ctx := context.Background()
	next := time.UnixMilli(1_700_086_400_000)

	require.NoError(t, timers.Set(ctx, alice, next))

	got, ok, err := timers.Get(ctx, alice)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, next.UnixMilli(), got.UnixMilli())

	_, ok, err = timers.Get(ctx, bob)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{"claim:timer:" + alice}, fake.Keys())
}

func TestTimerKeyIgnoresAddressCase(t *testing.T) {
	timers := NewTimers(redistest.NewFake())
	ctx := context.Background()

	require.NoError(t, timers.Set(ctx, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", time.UnixMilli(5)))
	_, ok, err := timers.Get(ctx, alice)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestActiveDeletesExpiredTimer(t *testing.T) {
	fake := redistest.NewFake()
	timers := NewTimers(fake)
	ctx := context.Background()
	next := time.Unix(1_700_000_000, 0)
	require.NoError(t, timers.Set(ctx, alice, next))

	got, ok, err := timers.Active(ctx, alice, next.Add(-time.Second))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got.Equal(next))

	_, ok, err = timers.Active(ctx, alice, next)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, fake.Keys())
}

func TestChecklist(t *testing.T) {
	fake := redistest.NewFake()
	checklist := NewChecklist(fake, []string{"telegram", " Twitter ", "youtube"})
	ctx := context.Background()

	missing, err := checklist.Missing(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"telegram", "twitter", "youtube"}, missing)

	require.NoError(t, checklist.MarkFollowed(ctx, alice, "telegram"))
	require.NoError(t, checklist.MarkFollowed(ctx, alice, "TWITTER"))

	missing, err = checklist.Missing(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"youtube"}, missing)

	flags, err := checklist.Followed(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"telegram": false, "twitter": false, "youtube": false}, flags)

	assert.Contains(t, fake.Keys(), "telegram_followed_"+alice)
}

func TestChecklistRejectsUnknownPlatform(t *testing.T) {
	checklist := NewChecklist(redistest.NewFake(), []string{"telegram"})

	err := checklist.MarkFollowed(context.Background(), alice, "myspace")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestReferencesExpire(t *testing.T) {
	fake := redistest.NewFake()
	now := time.Unix(1_700_000_000, 0)
	fake.Now = func() time.Time { return now }
	refs := NewReferences(fake, time.Hour)
	ctx := context.Background()

	require.NoError(t, refs.Put(ctx, alice, "claim-1-abc"))
	ref, ok, err := refs.Get(ctx, alice)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "claim-1-abc", ref)

	now = now.Add(time.Hour)
	_, ok, err = refs.Get(ctx, alice)
	require.NoError(t, err)
	assert.False(t, ok)
}
