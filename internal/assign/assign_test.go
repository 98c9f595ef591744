package assign

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/service-center/internal/apperr"
	"github.com/ukydev/service-center/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeWorkload struct {
	counts map[string]int64
	err    error
}

func (f fakeWorkload) CountAssigned(ctx context.Context, mechanicID string) (int64, error) {
	return f.counts[mechanicID], f.err
}

func roster(n int) []models.User {
	users := make([]models.User, n)
	for i := range users {
		users[i] = models.User{ID: primitive.NewObjectID(), Role: models.RoleMechanic}
	}
	return users
}

func TestLeastLoaded_PicksFewestAssigned(t *testing.T) {
	mechanics := roster(3)
	p := &LeastLoaded{Workload: fakeWorkload{counts: map[string]int64{
		mechanics[0].ID.Hex(): 4,
		mechanics[1].ID.Hex(): 1,
		mechanics[2].ID.Hex(): 2,
	}}}

	id, err := p.Assign(context.Background(), mechanics)
	require.NoError(t, err)
	assert.Equal(t, mechanics[1].ID.Hex(), id)
}

func TestLeastLoaded_TieGoesToFirst(t *testing.T) {
	mechanics := roster(3)
	p := &LeastLoaded{Workload: fakeWorkload{counts: map[string]int64{
		mechanics[0].ID.Hex(): 2,
		mechanics[1].ID.Hex(): 1,
		mechanics[2].ID.Hex(): 1,
	}}}

	id, err := p.Assign(context.Background(), mechanics)
	require.NoError(t, err)
	assert.Equal(t, mechanics[1].ID.Hex(), id)

	p.Workload = fakeWorkload{counts: map[string]int64{}}
	id, err = p.Assign(context.Background(), mechanics)
	require.NoError(t, err)
	assert.Equal(t, mechanics[0].ID.Hex(), id)
}

func TestLeastLoaded_Errors(t *testing.T) {
	p := &LeastLoaded{Workload: fakeWorkload{}}
	_, err := p.Assign(context.Background(), nil)
	assert.ErrorIs(t, err, apperr.ErrNoMechanicAvailable)

	p.Workload = fakeWorkload{err: assert.AnError}
	_, err = p.Assign(context.Background(), roster(1))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRandom_PicksFromRoster(t *testing.T) {
	mechanics := roster(4)
	members := map[string]bool{}
	for _, m := range mechanics {
		members[m.ID.Hex()] = true
	}

	p := NewRandom(42)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id, err := p.Assign(context.Background(), mechanics)
		require.NoError(t, err)
		assert.True(t, members[id])
		seen[id] = true
	}
	assert.Len(t, seen, 4, "every mechanic is eventually chosen")

	_, err := p.Assign(context.Background(), []models.User{})
	assert.ErrorIs(t, err, apperr.ErrNoMechanicAvailable)
}

func TestNew(t *testing.T) {
	p, err := New(StrategyLeastLoaded, fakeWorkload{})
	require.NoError(t, err)
	assert.IsType(t, &LeastLoaded{}, p)

	p, err = New("", fakeWorkload{})
	require.NoError(t, err)
	assert.IsType(t, &LeastLoaded{}, p)

	p, err = New(StrategyRandom, nil)
	require.NoError(t, err)
	assert.IsType(t, &Random{}, p)

	_, err = New(StrategyLeastLoaded, nil)
	assert.Error(t, err)

	_, err = New("round_robin", fakeWorkload{})
	assert.Error(t, err)
}
