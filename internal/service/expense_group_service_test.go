package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/service"
)

func newGroupFixture() (*service.ExpenseGroupService, *fakeGroupRepo) {
	groups := newFakeGroupRepo()
	return service.NewExpenseGroupService(groups, zap.NewNop()), groups
}

func TestExpenseGroupListIncludesShared(t *testing.T) {
	svc, groups := newGroupFixture()

	_, err := groups.Create(context.Background(), domain.ExpenseGroup{Name: "Housing"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "user-1", "Pets")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "user-2", "Boat")
	require.NoError(t, err)

	visible, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, visible, 2)
}

func TestExpenseGroupCreateDuplicateName(t *testing.T) {
	svc, _ := newGroupFixture()

	_, err := svc.Create(context.Background(), "user-1", "Pets")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "user-1", "Pets")
	apiErr := apiError(t, err)
	require.Equal(t, "group_name_in_use", apiErr.Code)
	require.Equal(t, 409, apiErr.Status)
}

func TestExpenseGroupSharedIsReadOnly(t *testing.T) {
	svc, groups := newGroupFixture()

	shared, err := groups.Create(context.Background(), domain.ExpenseGroup{Name: "Housing"})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), "user-1", shared.ID)
	require.NoError(t, err)
	require.Equal(t, shared.ID, got.ID)

	_, err = svc.Update(context.Background(), "user-1", shared.ID, "Mine now")
	apiErr := apiError(t, err)
	require.Equal(t, 404, apiErr.Status)

	err = svc.Delete(context.Background(), "user-1", shared.ID)
	apiErr = apiError(t, err)
	require.Equal(t, 404, apiErr.Status)
}

func TestExpenseGroupDeleteInUse(t *testing.T) {
	svc, groups := newGroupFixture()

	group, err := svc.Create(context.Background(), "user-1", "Pets")
	require.NoError(t, err)
	groups.hasExpenses[group.ID] = true

	err = svc.Delete(context.Background(), "user-1", group.ID)
	apiErr := apiError(t, err)
	require.Equal(t, "group_in_use", apiErr.Code)
	require.Equal(t, 409, apiErr.Status)
	require.Contains(t, groups.groups, group.ID)
}

func TestExpenseGroupDeleteOwned(t *testing.T) {
	svc, groups := newGroupFixture()

	group, err := svc.Create(context.Background(), "user-1", "Pets")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "user-1", group.ID))
	require.NotContains(t, groups.groups, group.ID)
}
