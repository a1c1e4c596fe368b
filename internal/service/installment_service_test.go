package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/repository"
	"github.com/francopiloto/finance-api/internal/service"
)

func newInstallmentFixture(t *testing.T) (*service.InstallmentService, *fakeInstallmentRepo, *fakeMethodRepo, *fakeExpenseRepo) {
	t.Helper()
	installments := newFakeInstallmentRepo()
	methods := newFakeMethodRepo()
	expenses := newFakeExpenseRepo(installments)
	_, err := expenses.Create(context.Background(), domain.Expense{ID: "exp-1", UserID: "user-1", GroupID: "grp-1"})
	require.NoError(t, err)
	return service.NewInstallmentService(installments, methods, expenses, zap.NewNop()), installments, methods, expenses
}

func seedInstallment(t *testing.T, repo *fakeInstallmentRepo, status domain.InstallmentStatus) domain.Installment {
	t.Helper()
	installment, err := repo.Create(context.Background(), domain.Installment{
		ExpenseID:    "exp-1",
		UserID:       "user-1",
		Status:       status,
		Value:        49.9,
		BillingMonth: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return installment
}

func TestInstallmentCreateStartsPending(t *testing.T) {
	svc, _, methods, _ := newInstallmentFixture(t)
	method, err := methods.Create(context.Background(), domain.PaymentMethod{UserID: "user-1", Name: "Visa"})
	require.NoError(t, err)

	created, err := svc.Create(context.Background(), "user-1", "exp-1", service.CreateInstallmentInput{
		Value:           120.5,
		BillingMonth:    time.Date(2026, time.April, 17, 9, 30, 0, 0, time.UTC),
		PaymentMethodID: method.ID,
	})
	require.NoError(t, err)
	require.Equal(t, domain.InstallmentPending, created.Status)
	require.Equal(t, "exp-1", created.ExpenseID)
	require.Equal(t, 120.5, created.Value)
	require.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), created.BillingMonth)
	require.Equal(t, method.ID, created.PaymentMethodID)
}

func TestInstallmentCreateForeignExpense(t *testing.T) {
	svc, _, _, expenses := newInstallmentFixture(t)
	_, err := expenses.Create(context.Background(), domain.Expense{ID: "exp-2", UserID: "someone-else"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "user-1", "exp-2", service.CreateInstallmentInput{
		Value:        10,
		BillingMonth: time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
	})
	apiErr := apiError(t, err)
	require.Equal(t, 404, apiErr.Status)
}

func TestInstallmentDeleteOnlyPending(t *testing.T) {
	svc, installments, _, _ := newInstallmentFixture(t)
	pending := seedInstallment(t, installments, domain.InstallmentPending)

	require.NoError(t, svc.Delete(context.Background(), "user-1", pending.ID))
	_, err := installments.FindByID(context.Background(), "user-1", pending.ID)
	require.Error(t, err)

	for _, status := range []domain.InstallmentStatus{domain.InstallmentScheduled, domain.InstallmentPaid} {
		installment := seedInstallment(t, installments, status)
		err := svc.Delete(context.Background(), "user-1", installment.ID)
		apiErr := apiError(t, err)
		require.Equal(t, "installment_not_pending", apiErr.Code)
		require.Equal(t, 409, apiErr.Status)
	}
}

func TestInstallmentStatusTransitions(t *testing.T) {
	cases := []struct {
		name string
		from domain.InstallmentStatus
		to   domain.InstallmentStatus
		ok   bool
	}{
		{"pending to scheduled", domain.InstallmentPending, domain.InstallmentScheduled, true},
		{"pending to paid", domain.InstallmentPending, domain.InstallmentPaid, true},
		{"scheduled to paid", domain.InstallmentScheduled, domain.InstallmentPaid, true},
		{"scheduled to pending", domain.InstallmentScheduled, domain.InstallmentPending, false},
		{"paid to pending", domain.InstallmentPaid, domain.InstallmentPending, false},
		{"paid to scheduled", domain.InstallmentPaid, domain.InstallmentScheduled, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, installments, _, _ := newInstallmentFixture(t)
			installment := seedInstallment(t, installments, tc.from)

			updated, err := svc.Update(context.Background(), "user-1", installment.ID, service.UpdateInstallmentInput{Status: tc.to})
			if !tc.ok {
				apiErr := apiError(t, err)
				require.Equal(t, "invalid_status_transition", apiErr.Code)
				require.Equal(t, 409, apiErr.Status)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.to, updated.Status)
		})
	}
}

func TestInstallmentPaidSetsPaidAt(t *testing.T) {
	svc, installments, _, _ := newInstallmentFixture(t)
	installment := seedInstallment(t, installments, domain.InstallmentPending)

	updated, err := svc.Update(context.Background(), "user-1", installment.ID, service.UpdateInstallmentInput{
		Status: domain.InstallmentPaid,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.PaidAt)
	require.WithinDuration(t, time.Now().UTC(), *updated.PaidAt, time.Minute)
}

func TestInstallmentPaidHonorsExplicitPaidAt(t *testing.T) {
	svc, installments, _, _ := newInstallmentFixture(t)
	installment := seedInstallment(t, installments, domain.InstallmentScheduled)

	paidAt := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)
	updated, err := svc.Update(context.Background(), "user-1", installment.ID, service.UpdateInstallmentInput{
		Status: domain.InstallmentPaid,
		PaidAt: &paidAt,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.PaidAt)
	require.Equal(t, paidAt, *updated.PaidAt)
}

func TestInstallmentPaidMethodImmutable(t *testing.T) {
	svc, installments, methods, _ := newInstallmentFixture(t)
	installment := seedInstallment(t, installments, domain.InstallmentPaid)
	method, err := methods.Create(context.Background(), domain.PaymentMethod{UserID: "user-1", Name: "Visa"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "user-1", installment.ID, service.UpdateInstallmentInput{
		PaymentMethodID: &method.ID,
	})
	apiErr := apiError(t, err)
	require.Equal(t, "installment_paid", apiErr.Code)
	require.Equal(t, 409, apiErr.Status)
}

func TestInstallmentScheduledMethodImmutable(t *testing.T) {
	svc, installments, methods, _ := newInstallmentFixture(t)
	installment := seedInstallment(t, installments, domain.InstallmentScheduled)
	method, err := methods.Create(context.Background(), domain.PaymentMethod{UserID: "user-1", Name: "Visa"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "user-1", installment.ID, service.UpdateInstallmentInput{
		PaymentMethodID: &method.ID,
	})
	apiErr := apiError(t, err)
	require.Equal(t, "installment_scheduled", apiErr.Code)
	require.Equal(t, 409, apiErr.Status)

	updated, err := svc.Update(context.Background(), "user-1", installment.ID, service.UpdateInstallmentInput{
		Status: domain.InstallmentPaid,
	})
	require.NoError(t, err)
	require.Equal(t, domain.InstallmentPaid, updated.Status)
}

func TestInstallmentReassignPaymentMethod(t *testing.T) {
	svc, installments, methods, _ := newInstallmentFixture(t)
	installment := seedInstallment(t, installments, domain.InstallmentPending)
	method, err := methods.Create(context.Background(), domain.PaymentMethod{UserID: "user-1", Name: "Visa"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), "user-1", installment.ID, service.UpdateInstallmentInput{
		PaymentMethodID: &method.ID,
	})
	require.NoError(t, err)
	require.Equal(t, method.ID, updated.PaymentMethodID)

	cleared := ""
	updated, err = svc.Update(context.Background(), "user-1", installment.ID, service.UpdateInstallmentInput{
		PaymentMethodID: &cleared,
	})
	require.NoError(t, err)
	require.Empty(t, updated.PaymentMethodID)
}

func TestInstallmentForeignPaymentMethod(t *testing.T) {
	svc, installments, methods, _ := newInstallmentFixture(t)
	installment := seedInstallment(t, installments, domain.InstallmentPending)
	method, err := methods.Create(context.Background(), domain.PaymentMethod{UserID: "someone-else", Name: "Amex"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "user-1", installment.ID, service.UpdateInstallmentInput{
		PaymentMethodID: &method.ID,
	})
	apiErr := apiError(t, err)
	require.Equal(t, 404, apiErr.Status)
}

func TestInstallmentListScopedToUser(t *testing.T) {
	svc, installments, _, _ := newInstallmentFixture(t)
	seedInstallment(t, installments, domain.InstallmentPending)
	_, err := installments.Create(context.Background(), domain.Installment{
		ExpenseID: "exp-2",
		UserID:    "someone-else",
		Status:    domain.InstallmentPending,
	})
	require.NoError(t, err)

	items, total, err := svc.List(context.Background(), "user-1", repository.InstallmentFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	require.Equal(t, "user-1", items[0].UserID)
}
