package service_test

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/repository"
)

// fakeTx satisfies pgx.Tx for the methods the services touch.
type fakeTx struct {
	pgx.Tx
}

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

type fakeTxBeginner struct{}

func (fakeTxBeginner) Begin(context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

type fakeAccountRepo struct {
	accounts map[string]domain.Account
	users    *fakeUserRepo
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]domain.Account)}
}

func (r *fakeAccountRepo) WithTx(pgx.Tx) repository.AccountRepository { return r }

func (r *fakeAccountRepo) Create(_ context.Context, account domain.Account) (domain.Account, error) {
	for _, existing := range r.accounts {
		if existing.Provider == account.Provider && account.Email != "" && strings.EqualFold(existing.Email, account.Email) {
			return domain.Account{}, uniqueViolation()
		}
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	r.accounts[account.ID] = account
	return account, nil
}

func (r *fakeAccountRepo) FindByID(_ context.Context, id string) (domain.Account, error) {
	account, ok := r.accounts[id]
	if !ok {
		return domain.Account{}, pgx.ErrNoRows
	}
	account.PasswordHash = ""
	if account.UserID != "" && r.users != nil {
		if user, ok := r.users.users[account.UserID]; ok {
			account.User = &user
		}
	}
	return account, nil
}

func (r *fakeAccountRepo) FindLocalByEmail(ctx context.Context, email string) (domain.Account, error) {
	account, err := r.FindLocalByEmailWithPassword(ctx, email)
	account.PasswordHash = ""
	return account, err
}

func (r *fakeAccountRepo) FindLocalByEmailWithPassword(_ context.Context, email string) (domain.Account, error) {
	for _, account := range r.accounts {
		if account.Provider == domain.ProviderLocal && strings.EqualFold(account.Email, email) {
			return account, nil
		}
	}
	return domain.Account{}, pgx.ErrNoRows
}

func (r *fakeAccountRepo) FindByProvider(_ context.Context, provider domain.Provider, providerUserID, email string) (domain.Account, error) {
	var byEmail *domain.Account
	for id := range r.accounts {
		account := r.accounts[id]
		if account.Provider != provider {
			continue
		}
		if account.ProviderUserID == providerUserID {
			account.PasswordHash = ""
			return account, nil
		}
		if email != "" && strings.EqualFold(account.Email, email) {
			byEmail = &account
		}
	}
	if byEmail != nil {
		byEmail.PasswordHash = ""
		return *byEmail, nil
	}
	return domain.Account{}, pgx.ErrNoRows
}

func (r *fakeAccountRepo) FindVerifiedLinkedByEmail(_ context.Context, email string) (domain.Account, error) {
	for _, account := range r.accounts {
		if account.Verified && account.UserID != "" && strings.EqualFold(account.Email, email) {
			account.PasswordHash = ""
			return account, nil
		}
	}
	return domain.Account{}, pgx.ErrNoRows
}

func (r *fakeAccountRepo) FindAssignable(_ context.Context, email, excludeAccountID string) ([]domain.Account, error) {
	var out []domain.Account
	for _, account := range r.accounts {
		if account.ID == excludeAccountID || !account.Verified || account.UserID != "" {
			continue
		}
		if strings.EqualFold(account.Email, email) {
			account.PasswordHash = ""
			out = append(out, account)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) AssignUser(_ context.Context, userID string, accountIDs []string) error {
	for _, id := range accountIDs {
		if account, ok := r.accounts[id]; ok {
			account.UserID = userID
			r.accounts[id] = account
		}
	}
	return nil
}

func (r *fakeAccountRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	account, ok := r.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	account.LastLoginAt = &at
	r.accounts[id] = account
	return nil
}

type fakeTokenRepo struct {
	records map[string]domain.AuthToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{records: make(map[string]domain.AuthToken)}
}

func tokenKey(accountID, device string) string { return accountID + "|" + device }

func (r *fakeTokenRepo) WithTx(pgx.Tx) repository.TokenRepository { return r }

func (r *fakeTokenRepo) Upsert(_ context.Context, record domain.AuthToken) (domain.AuthToken, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	r.records[tokenKey(record.AccountID, record.Device)] = record
	return record, nil
}

func (r *fakeTokenRepo) FindByAccountDevice(_ context.Context, accountID, device string) (domain.AuthToken, error) {
	record, ok := r.records[tokenKey(accountID, device)]
	if !ok {
		return domain.AuthToken{}, pgx.ErrNoRows
	}
	return record, nil
}

func (r *fakeTokenRepo) Delete(_ context.Context, accountID, device string) error {
	delete(r.records, tokenKey(accountID, device))
	return nil
}

type fakeUserRepo struct {
	users map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.User)}
}

func (r *fakeUserRepo) WithTx(pgx.Tx) repository.UserRepository { return r }

func (r *fakeUserRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (domain.User, error) {
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (r *fakeUserRepo) Update(_ context.Context, user domain.User) (domain.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505"}
}

type fakeWalletRepo struct {
	wallets map[string]domain.Wallet
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{wallets: make(map[string]domain.Wallet)}
}

func (r *fakeWalletRepo) nameTaken(wallet domain.Wallet) bool {
	for _, existing := range r.wallets {
		if existing.ID != wallet.ID && existing.UserID == wallet.UserID && existing.Name == wallet.Name {
			return true
		}
	}
	return false
}

func (r *fakeWalletRepo) Create(_ context.Context, wallet domain.Wallet) (domain.Wallet, error) {
	if r.nameTaken(wallet) {
		return domain.Wallet{}, uniqueViolation()
	}
	if wallet.ID == "" {
		wallet.ID = uuid.NewString()
	}
	r.wallets[wallet.ID] = wallet
	return wallet, nil
}

func (r *fakeWalletRepo) ListByUser(_ context.Context, userID string) ([]domain.Wallet, error) {
	var out []domain.Wallet
	for _, wallet := range r.wallets {
		if wallet.UserID == userID {
			out = append(out, wallet)
		}
	}
	return out, nil
}

func (r *fakeWalletRepo) FindByID(_ context.Context, userID, id string) (domain.Wallet, error) {
	wallet, ok := r.wallets[id]
	if !ok || wallet.UserID != userID {
		return domain.Wallet{}, pgx.ErrNoRows
	}
	return wallet, nil
}

func (r *fakeWalletRepo) Update(_ context.Context, wallet domain.Wallet) (domain.Wallet, error) {
	existing, ok := r.wallets[wallet.ID]
	if !ok || existing.UserID != wallet.UserID {
		return domain.Wallet{}, pgx.ErrNoRows
	}
	if r.nameTaken(wallet) {
		return domain.Wallet{}, uniqueViolation()
	}
	r.wallets[wallet.ID] = wallet
	return wallet, nil
}

func (r *fakeWalletRepo) Delete(_ context.Context, userID, id string) error {
	wallet, ok := r.wallets[id]
	if !ok || wallet.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(r.wallets, id)
	return nil
}

type fakeGroupRepo struct {
	groups      map[string]domain.ExpenseGroup
	hasExpenses map[string]bool
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		groups:      make(map[string]domain.ExpenseGroup),
		hasExpenses: make(map[string]bool),
	}
}

func (r *fakeGroupRepo) WithTx(pgx.Tx) repository.ExpenseGroupRepository { return r }

func (r *fakeGroupRepo) Create(_ context.Context, group domain.ExpenseGroup) (domain.ExpenseGroup, error) {
	for _, existing := range r.groups {
		if existing.ID != group.ID && existing.CreatedBy == group.CreatedBy && existing.Name == group.Name {
			return domain.ExpenseGroup{}, uniqueViolation()
		}
	}
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	r.groups[group.ID] = group
	return group, nil
}

func (r *fakeGroupRepo) ListVisible(_ context.Context, userID string) ([]domain.ExpenseGroup, error) {
	var out []domain.ExpenseGroup
	for _, group := range r.groups {
		if group.CreatedBy == "" || group.CreatedBy == userID {
			out = append(out, group)
		}
	}
	return out, nil
}

func (r *fakeGroupRepo) FindOwned(_ context.Context, userID, id string) (domain.ExpenseGroup, error) {
	group, ok := r.groups[id]
	if !ok || group.CreatedBy != userID {
		return domain.ExpenseGroup{}, pgx.ErrNoRows
	}
	return group, nil
}

func (r *fakeGroupRepo) FindVisible(_ context.Context, userID, id string) (domain.ExpenseGroup, error) {
	group, ok := r.groups[id]
	if !ok || (group.CreatedBy != "" && group.CreatedBy != userID) {
		return domain.ExpenseGroup{}, pgx.ErrNoRows
	}
	return group, nil
}

func (r *fakeGroupRepo) Update(_ context.Context, group domain.ExpenseGroup) (domain.ExpenseGroup, error) {
	if _, ok := r.groups[group.ID]; !ok {
		return domain.ExpenseGroup{}, pgx.ErrNoRows
	}
	r.groups[group.ID] = group
	return group, nil
}

func (r *fakeGroupRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.groups[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.groups, id)
	return nil
}

func (r *fakeGroupRepo) HasExpenses(_ context.Context, groupID string) (bool, error) {
	return r.hasExpenses[groupID], nil
}

type fakeMethodRepo struct {
	methods         map[string]domain.PaymentMethod
	hasInstallments map[string]bool
}

func newFakeMethodRepo() *fakeMethodRepo {
	return &fakeMethodRepo{
		methods:         make(map[string]domain.PaymentMethod),
		hasInstallments: make(map[string]bool),
	}
}

func (r *fakeMethodRepo) WithTx(pgx.Tx) repository.PaymentMethodRepository { return r }

func (r *fakeMethodRepo) Create(_ context.Context, method domain.PaymentMethod) (domain.PaymentMethod, error) {
	for _, existing := range r.methods {
		if existing.ID != method.ID && existing.UserID == method.UserID && existing.Name == method.Name {
			return domain.PaymentMethod{}, uniqueViolation()
		}
	}
	if method.ID == "" {
		method.ID = uuid.NewString()
	}
	r.methods[method.ID] = method
	return method, nil
}

func (r *fakeMethodRepo) ListByUser(_ context.Context, userID string) ([]domain.PaymentMethod, error) {
	var out []domain.PaymentMethod
	for _, method := range r.methods {
		if method.UserID == userID {
			out = append(out, method)
		}
	}
	return out, nil
}

func (r *fakeMethodRepo) FindByID(_ context.Context, userID, id string) (domain.PaymentMethod, error) {
	method, ok := r.methods[id]
	if !ok || method.UserID != userID {
		return domain.PaymentMethod{}, pgx.ErrNoRows
	}
	return method, nil
}

func (r *fakeMethodRepo) Update(_ context.Context, method domain.PaymentMethod) (domain.PaymentMethod, error) {
	existing, ok := r.methods[method.ID]
	if !ok || existing.UserID != method.UserID {
		return domain.PaymentMethod{}, pgx.ErrNoRows
	}
	r.methods[method.ID] = method
	return method, nil
}

func (r *fakeMethodRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.methods[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.methods, id)
	return nil
}

func (r *fakeMethodRepo) HasInstallments(_ context.Context, methodID string) (bool, error) {
	return r.hasInstallments[methodID], nil
}

type fakeExpenseRepo struct {
	expenses     map[string]domain.Expense
	installments *fakeInstallmentRepo
}

func newFakeExpenseRepo(installments *fakeInstallmentRepo) *fakeExpenseRepo {
	return &fakeExpenseRepo{
		expenses:     make(map[string]domain.Expense),
		installments: installments,
	}
}

func (r *fakeExpenseRepo) WithTx(pgx.Tx) repository.ExpenseRepository { return r }

func (r *fakeExpenseRepo) Create(_ context.Context, expense domain.Expense) (domain.Expense, error) {
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	r.expenses[expense.ID] = expense
	return expense, nil
}

func (r *fakeExpenseRepo) FindByID(_ context.Context, userID, id string) (domain.Expense, error) {
	expense, ok := r.expenses[id]
	if !ok || expense.UserID != userID {
		return domain.Expense{}, pgx.ErrNoRows
	}
	return expense, nil
}

func (r *fakeExpenseRepo) FindByIDWithInstallments(ctx context.Context, userID, id string) (domain.Expense, error) {
	expense, err := r.FindByID(ctx, userID, id)
	if err != nil {
		return domain.Expense{}, err
	}
	for _, installment := range r.installments.items {
		if installment.ExpenseID == id {
			expense.Installments = append(expense.Installments, installment)
		}
	}
	return expense, nil
}

func (r *fakeExpenseRepo) Update(_ context.Context, expense domain.Expense) (domain.Expense, error) {
	existing, ok := r.expenses[expense.ID]
	if !ok || existing.UserID != expense.UserID {
		return domain.Expense{}, pgx.ErrNoRows
	}
	r.expenses[expense.ID] = expense
	return expense, nil
}

func (r *fakeExpenseRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.expenses[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.expenses, id)
	for installmentID, installment := range r.installments.items {
		if installment.ExpenseID == id {
			delete(r.installments.items, installmentID)
		}
	}
	return nil
}

type fakeInstallmentRepo struct {
	items map[string]domain.Installment
}

func newFakeInstallmentRepo() *fakeInstallmentRepo {
	return &fakeInstallmentRepo{items: make(map[string]domain.Installment)}
}

func (r *fakeInstallmentRepo) WithTx(pgx.Tx) repository.InstallmentRepository { return r }

func (r *fakeInstallmentRepo) Create(_ context.Context, installment domain.Installment) (domain.Installment, error) {
	if installment.ID == "" {
		installment.ID = uuid.NewString()
	}
	r.items[installment.ID] = installment
	return installment, nil
}

func (r *fakeInstallmentRepo) CreateBatch(ctx context.Context, installments []domain.Installment) error {
	for _, installment := range installments {
		if _, err := r.Create(ctx, installment); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeInstallmentRepo) List(_ context.Context, userID string, filter repository.InstallmentFilter) ([]domain.Installment, int64, error) {
	var out []domain.Installment
	for _, installment := range r.items {
		if installment.UserID != userID {
			continue
		}
		if filter.ExpenseID != "" && installment.ExpenseID != filter.ExpenseID {
			continue
		}
		if filter.Status != "" && installment.Status != filter.Status {
			continue
		}
		out = append(out, installment)
	}
	return out, int64(len(out)), nil
}

func (r *fakeInstallmentRepo) FindByID(_ context.Context, userID, id string) (domain.Installment, error) {
	installment, ok := r.items[id]
	if !ok || installment.UserID != userID {
		return domain.Installment{}, pgx.ErrNoRows
	}
	return installment, nil
}

func (r *fakeInstallmentRepo) Update(_ context.Context, installment domain.Installment) (domain.Installment, error) {
	existing, ok := r.items[installment.ID]
	if !ok || existing.UserID != installment.UserID {
		return domain.Installment{}, pgx.ErrNoRows
	}
	r.items[installment.ID] = installment
	return installment, nil
}

func (r *fakeInstallmentRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}
