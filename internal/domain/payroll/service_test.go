package payroll

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folha/internal/domain/rules"
)

type fakeStore struct {
	periods   map[string]*Period
	runs      []EmployeeRun
	entries   map[string][]Entry
	nextID    int
	statusErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{periods: map[string]*Period{}, entries: map[string][]Entry{}}
}

func (f *fakeStore) CreatePeriod(_ context.Context, year, month int) (Period, error) {
	f.nextID++
	id := fmt.Sprintf("period-%d", f.nextID)
	period := Period{ID: id, Year: year, Month: month, Status: PeriodStatusDraft, CreatedAt: time.Now()}
	f.periods[id] = &period
	return period, nil
}

func (f *fakeStore) GetPeriod(_ context.Context, id string) (Period, error) {
	period, ok := f.periods[id]
	if !ok {
		return Period{}, ErrPeriodNotFound
	}
	return *period, nil
}

func (f *fakeStore) ListPeriods(_ context.Context, _, _ int) ([]Period, error) {
	var out []Period
	for _, p := range f.periods {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) OpenPeriodExists(_ context.Context) (bool, error) {
	for _, p := range f.periods {
		if IsOpen(p.Status) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) UpdatePeriodStatus(_ context.Context, id, status string) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	period, ok := f.periods[id]
	if !ok {
		return ErrPeriodNotFound
	}
	period.Status = status
	return nil
}

func (f *fakeStore) SetPeriodAggregates(_ context.Context, id string, snapshot PeriodSnapshot) error {
	period, ok := f.periods[id]
	if !ok {
		return ErrPeriodNotFound
	}
	period.TotalGross = snapshot.TotalGross
	period.TotalNet = snapshot.TotalNet
	period.TotalDeductions = snapshot.TotalDeductions
	period.TotalEmployerCost = snapshot.TotalEmployerCost
	period.EmployeeCount = snapshot.EmployeeCount
	return nil
}

func (f *fakeStore) ListEmployeeRuns(_ context.Context, _, _ int) ([]EmployeeRun, error) {
	return f.runs, nil
}

func (f *fakeStore) ReplaceEntries(_ context.Context, periodID string, entries []Entry) error {
	period, ok := f.periods[periodID]
	if !ok {
		return ErrPeriodNotFound
	}
	if !IsOpen(period.Status) {
		return ErrPeriodImmutable
	}
	f.entries[periodID] = entries
	return nil
}

func (f *fakeStore) ListEntries(_ context.Context, periodID string) ([]Entry, error) {
	return f.entries[periodID], nil
}

type fakeDeductions struct {
	due     map[string]decimal.Decimal
	applied []string
}

func (f *fakeDeductions) DueTotal(_ context.Context, employeeID string) (decimal.Decimal, error) {
	return f.due[employeeID], nil
}

func (f *fakeDeductions) ApplyDueInstallments(_ context.Context, employeeID, _ string) error {
	f.applied = append(f.applied, employeeID)
	return nil
}

type fakeAudit struct {
	actions []string
}

func (f *fakeAudit) Record(_ context.Context, action, _, _, _ string, _, _ any) error {
	f.actions = append(f.actions, action)
	return nil
}

type fakeCreds struct{ fail bool }

func (f *fakeCreds) VerifyPassword(_ context.Context, _, _ string) error {
	if f.fail {
		return errors.New("invalid credentials")
	}
	return nil
}

type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) TableChanged(table, action, id string) {
	f.events = append(f.events, table+":"+action)
}

type serviceEnv struct {
	store    *fakeStore
	deds     *fakeDeductions
	audit    *fakeAudit
	creds    *fakeCreds
	notifier *fakeNotifier
	svc      *Service
}

func newServiceEnv() *serviceEnv {
	env := &serviceEnv{
		store:    newFakeStore(),
		deds:     &fakeDeductions{due: map[string]decimal.Decimal{}},
		audit:    &fakeAudit{},
		creds:    &fakeCreds{},
		notifier: &fakeNotifier{},
	}
	env.svc = NewService(env.store, rules.DefaultTable(), env.deds, env.audit, env.creds, env.notifier)
	return env
}

func activeRun(id string, base int64) EmployeeRun {
	return EmployeeRun{
		EmployeeID: id,
		HiredAt:    time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC),
		Compensation: CompensationInput{
			EmployeeID: id,
			BaseSalary: decimal.NewFromInt(base),
		},
	}
}

func TestCreatePeriodSingleOpenGuard(t *testing.T) {
	env := newServiceEnv()
	ctx := context.Background()

	_, err := env.svc.CreatePeriod(ctx, 2025, 5)
	require.NoError(t, err)

	_, err = env.svc.CreatePeriod(ctx, 2025, 6)
	assert.ErrorIs(t, err, ErrPeriodOpenExists)
}

func TestCalculateAggregatesAndTransition(t *testing.T) {
	env := newServiceEnv()
	ctx := context.Background()
	env.store.runs = []EmployeeRun{activeRun("emp-1", 220_000), activeRun("emp-2", 150_000)}
	env.deds.due["emp-1"] = decimal.NewFromInt(10_000)

	period, err := env.svc.CreatePeriod(ctx, 2025, 5)
	require.NoError(t, err)

	entries, err := env.svc.Calculate(ctx, period.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	got, err := env.svc.GetPeriod(ctx, period.ID)
	require.NoError(t, err)
	assert.Equal(t, PeriodStatusCalculated, got.Status)
	assert.Equal(t, 2, got.EmployeeCount)
	assert.True(t, got.TotalGross.Equal(entries[0].GrossSalary.Add(entries[1].GrossSalary)))
	assert.Contains(t, env.audit.actions, "payroll_calculated")
	assert.Contains(t, env.notifier.events, "payroll_periods:update")
}

func TestCalculateIsIdempotent(t *testing.T) {
	env := newServiceEnv()
	ctx := context.Background()
	env.store.runs = []EmployeeRun{activeRun("emp-1", 220_000)}

	period, err := env.svc.CreatePeriod(ctx, 2025, 5)
	require.NoError(t, err)

	first, err := env.svc.Calculate(ctx, period.ID)
	require.NoError(t, err)
	second, err := env.svc.Calculate(ctx, period.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCalculateRejectedOnceCommitted(t *testing.T) {
	env := newServiceEnv()
	ctx := context.Background()
	env.store.runs = []EmployeeRun{activeRun("emp-1", 220_000)}

	period, err := env.svc.CreatePeriod(ctx, 2025, 5)
	require.NoError(t, err)
	_, err = env.svc.Calculate(ctx, period.ID)
	require.NoError(t, err)
	require.NoError(t, env.svc.Approve(ctx, period.ID, "admin", "secret"))

	_, err = env.svc.Calculate(ctx, period.ID)
	assert.ErrorIs(t, err, ErrPeriodImmutable)
}

func TestApproveAppliesInstallmentsAndFreezes(t *testing.T) {
	env := newServiceEnv()
	ctx := context.Background()
	env.store.runs = []EmployeeRun{activeRun("emp-1", 220_000), activeRun("emp-2", 150_000)}
	env.deds.due["emp-1"] = decimal.NewFromInt(20_000)

	period, err := env.svc.CreatePeriod(ctx, 2025, 5)
	require.NoError(t, err)
	_, err = env.svc.Calculate(ctx, period.ID)
	require.NoError(t, err)

	require.NoError(t, env.svc.Approve(ctx, period.ID, "admin", "secret"))

	// Only the employee with a due installment gets one applied.
	assert.Equal(t, []string{"emp-1"}, env.deds.applied)

	got, _ := env.svc.GetPeriod(ctx, period.ID)
	assert.Equal(t, PeriodStatusApproved, got.Status)
}

func TestApproveRejectsStaleEntries(t *testing.T) {
	env := newServiceEnv()
	ctx := context.Background()
	env.store.runs = []EmployeeRun{activeRun("emp-1", 220_000)}
	env.deds.due["emp-1"] = decimal.NewFromInt(10_000)

	period, err := env.svc.CreatePeriod(ctx, 2025, 5)
	require.NoError(t, err)
	_, err = env.svc.Calculate(ctx, period.ID)
	require.NoError(t, err)

	// A deduction created after Calculate changes the due total; the
	// frozen entries no longer withhold it.
	env.deds.due["emp-1"] = decimal.NewFromInt(25_000)

	err = env.svc.Approve(ctx, period.ID, "admin", "secret")
	assert.ErrorIs(t, err, ErrEntriesStale)
	assert.Empty(t, env.deds.applied, "no balance may amortize against stale entries")

	got, _ := env.svc.GetPeriod(ctx, period.ID)
	assert.Equal(t, PeriodStatusCalculated, got.Status)
}

func TestApproveLeavesBalancesUntouchedOnFailedTransition(t *testing.T) {
	env := newServiceEnv()
	ctx := context.Background()
	env.store.runs = []EmployeeRun{activeRun("emp-1", 220_000)}
	env.deds.due["emp-1"] = decimal.NewFromInt(10_000)

	period, err := env.svc.CreatePeriod(ctx, 2025, 5)
	require.NoError(t, err)
	_, err = env.svc.Calculate(ctx, period.ID)
	require.NoError(t, err)

	env.store.statusErr = errors.New("connection reset")
	err = env.svc.Approve(ctx, period.ID, "admin", "secret")
	require.Error(t, err)
	assert.Empty(t, env.deds.applied, "installments must amortize only after the period commits")
}

func TestApproveRequiresPassword(t *testing.T) {
	env := newServiceEnv()
	env.creds.fail = true
	ctx := context.Background()
	env.store.runs = []EmployeeRun{activeRun("emp-1", 220_000)}

	period, _ := env.svc.CreatePeriod(ctx, 2025, 5)
	_, err := env.svc.Calculate(ctx, period.ID)
	require.NoError(t, err)

	err = env.svc.Approve(ctx, period.ID, "admin", "wrong")
	require.Error(t, err)

	got, _ := env.svc.GetPeriod(ctx, period.ID)
	assert.Equal(t, PeriodStatusCalculated, got.Status)
}

func TestApproveRequiresCalculatedState(t *testing.T) {
	env := newServiceEnv()
	ctx := context.Background()

	period, _ := env.svc.CreatePeriod(ctx, 2025, 5)

	err := env.svc.Approve(ctx, period.ID, "admin", "secret")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMarkPaidOnlyFromApproved(t *testing.T) {
	env := newServiceEnv()
	ctx := context.Background()
	env.store.runs = []EmployeeRun{activeRun("emp-1", 220_000)}

	period, _ := env.svc.CreatePeriod(ctx, 2025, 5)
	_, err := env.svc.Calculate(ctx, period.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.MarkPaid(ctx, period.ID), ErrInvalidTransition)

	require.NoError(t, env.svc.Approve(ctx, period.ID, "admin", "secret"))
	require.NoError(t, env.svc.MarkPaid(ctx, period.ID))

	got, _ := env.svc.GetPeriod(ctx, period.ID)
	assert.Equal(t, PeriodStatusPaid, got.Status)
}

func TestReopenRequiresReasonAndAudits(t *testing.T) {
	env := newServiceEnv()
	ctx := context.Background()
	env.store.runs = []EmployeeRun{activeRun("emp-1", 220_000)}

	period, _ := env.svc.CreatePeriod(ctx, 2025, 5)
	_, err := env.svc.Calculate(ctx, period.ID)
	require.NoError(t, err)
	require.NoError(t, env.svc.Approve(ctx, period.ID, "admin", "secret"))

	assert.ErrorIs(t, env.svc.Reopen(ctx, period.ID, ""), ErrReasonRequired)

	before := len(env.audit.actions)
	require.NoError(t, env.svc.Reopen(ctx, period.ID, "wrong overtime input for emp-1"))

	reopens := 0
	for _, action := range env.audit.actions[before:] {
		if action == "payroll_reopened" {
			reopens++
		}
	}
	assert.Equal(t, 1, reopens)

	got, _ := env.svc.GetPeriod(ctx, period.ID)
	assert.Equal(t, PeriodStatusCalculated, got.Status)
}

func TestReopenRejectedForOpenPeriod(t *testing.T) {
	env := newServiceEnv()
	ctx := context.Background()

	period, _ := env.svc.CreatePeriod(ctx, 2025, 5)
	assert.ErrorIs(t, env.svc.Reopen(ctx, period.ID, "nothing to correct"), ErrInvalidTransition)
}

func TestSubsidyProration(t *testing.T) {
	env := newServiceEnv()

	hired := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	base := decimal.NewFromInt(240_000)

	// December payout, hired in July: 6 of 12 months worked.
	thirteenth, _ := env.svc.subsidyProration(hired, base, 2025, 12)
	assert.True(t, thirteenth.Equal(decimal.NewFromInt(120_000)), "got %s", thirteenth)

	// Hired after the period: nothing due.
	thirteenth, holiday := env.svc.subsidyProration(hired, base, 2025, 6)
	assert.True(t, thirteenth.IsZero())
	assert.True(t, holiday.IsZero())

	// Full prior-year tenure: full month in December.
	thirteenth, _ = env.svc.subsidyProration(time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC), base, 2025, 12)
	assert.True(t, thirteenth.Equal(base))
}
