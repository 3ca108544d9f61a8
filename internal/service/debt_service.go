package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/Kleberson-Figueiredo/debt-control/internal/cache"
	"github.com/Kleberson-Figueiredo/debt-control/internal/calculator"
	"github.com/Kleberson-Figueiredo/debt-control/internal/metrics"
	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
	"github.com/Kleberson-Figueiredo/debt-control/internal/notify"
	"github.com/Kleberson-Figueiredo/debt-control/internal/storage"
	"github.com/Kleberson-Figueiredo/debt-control/pkg/api"
)

// DebtOptions carries the optional collaborators of a DebtService.
// Zero values fall back to no cache, log-only notifications, no metrics
// and the wall clock.
type DebtOptions struct {
	Cache    cache.DashboardCache
	Notifier notify.Notifier
	Retry    notify.RetryPolicy
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	// Now returns the current time. Tests pin it.
	Now func() time.Time
}

// DebtService implements the DebtService RPC interface.
type DebtService struct {
	store    storage.Store
	cache    cache.DashboardCache
	notifier notify.Notifier
	retry    notify.RetryPolicy
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewDebtService creates a new DebtService with the given storage backend.
func NewDebtService(store storage.Store, opts DebtOptions) *DebtService {
	s := &DebtService{
		store:    store,
		cache:    opts.Cache,
		notifier: opts.Notifier,
		retry:    opts.Retry,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.cache == nil {
		s.cache = cache.Nop{}
	}
	if s.notifier == nil {
		s.notifier = notify.LogNotifier{Logger: s.logger}
	}
	if s.retry.Backoff == 0 && s.retry.MaxRetries == 0 {
		s.retry = notify.DefaultRetryPolicy
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *DebtService) today() time.Time {
	return models.DateOf(s.now())
}

// refreshOverdue flags the user's late installments before a read.
func (s *DebtService) refreshOverdue(ctx context.Context, userID string) error {
	n, err := s.store.RefreshOverdue(ctx, userID, s.today())
	if err != nil {
		return err
	}
	s.metrics.AddOverdue(n)
	if n > 0 {
		s.invalidate(ctx, userID)
	}
	return nil
}

// invalidate drops the user's cached dashboards. Cache errors are logged only.
func (s *DebtService) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("Dashboard cache invalidation failed", "user_id", userID, "error", err)
	}
}

// CreateDebt registers a debt and generates its installment schedule.
func (s *DebtService) CreateDebt(ctx context.Context, req *connect.Request[api.CreateDebtRequest]) (*connect.Response[api.DebtResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	s.logger.Info("CreateDebt request received", "user_id", userID, "description", msg.Description)

	description := strings.TrimSpace(msg.Description)
	if description == "" {
		return nil, invalid("description is required")
	}
	plots, err := msg.Plots.Int()
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	value := decimal.NewFromFloat(msg.Value)
	if !value.IsPositive() {
		return nil, invalid("value must be greater than zero")
	}
	if msg.PurchaseDate == "" {
		return nil, invalid("purchase_date is required")
	}
	purchase, err := models.ParseDate(msg.PurchaseDate)
	if err != nil {
		return nil, toConnectError(s.logger, "CreateDebt", err)
	}

	state, planned, err := calculator.GenerateInstallments(value, plots, purchase, msg.PaidInstallments)
	if err != nil {
		return nil, toConnectError(s.logger, "CreateDebt", err)
	}

	category, err := s.store.GetCategory(ctx, userID, msg.CategoryID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, errors.New("category not found"))
		}
		return nil, toConnectError(s.logger, "CreateDebt", err)
	}

	dup, err := s.store.FindDuplicateDebt(ctx, userID, description, purchase)
	if err != nil {
		return nil, toConnectError(s.logger, "CreateDebt", err)
	}
	if dup {
		return nil, connect.NewError(connect.CodeAlreadyExists,
			fmt.Errorf("debt %s already exists for this month", description))
	}

	debt := &models.Debt{
		UserID:       userID,
		CategoryID:   category.ID,
		Description:  description,
		Value:        value,
		Plots:        plots,
		PurchaseDate: purchase,
		Note:         strings.TrimSpace(msg.Note),
		State:        state,
	}
	installments := make([]*models.Installment, 0, len(planned))
	for _, p := range planned {
		installments = append(installments, &models.Installment{
			Number:     p.Number,
			Amount:     p.Amount,
			DueDate:    p.DueDate,
			PaidAmount: p.PaidAmount,
			PaidDate:   p.PaidDate,
			State:      p.State,
		})
	}

	if err := s.store.CreateDebt(ctx, storage.NewDebt{Debt: debt, Installments: installments}); err != nil {
		return nil, toConnectError(s.logger, "CreateDebt", err)
	}
	s.invalidate(ctx, userID)

	s.logger.Info("Debt created", "debt_id", debt.ID, "plots", debt.Plots, "state", debt.State)

	out := toAPIDebt(debt)
	out.Category = category.Description
	out.PaidInstallments = msg.PaidInstallments
	return connect.NewResponse(&api.DebtResponse{Debt: out}), nil
}

// GetDebt returns one debt with its full installment schedule.
func (s *DebtService) GetDebt(ctx context.Context, req *connect.Request[api.GetDebtRequest]) (*connect.Response[api.GetDebtResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.refreshOverdue(ctx, userID); err != nil {
		return nil, toConnectError(s.logger, "GetDebt", err)
	}

	debt, err := s.store.GetDebt(ctx, userID, req.Msg.DebtID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetDebt", err)
	}
	installments, err := s.store.ListInstallments(ctx, userID, storage.InstallmentFilter{
		DebtID: debt.ID,
		Page:   storage.Page{Limit: debt.Plots},
	})
	if err != nil {
		return nil, toConnectError(s.logger, "GetDebt", err)
	}

	out, err := s.describe(ctx, debt)
	if err != nil {
		return nil, toConnectError(s.logger, "GetDebt", err)
	}
	return connect.NewResponse(&api.GetDebtResponse{
		Debt:         out,
		Installments: toAPIInstallments(installments),
	}), nil
}

// describe renders a debt with its category description and paid count.
func (s *DebtService) describe(ctx context.Context, debt *models.Debt) (*api.Debt, error) {
	category, err := s.store.GetCategory(ctx, debt.UserID, debt.CategoryID)
	if err != nil {
		return nil, err
	}
	paid, err := s.store.ListInstallments(ctx, debt.UserID, storage.InstallmentFilter{
		DebtID: debt.ID,
		States: []models.State{models.StatePay},
		Page:   storage.Page{Limit: debt.Plots},
	})
	if err != nil {
		return nil, err
	}

	out := toAPIDebt(debt)
	out.Category = category.Description
	out.PaidInstallments = len(paid)
	return out, nil
}

// ListDebts returns the caller's debts, newest purchase first.
func (s *DebtService) ListDebts(ctx context.Context, req *connect.Request[api.ListDebtsRequest]) (*connect.Response[api.ListDebtsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	filter := storage.DebtFilter{
		Description: strings.TrimSpace(msg.Description),
		Page:        storage.Page{Offset: msg.Offset, Limit: msg.Limit},
	}
	if msg.State != "" {
		if filter.State, err = models.ParseState(msg.State); err != nil {
			return nil, toConnectError(s.logger, "ListDebts", err)
		}
	}
	if filter.StartDate, err = optionalDate(msg.StartDate); err != nil {
		return nil, toConnectError(s.logger, "ListDebts", err)
	}
	if filter.EndDate, err = optionalDate(msg.EndDate); err != nil {
		return nil, toConnectError(s.logger, "ListDebts", err)
	}

	if err := s.refreshOverdue(ctx, userID); err != nil {
		return nil, toConnectError(s.logger, "ListDebts", err)
	}
	debts, err := s.store.ListDebts(ctx, userID, filter)
	if err != nil {
		return nil, toConnectError(s.logger, "ListDebts", err)
	}

	out := make([]*api.Debt, 0, len(debts))
	for _, d := range debts {
		out = append(out, toAPIDebtSummary(d))
	}
	return connect.NewResponse(&api.ListDebtsResponse{Debts: out}), nil
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := models.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateDebt changes the description, note, category or state of a debt.
// The only state a client may set is canceled; payment and lateness are
// derived from the installments.
func (s *DebtService) UpdateDebt(ctx context.Context, req *connect.Request[api.UpdateDebtRequest]) (*connect.Response[api.DebtResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	s.logger.Info("UpdateDebt request received", "user_id", userID, "debt_id", msg.DebtID)

	debt, err := s.store.GetDebt(ctx, userID, msg.DebtID)
	if err != nil {
		return nil, toConnectError(s.logger, "UpdateDebt", err)
	}

	if msg.Description != nil {
		description := strings.TrimSpace(*msg.Description)
		if description == "" {
			return nil, invalid("description cannot be empty")
		}
		if !strings.EqualFold(description, debt.Description) {
			dup, err := s.store.FindDuplicateDebt(ctx, userID, description, debt.PurchaseDate)
			if err != nil {
				return nil, toConnectError(s.logger, "UpdateDebt", err)
			}
			if dup {
				return nil, connect.NewError(connect.CodeAlreadyExists,
					fmt.Errorf("debt %s already exists for this month", description))
			}
		}
		debt.Description = description
	}
	if msg.Note != nil {
		debt.Note = strings.TrimSpace(*msg.Note)
	}
	if msg.CategoryID != nil {
		category, err := s.store.GetCategory(ctx, userID, *msg.CategoryID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, connect.NewError(connect.CodeNotFound, errors.New("category not found"))
			}
			return nil, toConnectError(s.logger, "UpdateDebt", err)
		}
		debt.CategoryID = category.ID
	}
	if msg.State != nil {
		state, err := models.ParseState(*msg.State)
		if err != nil {
			return nil, toConnectError(s.logger, "UpdateDebt", err)
		}
		if state != debt.State {
			if state != models.StateCanceled {
				return nil, invalid("state can only be changed to canceled")
			}
			if debt.State == models.StatePay {
				return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("a paid debt cannot be canceled"))
			}
			debt.State = state
		}
	}

	if err := s.store.UpdateDebt(ctx, debt); err != nil {
		return nil, toConnectError(s.logger, "UpdateDebt", err)
	}
	s.invalidate(ctx, userID)

	out, err := s.describe(ctx, debt)
	if err != nil {
		return nil, toConnectError(s.logger, "UpdateDebt", err)
	}
	s.logger.Info("Debt updated", "debt_id", debt.ID, "state", debt.State)
	return connect.NewResponse(&api.DebtResponse{Debt: out}), nil
}

// PayInstallments marks installments of one debt as paid today and sends
// a push notification per installment.
func (s *DebtService) PayInstallments(ctx context.Context, req *connect.Request[api.PayInstallmentsRequest]) (*connect.Response[api.PayInstallmentsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	s.logger.Info("PayInstallments request received",
		"user_id", userID,
		"debt_id", msg.DebtID,
		"installments", len(msg.InstallmentIDs),
	)

	if len(msg.InstallmentIDs) == 0 {
		return nil, invalid("installment_ids is required")
	}
	var amount *decimal.Decimal
	if msg.Amount != nil {
		v := decimal.NewFromFloat(*msg.Amount)
		if v.IsNegative() {
			return nil, invalid("amount cannot be negative")
		}
		amount = &v
	}

	debt, err := s.store.GetDebt(ctx, userID, msg.DebtID)
	if err != nil {
		return nil, toConnectError(s.logger, "PayInstallments", err)
	}

	paid, err := s.store.PayInstallments(ctx, storage.Payment{
		UserID:         userID,
		DebtID:         debt.ID,
		InstallmentIDs: msg.InstallmentIDs,
		Amount:         amount,
		Date:           s.today(),
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, errors.New("one or more installments not found"))
		}
		return nil, toConnectError(s.logger, "PayInstallments", err)
	}
	s.invalidate(ctx, userID)
	s.logger.Info("Installments paid", "debt_id", debt.ID, "count", len(paid))

	s.notifyPaid(ctx, userID, debt, paid)

	return connect.NewResponse(&api.PayInstallmentsResponse{
		Message:      "paid installments",
		Installments: toAPIInstallments(paid),
	}), nil
}

// notifyPaid is best effort: failures are logged and counted, never returned.
func (s *DebtService) notifyPaid(ctx context.Context, userID string, debt *models.Debt, paid []*models.Installment) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Warn("Skipping paid notifications", "user_id", userID, "error", err)
		return
	}
	if user.DeviceToken == "" {
		return
	}
	for _, in := range paid {
		title, body := notify.Paid(in.Number, debt.Description)
		err := notify.Deliver(ctx, s.notifier, s.retry, user.DeviceToken, title, body)
		s.metrics.Notification("paid", err)
		if err != nil {
			s.logger.Warn("Paid notification failed", "installment_id", in.ID, "error", err)
		}
	}
}

// DeleteDebt removes a debt and its installments.
func (s *DebtService) DeleteDebt(ctx context.Context, req *connect.Request[api.DeleteDebtRequest]) (*connect.Response[api.MessageResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteDebt(ctx, userID, req.Msg.DebtID); err != nil {
		return nil, toConnectError(s.logger, "DeleteDebt", err)
	}
	s.invalidate(ctx, userID)

	s.logger.Info("Debt deleted", "debt_id", req.Msg.DebtID)
	return connect.NewResponse(&api.MessageResponse{Message: "Debt has been deleted successfully."}), nil
}

// ListInstallments lists one debt's installments. Without a state filter
// only pending and overdue installments are returned.
func (s *DebtService) ListInstallments(ctx context.Context, req *connect.Request[api.ListInstallmentsRequest]) (*connect.Response[api.ListInstallmentsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	states := []models.State{models.StatePending, models.StateOverdue}
	if msg.State != "" {
		state, err := models.ParseState(msg.State)
		if err != nil {
			return nil, toConnectError(s.logger, "ListInstallments", err)
		}
		states = []models.State{state}
	}

	if err := s.refreshOverdue(ctx, userID); err != nil {
		return nil, toConnectError(s.logger, "ListInstallments", err)
	}
	if _, err := s.store.GetDebt(ctx, userID, msg.DebtID); err != nil {
		return nil, toConnectError(s.logger, "ListInstallments", err)
	}

	installments, err := s.store.ListInstallments(ctx, userID, storage.InstallmentFilter{
		DebtID: msg.DebtID,
		States: states,
		Page:   storage.Page{Offset: msg.Offset, Limit: msg.Limit},
	})
	if err != nil {
		return nil, toConnectError(s.logger, "ListInstallments", err)
	}
	return connect.NewResponse(&api.ListInstallmentsResponse{Installments: toAPIInstallments(installments)}), nil
}

// GetDashboard totals the caller's installments due in a date range,
// the current month by default.
func (s *DebtService) GetDashboard(ctx context.Context, req *connect.Request[api.GetDashboardRequest]) (*connect.Response[api.Dashboard], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	today := s.today()
	monthStart, nextMonth := models.MonthBounds(today)
	start, end := monthStart, nextMonth.AddDate(0, 0, -1)
	if msg.StartDate != "" {
		if start, err = models.ParseDate(msg.StartDate); err != nil {
			return nil, toConnectError(s.logger, "GetDashboard", err)
		}
	}
	if msg.EndDate != "" {
		if end, err = models.ParseDate(msg.EndDate); err != nil {
			return nil, toConnectError(s.logger, "GetDashboard", err)
		}
	}
	if end.Before(start) {
		return nil, invalid("end_date must not be before start_date")
	}
	page := storage.Page{Offset: msg.Offset, Limit: msg.Limit}.Normalize()

	if err := s.refreshOverdue(ctx, userID); err != nil {
		return nil, toConnectError(s.logger, "GetDashboard", err)
	}

	key := cache.DashboardKey{UserID: userID, StartDate: start, EndDate: end, Offset: page.Offset, Limit: page.Limit}
	cached, hit, err := s.cache.Get(ctx, &key)
	if err != nil {
		s.logger.Warn("Dashboard cache lookup failed", "user_id", userID, "error", err)
	}
	s.metrics.CacheLookup(hit)
	if hit {
		return connect.NewResponse(toAPIDashboard(cached)), nil
	}

	installments, err := s.store.ListInstallments(ctx, userID, storage.InstallmentFilter{
		StartDate: &start,
		EndDate:   &end,
		Page:      page,
	})
	if err != nil {
		return nil, toConnectError(s.logger, "GetDashboard", err)
	}

	items := make([]models.Installment, 0, len(installments))
	for _, in := range installments {
		items = append(items, *in)
	}
	totals := calculator.AggregateDashboard(items, today)

	if err := s.cache.Set(ctx, key, &totals); err != nil {
		s.logger.Warn("Dashboard cache store failed", "user_id", userID, "error", err)
	}
	return connect.NewResponse(toAPIDashboard(&totals)), nil
}
