package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/Kleberson-Figueiredo/debt-control/pkg/api"
)

// DebtServiceName is the fully-qualified name of the DebtService service.
const DebtServiceName = "debtcontrol.v1.DebtService"

const (
	DebtServiceCreateDebtProcedure       = "/debtcontrol.v1.DebtService/CreateDebt"
	DebtServiceGetDebtProcedure          = "/debtcontrol.v1.DebtService/GetDebt"
	DebtServiceListDebtsProcedure        = "/debtcontrol.v1.DebtService/ListDebts"
	DebtServiceUpdateDebtProcedure       = "/debtcontrol.v1.DebtService/UpdateDebt"
	DebtServicePayInstallmentsProcedure  = "/debtcontrol.v1.DebtService/PayInstallments"
	DebtServiceDeleteDebtProcedure       = "/debtcontrol.v1.DebtService/DeleteDebt"
	DebtServiceListInstallmentsProcedure = "/debtcontrol.v1.DebtService/ListInstallments"
	DebtServiceGetDashboardProcedure     = "/debtcontrol.v1.DebtService/GetDashboard"
)

// DebtServiceHandler is implemented by the server side of DebtService.
type DebtServiceHandler interface {
	CreateDebt(context.Context, *connect.Request[api.CreateDebtRequest]) (*connect.Response[api.DebtResponse], error)
	GetDebt(context.Context, *connect.Request[api.GetDebtRequest]) (*connect.Response[api.GetDebtResponse], error)
	ListDebts(context.Context, *connect.Request[api.ListDebtsRequest]) (*connect.Response[api.ListDebtsResponse], error)
	UpdateDebt(context.Context, *connect.Request[api.UpdateDebtRequest]) (*connect.Response[api.DebtResponse], error)
	PayInstallments(context.Context, *connect.Request[api.PayInstallmentsRequest]) (*connect.Response[api.PayInstallmentsResponse], error)
	DeleteDebt(context.Context, *connect.Request[api.DeleteDebtRequest]) (*connect.Response[api.MessageResponse], error)
	ListInstallments(context.Context, *connect.Request[api.ListInstallmentsRequest]) (*connect.Response[api.ListInstallmentsResponse], error)
	GetDashboard(context.Context, *connect.Request[api.GetDashboardRequest]) (*connect.Response[api.Dashboard], error)
}

// NewDebtServiceHandler builds an HTTP handler from the service implementation.
func NewDebtServiceHandler(svc DebtServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		DebtServiceCreateDebtProcedure:       connect.NewUnaryHandler(DebtServiceCreateDebtProcedure, svc.CreateDebt, opts...),
		DebtServiceGetDebtProcedure:          connect.NewUnaryHandler(DebtServiceGetDebtProcedure, svc.GetDebt, opts...),
		DebtServiceListDebtsProcedure:        connect.NewUnaryHandler(DebtServiceListDebtsProcedure, svc.ListDebts, opts...),
		DebtServiceUpdateDebtProcedure:       connect.NewUnaryHandler(DebtServiceUpdateDebtProcedure, svc.UpdateDebt, opts...),
		DebtServicePayInstallmentsProcedure:  connect.NewUnaryHandler(DebtServicePayInstallmentsProcedure, svc.PayInstallments, opts...),
		DebtServiceDeleteDebtProcedure:       connect.NewUnaryHandler(DebtServiceDeleteDebtProcedure, svc.DeleteDebt, opts...),
		DebtServiceListInstallmentsProcedure: connect.NewUnaryHandler(DebtServiceListInstallmentsProcedure, svc.ListInstallments, opts...),
		DebtServiceGetDashboardProcedure:     connect.NewUnaryHandler(DebtServiceGetDashboardProcedure, svc.GetDashboard, opts...),
	}
	return "/" + DebtServiceName + "/", router(routes)
}

// DebtServiceClient is a client for the DebtService service.
type DebtServiceClient interface {
	CreateDebt(context.Context, *connect.Request[api.CreateDebtRequest]) (*connect.Response[api.DebtResponse], error)
	GetDebt(context.Context, *connect.Request[api.GetDebtRequest]) (*connect.Response[api.GetDebtResponse], error)
	ListDebts(context.Context, *connect.Request[api.ListDebtsRequest]) (*connect.Response[api.ListDebtsResponse], error)
	UpdateDebt(context.Context, *connect.Request[api.UpdateDebtRequest]) (*connect.Response[api.DebtResponse], error)
	PayInstallments(context.Context, *connect.Request[api.PayInstallmentsRequest]) (*connect.Response[api.PayInstallmentsResponse], error)
	DeleteDebt(context.Context, *connect.Request[api.DeleteDebtRequest]) (*connect.Response[api.MessageResponse], error)
	ListInstallments(context.Context, *connect.Request[api.ListInstallmentsRequest]) (*connect.Response[api.ListInstallmentsResponse], error)
	GetDashboard(context.Context, *connect.Request[api.GetDashboardRequest]) (*connect.Response[api.Dashboard], error)
}

type debtServiceClient struct {
	createDebt       *connect.Client[api.CreateDebtRequest, api.DebtResponse]
	getDebt          *connect.Client[api.GetDebtRequest, api.GetDebtResponse]
	listDebts        *connect.Client[api.ListDebtsRequest, api.ListDebtsResponse]
	updateDebt       *connect.Client[api.UpdateDebtRequest, api.DebtResponse]
	payInstallments  *connect.Client[api.PayInstallmentsRequest, api.PayInstallmentsResponse]
	deleteDebt       *connect.Client[api.DeleteDebtRequest, api.MessageResponse]
	listInstallments *connect.Client[api.ListInstallmentsRequest, api.ListInstallmentsResponse]
	getDashboard     *connect.Client[api.GetDashboardRequest, api.Dashboard]
}

// NewDebtServiceClient constructs a client for the DebtService service.
func NewDebtServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) DebtServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &debtServiceClient{
		createDebt:       connect.NewClient[api.CreateDebtRequest, api.DebtResponse](httpClient, baseURL+DebtServiceCreateDebtProcedure, opts...),
		getDebt:          connect.NewClient[api.GetDebtRequest, api.GetDebtResponse](httpClient, baseURL+DebtServiceGetDebtProcedure, opts...),
		listDebts:        connect.NewClient[api.ListDebtsRequest, api.ListDebtsResponse](httpClient, baseURL+DebtServiceListDebtsProcedure, opts...),
		updateDebt:       connect.NewClient[api.UpdateDebtRequest, api.DebtResponse](httpClient, baseURL+DebtServiceUpdateDebtProcedure, opts...),
		payInstallments:  connect.NewClient[api.PayInstallmentsRequest, api.PayInstallmentsResponse](httpClient, baseURL+DebtServicePayInstallmentsProcedure, opts...),
		deleteDebt:       connect.NewClient[api.DeleteDebtRequest, api.MessageResponse](httpClient, baseURL+DebtServiceDeleteDebtProcedure, opts...),
		listInstallments: connect.NewClient[api.ListInstallmentsRequest, api.ListInstallmentsResponse](httpClient, baseURL+DebtServiceListInstallmentsProcedure, opts...),
		getDashboard:     connect.NewClient[api.GetDashboardRequest, api.Dashboard](httpClient, baseURL+DebtServiceGetDashboardProcedure, opts...),
	}
}

func (c *debtServiceClient) CreateDebt(ctx context.Context, req *connect.Request[api.CreateDebtRequest]) (*connect.Response[api.DebtResponse], error) {
	return c.createDebt.CallUnary(ctx, req)
}

func (c *debtServiceClient) GetDebt(ctx context.Context, req *connect.Request[api.GetDebtRequest]) (*connect.Response[api.GetDebtResponse], error) {
	return c.getDebt.CallUnary(ctx, req)
}

func (c *debtServiceClient) ListDebts(ctx context.Context, req *connect.Request[api.ListDebtsRequest]) (*connect.Response[api.ListDebtsResponse], error) {
	return c.listDebts.CallUnary(ctx, req)
}

func (c *debtServiceClient) UpdateDebt(ctx context.Context, req *connect.Request[api.UpdateDebtRequest]) (*connect.Response[api.DebtResponse], error) {
	return c.updateDebt.CallUnary(ctx, req)
}

func (c *debtServiceClient) PayInstallments(ctx context.Context, req *connect.Request[api.PayInstallmentsRequest]) (*connect.Response[api.PayInstallmentsResponse], error) {
	return c.payInstallments.CallUnary(ctx, req)
}

func (c *debtServiceClient) DeleteDebt(ctx context.Context, req *connect.Request[api.DeleteDebtRequest]) (*connect.Response[api.MessageResponse], error) {
	return c.deleteDebt.CallUnary(ctx, req)
}

func (c *debtServiceClient) ListInstallments(ctx context.Context, req *connect.Request[api.ListInstallmentsRequest]) (*connect.Response[api.ListInstallmentsResponse], error) {
	return c.listInstallments.CallUnary(ctx, req)
}

func (c *debtServiceClient) GetDashboard(ctx context.Context, req *connect.Request[api.GetDashboardRequest]) (*connect.Response[api.Dashboard], error) {
	return c.getDashboard.CallUnary(ctx, req)
}
