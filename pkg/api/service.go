package api

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
)

// LedgerServiceName is the fully-qualified name of the LedgerService service.
const LedgerServiceName = "cakepot.v1.LedgerService"

// Procedure paths of LedgerService.
const (
	LedgerServiceRegisterProcedure        = "/cakepot.v1.LedgerService/Register"
	LedgerServiceCreatePotProcedure       = "/cakepot.v1.LedgerService/CreatePot"
	LedgerServiceAddBatchProcedure        = "/cakepot.v1.LedgerService/AddBatch"
	LedgerServiceCutProcedure             = "/cakepot.v1.LedgerService/Cut"
	LedgerServicePayDebtProcedure         = "/cakepot.v1.LedgerService/PayDebt"
	LedgerServiceClaimCreditProcedure     = "/cakepot.v1.LedgerService/ClaimCredit"
	LedgerServiceDeactivatePotProcedure   = "/cakepot.v1.LedgerService/DeactivatePot"
	LedgerServiceGetPotProcedure          = "/cakepot.v1.LedgerService/GetPot"
	LedgerServiceGetBalanceProcedure      = "/cakepot.v1.LedgerService/GetBalance"
	LedgerServiceGetBatchProcedure        = "/cakepot.v1.LedgerService/GetBatch"
	LedgerServiceGetMemberProcedure       = "/cakepot.v1.LedgerService/GetMember"
	LedgerServiceListMemberPotsProcedure  = "/cakepot.v1.LedgerService/ListMemberPots"
	LedgerServiceListSettlementsProcedure = "/cakepot.v1.LedgerService/ListSettlements"
)

// PublicProcedures are the read-only procedures that do not require a caller.
var PublicProcedures = []string{
	LedgerServiceGetPotProcedure,
	LedgerServiceGetBalanceProcedure,
	LedgerServiceGetBatchProcedure,
	LedgerServiceGetMemberProcedure,
	LedgerServiceListMemberPotsProcedure,
	LedgerServiceListSettlementsProcedure,
}

// LedgerServiceHandler is implemented by the server side of LedgerService.
type LedgerServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error)
	CreatePot(context.Context, *connect.Request[CreatePotRequest]) (*connect.Response[CreatePotResponse], error)
	AddBatch(context.Context, *connect.Request[AddBatchRequest]) (*connect.Response[AddBatchResponse], error)
	Cut(context.Context, *connect.Request[CutRequest]) (*connect.Response[CutResponse], error)
	PayDebt(context.Context, *connect.Request[PayDebtRequest]) (*connect.Response[PayDebtResponse], error)
	ClaimCredit(context.Context, *connect.Request[ClaimCreditRequest]) (*connect.Response[ClaimCreditResponse], error)
	DeactivatePot(context.Context, *connect.Request[DeactivatePotRequest]) (*connect.Response[DeactivatePotResponse], error)
	GetPot(context.Context, *connect.Request[GetPotRequest]) (*connect.Response[GetPotResponse], error)
	GetBalance(context.Context, *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error)
	GetBatch(context.Context, *connect.Request[GetBatchRequest]) (*connect.Response[GetBatchResponse], error)
	GetMember(context.Context, *connect.Request[GetMemberRequest]) (*connect.Response[GetMemberResponse], error)
	ListMemberPots(context.Context, *connect.Request[ListMemberPotsRequest]) (*connect.Response[ListMemberPotsResponse], error)
	ListSettlements(context.Context, *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	handlers := map[string]http.Handler{
		LedgerServiceRegisterProcedure:        connect.NewUnaryHandler(LedgerServiceRegisterProcedure, svc.Register, opts...),
		LedgerServiceCreatePotProcedure:       connect.NewUnaryHandler(LedgerServiceCreatePotProcedure, svc.CreatePot, opts...),
		LedgerServiceAddBatchProcedure:        connect.NewUnaryHandler(LedgerServiceAddBatchProcedure, svc.AddBatch, opts...),
		LedgerServiceCutProcedure:             connect.NewUnaryHandler(LedgerServiceCutProcedure, svc.Cut, opts...),
		LedgerServicePayDebtProcedure:         connect.NewUnaryHandler(LedgerServicePayDebtProcedure, svc.PayDebt, opts...),
		LedgerServiceClaimCreditProcedure:     connect.NewUnaryHandler(LedgerServiceClaimCreditProcedure, svc.ClaimCredit, opts...),
		LedgerServiceDeactivatePotProcedure:   connect.NewUnaryHandler(LedgerServiceDeactivatePotProcedure, svc.DeactivatePot, opts...),
		LedgerServiceGetPotProcedure:          connect.NewUnaryHandler(LedgerServiceGetPotProcedure, svc.GetPot, opts...),
		LedgerServiceGetBalanceProcedure:      connect.NewUnaryHandler(LedgerServiceGetBalanceProcedure, svc.GetBalance, opts...),
		LedgerServiceGetBatchProcedure:        connect.NewUnaryHandler(LedgerServiceGetBatchProcedure, svc.GetBatch, opts...),
		LedgerServiceGetMemberProcedure:       connect.NewUnaryHandler(LedgerServiceGetMemberProcedure, svc.GetMember, opts...),
		LedgerServiceListMemberPotsProcedure:  connect.NewUnaryHandler(LedgerServiceListMemberPotsProcedure, svc.ListMemberPots, opts...),
		LedgerServiceListSettlementsProcedure: connect.NewUnaryHandler(LedgerServiceListSettlementsProcedure, svc.ListSettlements, opts...),
	}

	return "/" + LedgerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// UnimplementedLedgerServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedLedgerServiceHandler struct{}

func (UnimplementedLedgerServiceHandler) Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("cakepot.v1.LedgerService.Register is not implemented"))
}

func (UnimplementedLedgerServiceHandler) CreatePot(context.Context, *connect.Request[CreatePotRequest]) (*connect.Response[CreatePotResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("cakepot.v1.LedgerService.CreatePot is not implemented"))
}

func (UnimplementedLedgerServiceHandler) AddBatch(context.Context, *connect.Request[AddBatchRequest]) (*connect.Response[AddBatchResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("cakepot.v1.LedgerService.AddBatch is not implemented"))
}

func (UnimplementedLedgerServiceHandler) Cut(context.Context, *connect.Request[CutRequest]) (*connect.Response[CutResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("cakepot.v1.LedgerService.Cut is not implemented"))
}

func (UnimplementedLedgerServiceHandler) PayDebt(context.Context, *connect.Request[PayDebtRequest]) (*connect.Response[PayDebtResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("cakepot.v1.LedgerService.PayDebt is not implemented"))
}

func (UnimplementedLedgerServiceHandler) ClaimCredit(context.Context, *connect.Request[ClaimCreditRequest]) (*connect.Response[ClaimCreditResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("cakepot.v1.LedgerService.ClaimCredit is not implemented"))
}

func (UnimplementedLedgerServiceHandler) DeactivatePot(context.Context, *connect.Request[DeactivatePotRequest]) (*connect.Response[DeactivatePotResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("cakepot.v1.LedgerService.DeactivatePot is not implemented"))
}

func (UnimplementedLedgerServiceHandler) GetPot(context.Context, *connect.Request[GetPotRequest]) (*connect.Response[GetPotResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("cakepot.v1.LedgerService.GetPot is not implemented"))
}

func (UnimplementedLedgerServiceHandler) GetBalance(context.Context, *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("cakepot.v1.LedgerService.GetBalance is not implemented"))
}

func (UnimplementedLedgerServiceHandler) GetBatch(context.Context, *connect.Request[GetBatchRequest]) (*connect.Response[GetBatchResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("cakepot.v1.LedgerService.GetBatch is not implemented"))
}

func (UnimplementedLedgerServiceHandler) GetMember(context.Context, *connect.Request[GetMemberRequest]) (*connect.Response[GetMemberResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("cakepot.v1.LedgerService.GetMember is not implemented"))
}

func (UnimplementedLedgerServiceHandler) ListMemberPots(context.Context, *connect.Request[ListMemberPotsRequest]) (*connect.Response[ListMemberPotsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("cakepot.v1.LedgerService.ListMemberPots is not implemented"))
}

func (UnimplementedLedgerServiceHandler) ListSettlements(context.Context, *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("cakepot.v1.LedgerService.ListSettlements is not implemented"))
}

// LedgerServiceClient is a client for the cakepot.v1.LedgerService service.
type LedgerServiceClient interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error)
	CreatePot(context.Context, *connect.Request[CreatePotRequest]) (*connect.Response[CreatePotResponse], error)
	AddBatch(context.Context, *connect.Request[AddBatchRequest]) (*connect.Response[AddBatchResponse], error)
	Cut(context.Context, *connect.Request[CutRequest]) (*connect.Response[CutResponse], error)
	PayDebt(context.Context, *connect.Request[PayDebtRequest]) (*connect.Response[PayDebtResponse], error)
	ClaimCredit(context.Context, *connect.Request[ClaimCreditRequest]) (*connect.Response[ClaimCreditResponse], error)
	DeactivatePot(context.Context, *connect.Request[DeactivatePotRequest]) (*connect.Response[DeactivatePotResponse], error)
	GetPot(context.Context, *connect.Request[GetPotRequest]) (*connect.Response[GetPotResponse], error)
	GetBalance(context.Context, *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error)
	GetBatch(context.Context, *connect.Request[GetBatchRequest]) (*connect.Response[GetBatchResponse], error)
	GetMember(context.Context, *connect.Request[GetMemberRequest]) (*connect.Response[GetMemberResponse], error)
	ListMemberPots(context.Context, *connect.Request[ListMemberPotsRequest]) (*connect.Response[ListMemberPotsResponse], error)
	ListSettlements(context.Context, *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error)
}

// NewLedgerServiceClient constructs a client for the cakepot.v1.LedgerService
// service. baseURL is the server root, e.g. http://localhost:8080.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &ledgerServiceClient{
		register:        connect.NewClient[RegisterRequest, RegisterResponse](httpClient, baseURL+LedgerServiceRegisterProcedure, opts...),
		createPot:       connect.NewClient[CreatePotRequest, CreatePotResponse](httpClient, baseURL+LedgerServiceCreatePotProcedure, opts...),
		addBatch:        connect.NewClient[AddBatchRequest, AddBatchResponse](httpClient, baseURL+LedgerServiceAddBatchProcedure, opts...),
		cut:             connect.NewClient[CutRequest, CutResponse](httpClient, baseURL+LedgerServiceCutProcedure, opts...),
		payDebt:         connect.NewClient[PayDebtRequest, PayDebtResponse](httpClient, baseURL+LedgerServicePayDebtProcedure, opts...),
		claimCredit:     connect.NewClient[ClaimCreditRequest, ClaimCreditResponse](httpClient, baseURL+LedgerServiceClaimCreditProcedure, opts...),
		deactivatePot:   connect.NewClient[DeactivatePotRequest, DeactivatePotResponse](httpClient, baseURL+LedgerServiceDeactivatePotProcedure, opts...),
		getPot:          connect.NewClient[GetPotRequest, GetPotResponse](httpClient, baseURL+LedgerServiceGetPotProcedure, opts...),
		getBalance:      connect.NewClient[GetBalanceRequest, GetBalanceResponse](httpClient, baseURL+LedgerServiceGetBalanceProcedure, opts...),
		getBatch:        connect.NewClient[GetBatchRequest, GetBatchResponse](httpClient, baseURL+LedgerServiceGetBatchProcedure, opts...),
		getMember:       connect.NewClient[GetMemberRequest, GetMemberResponse](httpClient, baseURL+LedgerServiceGetMemberProcedure, opts...),
		listMemberPots:  connect.NewClient[ListMemberPotsRequest, ListMemberPotsResponse](httpClient, baseURL+LedgerServiceListMemberPotsProcedure, opts...),
		listSettlements: connect.NewClient[ListSettlementsRequest, ListSettlementsResponse](httpClient, baseURL+LedgerServiceListSettlementsProcedure, opts...),
	}
}

type ledgerServiceClient struct {
	register        *connect.Client[RegisterRequest, RegisterResponse]
	createPot       *connect.Client[CreatePotRequest, CreatePotResponse]
	addBatch        *connect.Client[AddBatchRequest, AddBatchResponse]
	cut             *connect.Client[CutRequest, CutResponse]
	payDebt         *connect.Client[PayDebtRequest, PayDebtResponse]
	claimCredit     *connect.Client[ClaimCreditRequest, ClaimCreditResponse]
	deactivatePot   *connect.Client[DeactivatePotRequest, DeactivatePotResponse]
	getPot          *connect.Client[GetPotRequest, GetPotResponse]
	getBalance      *connect.Client[GetBalanceRequest, GetBalanceResponse]
	getBatch        *connect.Client[GetBatchRequest, GetBatchResponse]
	getMember       *connect.Client[GetMemberRequest, GetMemberResponse]
	listMemberPots  *connect.Client[ListMemberPotsRequest, ListMemberPotsResponse]
	listSettlements *connect.Client[ListSettlementsRequest, ListSettlementsResponse]
}

func (c *ledgerServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) CreatePot(ctx context.Context, req *connect.Request[CreatePotRequest]) (*connect.Response[CreatePotResponse], error) {
	return c.createPot.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) AddBatch(ctx context.Context, req *connect.Request[AddBatchRequest]) (*connect.Response[AddBatchResponse], error) {
	return c.addBatch.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) Cut(ctx context.Context, req *connect.Request[CutRequest]) (*connect.Response[CutResponse], error) {
	return c.cut.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) PayDebt(ctx context.Context, req *connect.Request[PayDebtRequest]) (*connect.Response[PayDebtResponse], error) {
	return c.payDebt.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ClaimCredit(ctx context.Context, req *connect.Request[ClaimCreditRequest]) (*connect.Response[ClaimCreditResponse], error) {
	return c.claimCredit.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) DeactivatePot(ctx context.Context, req *connect.Request[DeactivatePotRequest]) (*connect.Response[DeactivatePotResponse], error) {
	return c.deactivatePot.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetPot(ctx context.Context, req *connect.Request[GetPotRequest]) (*connect.Response[GetPotResponse], error) {
	return c.getPot.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetBalance(ctx context.Context, req *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error) {
	return c.getBalance.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetBatch(ctx context.Context, req *connect.Request[GetBatchRequest]) (*connect.Response[GetBatchResponse], error) {
	return c.getBatch.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetMember(ctx context.Context, req *connect.Request[GetMemberRequest]) (*connect.Response[GetMemberResponse], error) {
	return c.getMember.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListMemberPots(ctx context.Context, req *connect.Request[ListMemberPotsRequest]) (*connect.Response[ListMemberPotsResponse], error) {
	return c.listMemberPots.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}
