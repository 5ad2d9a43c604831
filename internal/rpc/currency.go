package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// CurrencyServiceName is the fully-qualified name of the CurrencyService.
const CurrencyServiceName = "spendilog.v1.CurrencyService"

const (
	CurrencyServiceConvertProcedure      = "/spendilog.v1.CurrencyService/Convert"
	CurrencyServiceGetRatesProcedure     = "/spendilog.v1.CurrencyService/GetRates"
	CurrencyServiceRefreshRatesProcedure = "/spendilog.v1.CurrencyService/RefreshRates"
)

// CurrencyServiceHandler serves currency conversion and the rate table.
type CurrencyServiceHandler interface {
	Convert(context.Context, *connect.Request[ConvertRequest]) (*connect.Response[ConvertResponse], error)
	GetRates(context.Context, *connect.Request[GetRatesRequest]) (*connect.Response[GetRatesResponse], error)
	RefreshRates(context.Context, *connect.Request[RefreshRatesRequest]) (*connect.Response[RefreshRatesResponse], error)
}

// NewCurrencyServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler.
func NewCurrencyServiceHandler(svc CurrencyServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	convert := connect.NewUnaryHandler(CurrencyServiceConvertProcedure, svc.Convert, opts...)
	getRates := connect.NewUnaryHandler(CurrencyServiceGetRatesProcedure, svc.GetRates, opts...)
	refreshRates := connect.NewUnaryHandler(CurrencyServiceRefreshRatesProcedure, svc.RefreshRates, opts...)

	return "/" + CurrencyServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case CurrencyServiceConvertProcedure:
			convert.ServeHTTP(w, r)
		case CurrencyServiceGetRatesProcedure:
			getRates.ServeHTTP(w, r)
		case CurrencyServiceRefreshRatesProcedure:
			refreshRates.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// CurrencyServiceClient calls a remote CurrencyService.
type CurrencyServiceClient struct {
	convert      *connect.Client[ConvertRequest, ConvertResponse]
	getRates     *connect.Client[GetRatesRequest, GetRatesResponse]
	refreshRates *connect.Client[RefreshRatesRequest, RefreshRatesResponse]
}

// NewCurrencyServiceClient constructs a client for the service at baseURL
// (for example, http://localhost:8080).
func NewCurrencyServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *CurrencyServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &CurrencyServiceClient{
		convert:      connect.NewClient[ConvertRequest, ConvertResponse](httpClient, baseURL+CurrencyServiceConvertProcedure, opts...),
		getRates:     connect.NewClient[GetRatesRequest, GetRatesResponse](httpClient, baseURL+CurrencyServiceGetRatesProcedure, opts...),
		refreshRates: connect.NewClient[RefreshRatesRequest, RefreshRatesResponse](httpClient, baseURL+CurrencyServiceRefreshRatesProcedure, opts...),
	}
}

func (c *CurrencyServiceClient) Convert(ctx context.Context, req *connect.Request[ConvertRequest]) (*connect.Response[ConvertResponse], error) {
	return c.convert.CallUnary(ctx, req)
}

func (c *CurrencyServiceClient) GetRates(ctx context.Context, req *connect.Request[GetRatesRequest]) (*connect.Response[GetRatesResponse], error) {
	return c.getRates.CallUnary(ctx, req)
}

func (c *CurrencyServiceClient) RefreshRates(ctx context.Context, req *connect.Request[RefreshRatesRequest]) (*connect.Response[RefreshRatesResponse], error) {
	return c.refreshRates.CallUnary(ctx, req)
}
