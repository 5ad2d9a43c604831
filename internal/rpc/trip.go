package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// TripServiceName is the fully-qualified name of the TripService.
const TripServiceName = "spendilog.v1.TripService"

const (
	TripServiceCreateTripProcedure = "/spendilog.v1.TripService/CreateTrip"
	TripServiceGetTripProcedure    = "/spendilog.v1.TripService/GetTrip"
	TripServiceListTripsProcedure  = "/spendilog.v1.TripService/ListTrips"
	TripServiceUpdateTripProcedure = "/spendilog.v1.TripService/UpdateTrip"
	TripServiceDeleteTripProcedure = "/spendilog.v1.TripService/DeleteTrip"
)

// TripServiceHandler manages trips and their members.
type TripServiceHandler interface {
	CreateTrip(context.Context, *connect.Request[CreateTripRequest]) (*connect.Response[CreateTripResponse], error)
	GetTrip(context.Context, *connect.Request[GetTripRequest]) (*connect.Response[GetTripResponse], error)
	ListTrips(context.Context, *connect.Request[ListTripsRequest]) (*connect.Response[ListTripsResponse], error)
	UpdateTrip(context.Context, *connect.Request[UpdateTripRequest]) (*connect.Response[UpdateTripResponse], error)
	DeleteTrip(context.Context, *connect.Request[DeleteTripRequest]) (*connect.Response[DeleteTripResponse], error)
}

// NewTripServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler.
func NewTripServiceHandler(svc TripServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	createTrip := connect.NewUnaryHandler(TripServiceCreateTripProcedure, svc.CreateTrip, opts...)
	getTrip := connect.NewUnaryHandler(TripServiceGetTripProcedure, svc.GetTrip, opts...)
	listTrips := connect.NewUnaryHandler(TripServiceListTripsProcedure, svc.ListTrips, opts...)
	updateTrip := connect.NewUnaryHandler(TripServiceUpdateTripProcedure, svc.UpdateTrip, opts...)
	deleteTrip := connect.NewUnaryHandler(TripServiceDeleteTripProcedure, svc.DeleteTrip, opts...)

	return "/" + TripServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case TripServiceCreateTripProcedure:
			createTrip.ServeHTTP(w, r)
		case TripServiceGetTripProcedure:
			getTrip.ServeHTTP(w, r)
		case TripServiceListTripsProcedure:
			listTrips.ServeHTTP(w, r)
		case TripServiceUpdateTripProcedure:
			updateTrip.ServeHTTP(w, r)
		case TripServiceDeleteTripProcedure:
			deleteTrip.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// TripServiceClient calls a remote TripService.
type TripServiceClient struct {
	createTrip *connect.Client[CreateTripRequest, CreateTripResponse]
	getTrip    *connect.Client[GetTripRequest, GetTripResponse]
	listTrips  *connect.Client[ListTripsRequest, ListTripsResponse]
	updateTrip *connect.Client[UpdateTripRequest, UpdateTripResponse]
	deleteTrip *connect.Client[DeleteTripRequest, DeleteTripResponse]
}

// NewTripServiceClient constructs a client for the service at baseURL.
func NewTripServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *TripServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &TripServiceClient{
		createTrip: connect.NewClient[CreateTripRequest, CreateTripResponse](httpClient, baseURL+TripServiceCreateTripProcedure, opts...),
		getTrip:    connect.NewClient[GetTripRequest, GetTripResponse](httpClient, baseURL+TripServiceGetTripProcedure, opts...),
		listTrips:  connect.NewClient[ListTripsRequest, ListTripsResponse](httpClient, baseURL+TripServiceListTripsProcedure, opts...),
		updateTrip: connect.NewClient[UpdateTripRequest, UpdateTripResponse](httpClient, baseURL+TripServiceUpdateTripProcedure, opts...),
		deleteTrip: connect.NewClient[DeleteTripRequest, DeleteTripResponse](httpClient, baseURL+TripServiceDeleteTripProcedure, opts...),
	}
}

func (c *TripServiceClient) CreateTrip(ctx context.Context, req *connect.Request[CreateTripRequest]) (*connect.Response[CreateTripResponse], error) {
	return c.createTrip.CallUnary(ctx, req)
}

func (c *TripServiceClient) GetTrip(ctx context.Context, req *connect.Request[GetTripRequest]) (*connect.Response[GetTripResponse], error) {
	return c.getTrip.CallUnary(ctx, req)
}

func (c *TripServiceClient) ListTrips(ctx context.Context, req *connect.Request[ListTripsRequest]) (*connect.Response[ListTripsResponse], error) {
	return c.listTrips.CallUnary(ctx, req)
}

func (c *TripServiceClient) UpdateTrip(ctx context.Context, req *connect.Request[UpdateTripRequest]) (*connect.Response[UpdateTripResponse], error) {
	return c.updateTrip.CallUnary(ctx, req)
}

func (c *TripServiceClient) DeleteTrip(ctx context.Context, req *connect.Request[DeleteTripRequest]) (*connect.Response[DeleteTripResponse], error) {
	return c.deleteTrip.CallUnary(ctx, req)
}
