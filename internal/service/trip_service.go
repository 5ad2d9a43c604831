package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/spendilog/internal/middleware"
	"github.com/mmynk/spendilog/internal/models"
	"github.com/mmynk/spendilog/internal/rpc"
	"github.com/mmynk/spendilog/internal/storage"
)

// TripService implements the Connect TripService.
type TripService struct {
	store storage.Store
}

var _ rpc.TripServiceHandler = (*TripService)(nil)

// NewTripService creates a new TripService with the given storage backend.
func NewTripService(store storage.Store) *TripService {
	return &TripService{store: store}
}

// loadTrip fetches a trip with its expenses and checks the caller may see it.
// Trips without an owner are visible to everyone.
func loadTrip(ctx context.Context, store storage.Store, tripID string) (*models.Trip, error) {
	if tripID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("trip_id is required"))
	}
	trip, err := store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.CreatedBy != "" && trip.CreatedBy != middleware.GetUserID(ctx) {
		return nil, fmt.Errorf("trip %s: %w", tripID, errTripAccess)
	}
	return trip, nil
}

// CreateTrip creates a trip owned by the caller.
func (s *TripService) CreateTrip(ctx context.Context, req *connect.Request[rpc.CreateTripRequest]) (*connect.Response[rpc.CreateTripResponse], error) {
	slog.Info("CreateTrip request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	trip := &models.Trip{
		Name:                req.Msg.Name,
		MainCurrency:        req.Msg.MainCurrency,
		PreferredCurrencies: req.Msg.PreferredCurrencies,
		CreatedBy:           middleware.GetUserID(ctx),
	}
	for _, name := range req.Msg.Members {
		trip.Members = append(trip.Members, models.Member{Name: name})
	}
	trip.Normalize()
	if err := trip.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	// Save to storage (generates IDs and CreatedAt)
	if err := s.store.CreateTrip(ctx, trip); err != nil {
		slog.Error("CreateTrip failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Trip created", "trip_id", trip.ID)
	return connect.NewResponse(&rpc.CreateTripResponse{Trip: trip}), nil
}

// GetTrip retrieves a trip with its members and expenses.
func (s *TripService) GetTrip(ctx context.Context, req *connect.Request[rpc.GetTripRequest]) (*connect.Response[rpc.GetTripResponse], error) {
	slog.Info("GetTrip request received", "trip_id", req.Msg.TripID)

	trip, err := loadTrip(ctx, s.store, req.Msg.TripID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.GetTripResponse{Trip: trip}), nil
}

// ListTrips lists the caller's trips, or the unowned trips for anonymous
// callers.
func (s *TripService) ListTrips(ctx context.Context, req *connect.Request[rpc.ListTripsRequest]) (*connect.Response[rpc.ListTripsResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("ListTrips request received", "user_id", userID)

	trips, err := s.store.ListTrips(ctx, userID)
	if err != nil {
		slog.Error("ListTrips failed", "error", err)
		return nil, toConnectError(err)
	}

	if userID == "" {
		visible := trips[:0]
		for _, trip := range trips {
			if trip.CreatedBy == "" {
				visible = append(visible, trip)
			}
		}
		trips = visible
	}

	slog.Info("ListTrips successful", "count", len(trips))
	return connect.NewResponse(&rpc.ListTripsResponse{Trips: trips}), nil
}

// UpdateTrip replaces a trip's name, currencies and members. Members that are
// still referenced by an expense cannot be removed.
func (s *TripService) UpdateTrip(ctx context.Context, req *connect.Request[rpc.UpdateTripRequest]) (*connect.Response[rpc.UpdateTripResponse], error) {
	slog.Info("UpdateTrip request received",
		"trip_id", req.Msg.TripID,
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	existing, err := loadTrip(ctx, s.store, req.Msg.TripID)
	if err != nil {
		return nil, toConnectError(err)
	}

	updated := &models.Trip{
		ID:                  existing.ID,
		Name:                req.Msg.Name,
		Members:             req.Msg.Members,
		Expenses:            existing.Expenses,
		MainCurrency:        req.Msg.MainCurrency,
		PreferredCurrencies: req.Msg.PreferredCurrencies,
		CreatedBy:           existing.CreatedBy,
		CreatedAt:           existing.CreatedAt,
	}
	updated.Normalize()
	if err := updated.Validate(); err != nil {
		return nil, toConnectError(err)
	}
	for _, m := range updated.Members {
		if m.ID != "" && !existing.HasMember(m.ID) {
			return nil, toConnectError(fmt.Errorf("%w: %s", models.ErrUnknownMember, m.ID))
		}
	}
	for id := range existing.ReferencedMembers() {
		if existing.HasMember(id) && !updated.HasMember(id) {
			return nil, toConnectError(fmt.Errorf("%w: %s", models.ErrMemberReferenced, id))
		}
	}

	if err := s.store.UpdateTrip(ctx, updated); err != nil {
		slog.Error("UpdateTrip failed", "trip_id", updated.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Trip updated", "trip_id", updated.ID)
	return connect.NewResponse(&rpc.UpdateTripResponse{Trip: updated}), nil
}

// DeleteTrip deletes a trip together with its expenses.
func (s *TripService) DeleteTrip(ctx context.Context, req *connect.Request[rpc.DeleteTripRequest]) (*connect.Response[rpc.DeleteTripResponse], error) {
	slog.Info("DeleteTrip request received", "trip_id", req.Msg.TripID)

	if _, err := loadTrip(ctx, s.store, req.Msg.TripID); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.DeleteTrip(ctx, req.Msg.TripID); err != nil {
		slog.Error("DeleteTrip failed", "trip_id", req.Msg.TripID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Trip deleted", "trip_id", req.Msg.TripID)
	return connect.NewResponse(&rpc.DeleteTripResponse{}), nil
}
