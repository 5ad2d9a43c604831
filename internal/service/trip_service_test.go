package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/spendilog/internal/models"
	"github.com/mmynk/spendilog/internal/rpc"
)

func TestCreateTrip(t *testing.T) {
	env := setupTestServer(t)

	resp, err := env.trips.CreateTrip(context.Background(), connect.NewRequest(&rpc.CreateTripRequest{
		Name:                " Lisbon ",
		MainCurrency:        "eur",
		PreferredCurrencies: []string{"usd"},
		Members:             []string{"Alice", "Bob"},
	}))
	if err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}

	trip := resp.Msg.Trip
	if trip.ID == "" {
		t.Error("expected trip ID to be generated")
	}
	if trip.Name != "Lisbon" || trip.MainCurrency != "EUR" || trip.PreferredCurrencies[0] != "USD" {
		t.Errorf("trip not normalized: %+v", trip)
	}
	if len(trip.Members) != 2 || trip.Members[0].ID == "" || trip.Members[1].Name != "Bob" {
		t.Errorf("unexpected members: %+v", trip.Members)
	}
}

func TestCreateTripValidation(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		name string
		req  *rpc.CreateTripRequest
	}{
		{name: "empty name", req: &rpc.CreateTripRequest{MainCurrency: "EUR", Members: []string{"A"}}},
		{name: "no members", req: &rpc.CreateTripRequest{Name: "T", MainCurrency: "EUR"}},
		{name: "blank member", req: &rpc.CreateTripRequest{Name: "T", MainCurrency: "EUR", Members: []string{"A", " "}}},
		{name: "bad currency", req: &rpc.CreateTripRequest{Name: "T", MainCurrency: "EURO", Members: []string{"A"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.trips.CreateTrip(context.Background(), connect.NewRequest(tt.req))
			assertCode(t, err, connect.CodeInvalidArgument)
		})
	}
}

func TestGetTrip(t *testing.T) {
	env := setupTestServer(t)
	trip := env.createTrip(t, "A", "B")
	env.addExpense(t, trip.ID, 10, "EUR", trip.Members[0].ID, trip.Members[0].ID, trip.Members[1].ID)

	resp, err := env.trips.GetTrip(context.Background(), connect.NewRequest(&rpc.GetTripRequest{TripID: trip.ID}))
	if err != nil {
		t.Fatalf("GetTrip failed: %v", err)
	}
	if resp.Msg.Trip.Name != "Lisbon" || len(resp.Msg.Trip.Expenses) != 1 {
		t.Errorf("unexpected trip: %+v", resp.Msg.Trip)
	}

	_, err = env.trips.GetTrip(context.Background(), connect.NewRequest(&rpc.GetTripRequest{TripID: "nope"}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = env.trips.GetTrip(context.Background(), connect.NewRequest(&rpc.GetTripRequest{}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestUpdateTrip(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	trip := env.createTrip(t, "A", "B", "C")
	a, b, c := trip.Members[0], trip.Members[1], trip.Members[2]
	env.addExpense(t, trip.ID, 30, "EUR", a.ID, a.ID, b.ID)

	t.Run("rename, add and remove unreferenced member", func(t *testing.T) {
		resp, err := env.trips.UpdateTrip(ctx, connect.NewRequest(&rpc.UpdateTripRequest{
			TripID:       trip.ID,
			Name:         "Porto",
			MainCurrency: "USD",
			Members:      []models.Member{a, b, {Name: "D"}},
		}))
		if err != nil {
			t.Fatalf("UpdateTrip failed: %v", err)
		}
		updated := resp.Msg.Trip
		if updated.Name != "Porto" || updated.MainCurrency != "USD" {
			t.Errorf("header not updated: %+v", updated)
		}
		if len(updated.Members) != 3 || updated.HasMember(c.ID) || updated.Members[2].ID == "" {
			t.Errorf("unexpected members: %+v", updated.Members)
		}
	})

	t.Run("removing referenced member fails", func(t *testing.T) {
		_, err := env.trips.UpdateTrip(ctx, connect.NewRequest(&rpc.UpdateTripRequest{
			TripID:       trip.ID,
			Name:         "Porto",
			MainCurrency: "USD",
			Members:      []models.Member{a},
		}))
		assertCode(t, err, connect.CodeFailedPrecondition)
	})

	t.Run("unknown member ID fails", func(t *testing.T) {
		_, err := env.trips.UpdateTrip(ctx, connect.NewRequest(&rpc.UpdateTripRequest{
			TripID:       trip.ID,
			Name:         "Porto",
			MainCurrency: "USD",
			Members:      []models.Member{a, b, {ID: "ghost", Name: "Ghost"}},
		}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("balances follow the new main currency", func(t *testing.T) {
		resp, err := env.expenses.GetBalances(ctx, connect.NewRequest(&rpc.GetBalancesRequest{TripID: trip.ID}))
		if err != nil {
			t.Fatalf("GetBalances failed: %v", err)
		}
		// 30 EUR is 60 USD, B's share is 30 USD
		if resp.Msg.MainCurrency != "USD" || balanceOf(resp.Msg, b.ID) != -30 {
			t.Errorf("unexpected balances: %+v", resp.Msg.Balances)
		}
	})
}

func TestDeleteTrip(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	trip := env.createTrip(t, "A")

	if _, err := env.trips.DeleteTrip(ctx, connect.NewRequest(&rpc.DeleteTripRequest{TripID: trip.ID})); err != nil {
		t.Fatalf("DeleteTrip failed: %v", err)
	}

	_, err := env.trips.GetTrip(ctx, connect.NewRequest(&rpc.GetTripRequest{TripID: trip.ID}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = env.trips.DeleteTrip(ctx, connect.NewRequest(&rpc.DeleteTripRequest{TripID: trip.ID}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestTripOwnership(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	register := func(email string) string {
		resp, err := env.auth.Register(ctx, connect.NewRequest(&rpc.RegisterRequest{
			Email:       email,
			DisplayName: email,
			Password:    "long enough",
		}))
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		return resp.Msg.Token
	}
	aliceToken := register("alice@example.com")
	bobToken := register("bob@example.com")

	req := connect.NewRequest(&rpc.CreateTripRequest{Name: "Private", MainCurrency: "EUR", Members: []string{"Alice"}})
	req.Header().Set("Authorization", "Bearer "+aliceToken)
	created, err := env.trips.CreateTrip(ctx, req)
	if err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	env.createTrip(t, "Anyone")

	t.Run("owner lists only own trips", func(t *testing.T) {
		req := connect.NewRequest(&rpc.ListTripsRequest{})
		req.Header().Set("Authorization", "Bearer "+aliceToken)
		resp, err := env.trips.ListTrips(ctx, req)
		if err != nil {
			t.Fatalf("ListTrips failed: %v", err)
		}
		if len(resp.Msg.Trips) != 1 || resp.Msg.Trips[0].ID != created.Msg.Trip.ID {
			t.Errorf("unexpected trips: %+v", resp.Msg.Trips)
		}
	})

	t.Run("anonymous lists unowned trips", func(t *testing.T) {
		resp, err := env.trips.ListTrips(ctx, connect.NewRequest(&rpc.ListTripsRequest{}))
		if err != nil {
			t.Fatalf("ListTrips failed: %v", err)
		}
		if len(resp.Msg.Trips) != 1 || resp.Msg.Trips[0].CreatedBy != "" {
			t.Errorf("unexpected trips: %+v", resp.Msg.Trips)
		}
	})

	t.Run("other user is denied", func(t *testing.T) {
		req := connect.NewRequest(&rpc.GetTripRequest{TripID: created.Msg.Trip.ID})
		req.Header().Set("Authorization", "Bearer "+bobToken)
		_, err := env.trips.GetTrip(ctx, req)
		assertCode(t, err, connect.CodePermissionDenied)
	})
}
