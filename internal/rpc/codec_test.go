package rpc

import (
	"testing"
)

func TestJSONCodec(t *testing.T) {
	codec := JSONCodec{}
	if codec.Name() != "json" {
		t.Errorf("Name() = %q, want json", codec.Name())
	}

	data, err := codec.Marshal(&SettleDebtRequest{TripID: "t1", FromID: "a", ToID: "b", Amount: 12.5})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"trip_id":"t1","from_id":"a","to_id":"b","amount":12.5}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var empty ListTripsRequest
	if err := codec.Unmarshal(nil, &empty); err != nil {
		t.Errorf("Unmarshal of empty body failed: %v", err)
	}

	var req AddExpenseRequest
	if err := codec.Unmarshal([]byte("{not json"), &req); err == nil {
		t.Error("expected error for malformed body")
	}
}
