package models

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestInterestJSONKeepsExtras(t *testing.T) {
	var in Interest
	err := json.Unmarshal([]byte(`{"total_price":12,"phone":"555","interest_id":"bogus","status":7,"a.b":1,"":2}`), &in)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if in.TotalPrice != 12 || !in.InterestID.IsZero() || in.Status != "" {
		t.Fatalf("known fields: %+v", in)
	}
	if len(in.Extra) != 1 || in.Extra["phone"] != "555" {
		t.Fatalf("extra: %v", in.Extra)
	}

	// Caller-typed known fields still fail.
	if err := json.Unmarshal([]byte(`{"total_price":"lots"}`), &in); err == nil {
		t.Fatal("string total_price should not decode")
	}
}

func TestExtrasNeverShadowFields(t *testing.T) {
	in := Interest{Status: StatusPending, Extra: map[string]interface{}{"status": "accepted", "phone": "555"}}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got map[string]interface{}
	json.Unmarshal(b, &got)
	if got["status"] != StatusPending || got["phone"] != "555" {
		t.Fatalf("encoded: %s", b)
	}
}

func TestCropExtrasRoundTripThroughBSON(t *testing.T) {
	crop := Crop{
		ID:        primitive.NewObjectID(),
		CropName:  "Wheat",
		Interests: []Interest{},
		Extra:     map[string]interface{}{"grade": "A"},
	}
	raw, err := bson.Marshal(crop)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Crop
	if err := bson.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.CropName != "Wheat" || back.Extra["grade"] != "A" || len(back.Extra) != 1 {
		t.Fatalf("round trip: %+v", back)
	}
}

func TestEnrichedInterestJSON(t *testing.T) {
	e := EnrichedInterest{
		Interest: Interest{Status: StatusAccepted, Extra: map[string]interface{}{"phone": "555"}},
		CropName: "Wheat",
	}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var back EnrichedInterest
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.CropName != "Wheat" || back.Status != StatusAccepted || len(back.Extra) != 1 || back.Extra["phone"] != "555" {
		t.Fatalf("round trip: %s -> %+v", b, back)
	}
}
