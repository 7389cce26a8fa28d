package interests

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"krishilink/apperr"
	"krishilink/logger"
	"krishilink/models"
	"krishilink/mq"
)

// memStore mirrors the Mongo semantics: push appends one element, and the
// status update touches only the pending element with the given id.
type memStore struct {
	mu    sync.Mutex
	crops map[primitive.ObjectID]*models.Crop
}

func newMemStore(crops ...models.Crop) *memStore {
	m := &memStore{crops: make(map[primitive.ObjectID]*models.Crop)}
	for i := range crops {
		c := crops[i]
		m.crops[c.ID] = &c
	}
	return m
}

func (m *memStore) FindCrop(_ context.Context, id primitive.ObjectID) (*models.Crop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.crops[id]
	if !ok {
		return nil, apperr.NotFound("Crop not found")
	}
	cp := *c
	cp.Interests = append([]models.Interest(nil), c.Interests...)
	return &cp, nil
}

func (m *memStore) PushInterest(_ context.Context, id primitive.ObjectID, in models.Interest, now time.Time) (*models.Crop, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.crops[id]
	if !ok {
		return nil, false, nil
	}
	c.Interests = append(c.Interests, in)
	c.UpdatedAt = now
	header := *c
	header.Interests = nil
	return &header, true, nil
}

func (m *memStore) SetPendingStatus(_ context.Context, cropID, interestID primitive.ObjectID, owner, status string, now time.Time) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.crops[cropID]
	if !ok || c.Owner.OwnerEmail != owner {
		return 0, 0, nil
	}
	for i := range c.Interests {
		if c.Interests[i].InterestID == interestID && c.Interests[i].Status == models.StatusPending {
			c.Interests[i].Status = status
			c.UpdatedAt = now
			return 1, 1, nil
		}
	}
	return 0, 0, nil
}

func (m *memStore) FindByInterestedUser(_ context.Context, email string) ([]models.Crop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Crop{}
	for _, c := range m.crops {
		for _, in := range c.Interests {
			if in.InterestedUserEmail == email {
				out = append(out, *c)
				break
			}
		}
	}
	return out, nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []mq.Event
}

func (r *recordingEmitter) Emit(_ context.Context, ev mq.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate(context.Context, string) { c.n++ }

const (
	owner = "seller@farm.test"
	buyer = "buyer@market.test"
)

func ownedCrop() models.Crop {
	return models.Crop{
		ID:           primitive.NewObjectID(),
		CropName:     "Wheat",
		PricePerUnit: 30,
		Owner:        models.Owner{OwnerName: "Ravi", OwnerEmail: owner},
		Interests:    []models.Interest{},
	}
}

func newTestLedger(crops ...models.Crop) (*Ledger, *memStore, *recordingEmitter, *countingInvalidator) {
	store := newMemStore(crops...)
	events := &recordingEmitter{}
	inv := &countingInvalidator{}
	return NewLedger(store, events, inv, logger.Nop()), store, events, inv
}

func TestAppendForcesPendingAndCaller(t *testing.T) {
	crop := ownedCrop()
	ledger, store, events, inv := newTestLedger(crop)

	payload := models.Interest{
		InterestID:          primitive.NewObjectID(),
		InterestedUserEmail: "spoof@x.test",
		InterestedUserName:  "Asha",
		Quantity:            10,
		TotalPrice:          300,
		Status:              models.StatusAccepted,
	}
	res, err := ledger.Append(context.Background(), crop.ID.Hex(), payload, "Buyer@Market.test")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if !res.Acknowledged || res.ModifiedCount != 1 || res.InterestID == "" {
		t.Fatalf("unexpected result: %+v", res)
	}

	stored := store.crops[crop.ID].Interests
	if len(stored) != 1 {
		t.Fatalf("interests: want=1 got=%d", len(stored))
	}
	in := stored[0]
	if in.Status != models.StatusPending {
		t.Fatalf("status: want=pending got=%s", in.Status)
	}
	if in.InterestedUserEmail != buyer {
		t.Fatalf("email: want=%s got=%s", buyer, in.InterestedUserEmail)
	}
	if in.InterestID == payload.InterestID || in.InterestID.Hex() != res.InterestID {
		t.Fatalf("interest id not assigned by the ledger: %s", in.InterestID.Hex())
	}
	if in.CropID != crop.ID {
		t.Fatalf("crop id: got=%s", in.CropID.Hex())
	}

	if len(events.events) != 1 || events.events[0].Name != mq.InterestCreated || events.events[0].Recipient != owner {
		t.Fatalf("events: %+v", events.events)
	}
	if inv.n != 1 {
		t.Fatalf("invalidations: want=1 got=%d", inv.n)
	}
}

func TestAppendAssignsDistinctIDs(t *testing.T) {
	crop := ownedCrop()
	ledger, store, _, _ := newTestLedger(crop)

	for i := 0; i < 3; i++ {
		if _, err := ledger.Append(context.Background(), crop.ID.Hex(), models.Interest{TotalPrice: 10}, buyer); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	seen := map[primitive.ObjectID]bool{}
	for _, in := range store.crops[crop.ID].Interests {
		if seen[in.InterestID] {
			t.Fatalf("duplicate interest id %s", in.InterestID.Hex())
		}
		seen[in.InterestID] = true
	}
	if len(seen) != 3 {
		t.Fatalf("want 3 interests got=%d", len(seen))
	}
}

func TestAppendUnknownCrop(t *testing.T) {
	ledger, _, events, _ := newTestLedger()
	_, err := ledger.Append(context.Background(), primitive.NewObjectID().Hex(), models.Interest{}, buyer)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("want not_found got=%v", err)
	}
	if len(events.events) != 0 {
		t.Fatal("no event expected")
	}
}

func TestAppendRequiresCaller(t *testing.T) {
	crop := ownedCrop()
	ledger, _, _, _ := newTestLedger(crop)
	if _, err := ledger.Append(context.Background(), crop.ID.Hex(), models.Interest{}, ""); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("want unauthorized got=%v", err)
	}
}

func TestAppendedInterestListedOnceForOwner(t *testing.T) {
	crop := ownedCrop()
	ledger, _, _, _ := newTestLedger(crop)
	res, err := ledger.Append(context.Background(), crop.ID.Hex(), models.Interest{TotalPrice: 60}, buyer)
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	list, err := ledger.ListForCrop(context.Background(), crop.ID.Hex(), owner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	count := 0
	for _, in := range list {
		if in.InterestID.Hex() == res.InterestID {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("interest appears %d times", count)
	}
}

func TestListForCropHidesInterestsFromOthers(t *testing.T) {
	crop := ownedCrop()
	ledger, _, _, _ := newTestLedger(crop)
	ledger.Append(context.Background(), crop.ID.Hex(), models.Interest{}, buyer)

	if _, err := ledger.ListForCrop(context.Background(), crop.ID.Hex(), buyer); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("want forbidden got=%v", err)
	}
	if _, err := ledger.ListForCrop(context.Background(), primitive.NewObjectID().Hex(), owner); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("want not_found got=%v", err)
	}
}

func TestSetStatusChangesOnlyTarget(t *testing.T) {
	crop := ownedCrop()
	ledger, store, events, _ := newTestLedger(crop)
	ctx := context.Background()

	first, _ := ledger.Append(ctx, crop.ID.Hex(), models.Interest{TotalPrice: 100}, buyer)
	second, _ := ledger.Append(ctx, crop.ID.Hex(), models.Interest{TotalPrice: 50}, "other@market.test")

	res, err := ledger.SetStatus(ctx, crop.ID.Hex(), first.InterestID, "Accepted", owner)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if res.MatchedCount != 1 || res.ModifiedCount != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}

	for _, in := range store.crops[crop.ID].Interests {
		switch in.InterestID.Hex() {
		case first.InterestID:
			if in.Status != models.StatusAccepted {
				t.Fatalf("target status: got=%s", in.Status)
			}
		case second.InterestID:
			if in.Status != models.StatusPending {
				t.Fatalf("sibling status changed to %s", in.Status)
			}
		}
	}

	last := events.events[len(events.events)-1]
	if last.Name != mq.InterestStatus || last.Recipient != buyer || last.Status != models.StatusAccepted {
		t.Fatalf("status event: %+v", last)
	}
}

func TestSetStatusRules(t *testing.T) {
	crop := ownedCrop()
	ledger, _, _, _ := newTestLedger(crop)
	ctx := context.Background()
	added, _ := ledger.Append(ctx, crop.ID.Hex(), models.Interest{}, buyer)

	if _, err := ledger.SetStatus(ctx, crop.ID.Hex(), added.InterestID, "maybe", owner); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("bad status: got=%v", err)
	}
	if _, err := ledger.SetStatus(ctx, crop.ID.Hex(), added.InterestID, models.StatusPending, owner); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("pending target: got=%v", err)
	}
	if _, err := ledger.SetStatus(ctx, crop.ID.Hex(), added.InterestID, models.StatusAccepted, buyer); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("non-owner: got=%v", err)
	}
	if _, err := ledger.SetStatus(ctx, crop.ID.Hex(), primitive.NewObjectID().Hex(), models.StatusAccepted, owner); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("unknown interest: got=%v", err)
	}
	if _, err := ledger.SetStatus(ctx, crop.ID.Hex(), added.InterestID, models.StatusRejected, owner); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := ledger.SetStatus(ctx, crop.ID.Hex(), added.InterestID, models.StatusAccepted, owner); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("decided interest: got=%v", err)
	}
}

func TestListForUserEnriches(t *testing.T) {
	wheat := ownedCrop()
	rice := ownedCrop()
	rice.CropName = "Rice"
	ledger, _, _, _ := newTestLedger(wheat, rice)
	ctx := context.Background()

	ledger.Append(ctx, wheat.ID.Hex(), models.Interest{TotalPrice: 1}, buyer)
	ledger.Append(ctx, wheat.ID.Hex(), models.Interest{TotalPrice: 2}, "other@market.test")
	ledger.Append(ctx, rice.ID.Hex(), models.Interest{TotalPrice: 3}, buyer)

	list, err := ledger.ListForUser(ctx, buyer)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("want 2 got=%d", len(list))
	}
	for _, in := range list {
		if in.InterestedUserEmail != buyer || in.OwnerEmail != owner {
			t.Fatalf("unexpected entry: %+v", in)
		}
		if in.CropName != "Wheat" && in.CropName != "Rice" {
			t.Fatalf("crop name: %q", in.CropName)
		}
	}

	empty, err := ledger.ListForUser(ctx, "nobody@x.test")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("empty list: %v %v", empty, err)
	}
}

func TestEnrichSetsCropID(t *testing.T) {
	crop := ownedCrop()
	crop.Interests = []models.Interest{{InterestID: primitive.NewObjectID(), InterestedUserEmail: buyer, Status: models.StatusPending}}
	got := Enrich([]models.Crop{crop}, buyer)
	if len(got) != 1 || got[0].CropID != crop.ID || got[0].CropName != "Wheat" {
		t.Fatalf("unexpected: %+v", got)
	}
}
