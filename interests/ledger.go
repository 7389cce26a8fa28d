package interests

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"krishilink/apperr"
	"krishilink/crops"
	"krishilink/logger"
	"krishilink/models"
	"krishilink/mq"
)

type UpdateResult struct {
	Acknowledged  bool   `json:"acknowledged"`
	MatchedCount  int64  `json:"matchedCount"`
	ModifiedCount int64  `json:"modifiedCount"`
	InterestID    string `json:"interestId,omitempty"`
}

// Ledger records purchase interest inside crop documents.
type Ledger struct {
	store  Store
	events mq.Emitter
	stats  crops.Invalidator
	log    *logger.Logger
	now    func() time.Time
	newID  func() primitive.ObjectID
}

func NewLedger(store Store, events mq.Emitter, stats crops.Invalidator, log *logger.Logger) *Ledger {
	if events == nil {
		events = mq.Nop{}
	}
	return &Ledger{
		store:  store,
		events: events,
		stats:  stats,
		log:    log.With("service", "InterestLedger"),
		now:    time.Now,
		newID:  primitive.NewObjectID,
	}
}

// Append adds a pending interest from callerEmail to the crop. Any status,
// id or email in the payload is replaced.
func (l *Ledger) Append(ctx context.Context, cropHex string, payload models.Interest, callerEmail string) (UpdateResult, error) {
	caller := models.NormalizeEmail(callerEmail)
	if caller == "" {
		return UpdateResult{}, apperr.Unauthorized("Unauthorized access")
	}
	cropID, err := crops.ParseID(cropHex)
	if err != nil {
		return UpdateResult{}, err
	}
	if payload.Quantity < 0 || payload.TotalPrice < 0 {
		return UpdateResult{}, apperr.BadRequest("quantity and total_price cannot be negative")
	}

	now := l.now().UTC()
	in := models.Interest{
		InterestID:          l.newID(),
		CropID:              cropID,
		InterestedUserEmail: caller,
		InterestedUserName:  strings.TrimSpace(payload.InterestedUserName),
		Quantity:            payload.Quantity,
		Message:             strings.TrimSpace(payload.Message),
		TotalPrice:          payload.TotalPrice,
		Status:              models.StatusPending,
		CreatedAt:           now,
		Extra:               models.CleanExtra(payload.Extra),
	}

	crop, found, err := l.store.PushInterest(ctx, cropID, in, now)
	if err != nil {
		return UpdateResult{}, apperr.Internal(err, "append interest")
	}
	if !found {
		return UpdateResult{Acknowledged: true}, apperr.NotFound("Crop not found")
	}

	owner := models.NormalizeEmail(crop.Owner.OwnerEmail)
	l.invalidate(ctx, owner)
	l.emit(ctx, mq.Event{
		Name:       mq.InterestCreated,
		Recipient:  owner,
		CropID:     cropID.Hex(),
		CropName:   crop.CropName,
		InterestID: in.InterestID.Hex(),
		Status:     in.Status,
		From:       caller,
		At:         now,
	})
	l.log.Info("interest added", "crop_id", cropID.Hex(), "interest_id", in.InterestID.Hex())

	return UpdateResult{
		Acknowledged:  true,
		MatchedCount:  1,
		ModifiedCount: 1,
		InterestID:    in.InterestID.Hex(),
	}, nil
}

// ListForCrop returns the crop's interests to its owner only.
func (l *Ledger) ListForCrop(ctx context.Context, cropHex, requesterEmail string) ([]models.Interest, error) {
	crop, err := l.ownedCrop(ctx, cropHex, requesterEmail)
	if err != nil {
		return nil, err
	}
	if crop.Interests == nil {
		return []models.Interest{}, nil
	}
	return crop.Interests, nil
}

// ListForUser finds every interest requesterEmail has placed, across all crops.
func (l *Ledger) ListForUser(ctx context.Context, requesterEmail string) ([]models.EnrichedInterest, error) {
	requester := models.NormalizeEmail(requesterEmail)
	if requester == "" {
		return nil, apperr.BadRequest("email is required")
	}
	matched, err := l.store.FindByInterestedUser(ctx, requester)
	if err != nil {
		return nil, apperr.Internal(err, "list interests by user")
	}
	return Enrich(matched, requester), nil
}

// Enrich joins each of email's interests with context from its parent crop.
// Interests are embedded, so the join happens here rather than in a query.
func Enrich(matched []models.Crop, email string) []models.EnrichedInterest {
	out := []models.EnrichedInterest{}
	for _, crop := range matched {
		for _, in := range crop.Interests {
			if models.NormalizeEmail(in.InterestedUserEmail) != email {
				continue
			}
			in.CropID = crop.ID
			out = append(out, models.EnrichedInterest{
				Interest:   in,
				CropName:   crop.CropName,
				CropImage:  crop.CropImage,
				OwnerName:  crop.Owner.OwnerName,
				OwnerEmail: crop.Owner.OwnerEmail,
			})
		}
	}
	return out
}

func ValidTargetStatus(status string) bool {
	return status == models.StatusAccepted || status == models.StatusRejected
}

// SetStatus moves a pending interest to accepted or rejected. Only the crop
// owner may do it, and a decided interest stays decided.
func (l *Ledger) SetStatus(ctx context.Context, cropHex, interestHex, newStatus, requesterEmail string) (UpdateResult, error) {
	newStatus = strings.ToLower(strings.TrimSpace(newStatus))
	if !ValidTargetStatus(newStatus) {
		return UpdateResult{}, apperr.BadRequest("status must be %q or %q", models.StatusAccepted, models.StatusRejected)
	}

	crop, err := l.ownedCrop(ctx, cropHex, requesterEmail)
	if err != nil {
		return UpdateResult{}, err
	}
	interestID, err := primitive.ObjectIDFromHex(strings.TrimSpace(interestHex))
	if err != nil {
		return UpdateResult{}, apperr.NotFound("Interest not found")
	}
	current, ok := crop.FindInterest(interestID)
	if !ok {
		return UpdateResult{}, apperr.NotFound("Interest not found")
	}
	if current.Status != models.StatusPending {
		return UpdateResult{}, apperr.Conflict("Interest is already %s", current.Status)
	}

	owner := models.NormalizeEmail(crop.Owner.OwnerEmail)
	now := l.now().UTC()
	matched, modified, err := l.store.SetPendingStatus(ctx, crop.ID, interestID, owner, newStatus, now)
	if err != nil {
		return UpdateResult{}, apperr.Internal(err, "set interest status")
	}
	if matched == 0 {
		// Another request decided it between our read and the update.
		return UpdateResult{Acknowledged: true}, apperr.Conflict("Interest is no longer pending")
	}

	l.invalidate(ctx, owner)
	l.emit(ctx, mq.Event{
		Name:       mq.InterestStatus,
		Recipient:  current.InterestedUserEmail,
		CropID:     crop.ID.Hex(),
		CropName:   crop.CropName,
		InterestID: interestID.Hex(),
		Status:     newStatus,
		From:       owner,
		At:         now,
	})
	l.log.Info("interest status changed", "crop_id", crop.ID.Hex(), "interest_id", interestID.Hex(), "status", newStatus)

	return UpdateResult{Acknowledged: true, MatchedCount: matched, ModifiedCount: modified, InterestID: interestID.Hex()}, nil
}

// ownedCrop loads the crop and checks ownership before any interest data is exposed.
func (l *Ledger) ownedCrop(ctx context.Context, cropHex, requesterEmail string) (*models.Crop, error) {
	requester := models.NormalizeEmail(requesterEmail)
	if requester == "" {
		return nil, apperr.Unauthorized("Unauthorized access")
	}
	cropID, err := crops.ParseID(cropHex)
	if err != nil {
		return nil, err
	}
	crop, err := l.store.FindCrop(ctx, cropID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
		return nil, apperr.Internal(err, "load crop")
	}
	if !crop.OwnedBy(requester) {
		return nil, apperr.Forbidden("Forbidden access")
	}
	return crop, nil
}

func (l *Ledger) invalidate(ctx context.Context, owner string) {
	if l.stats != nil {
		l.stats.Invalidate(ctx, owner)
	}
}

func (l *Ledger) emit(ctx context.Context, ev mq.Event) {
	if err := l.events.Emit(ctx, ev); err != nil {
		l.log.Warn("event not delivered", "event", ev.Name, "error", err)
	}
}
