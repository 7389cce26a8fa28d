package crops

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"krishilink/apperr"
	"krishilink/logger"
	"krishilink/models"
)

// Invalidator is told when an owner's crops change so derived views can be dropped.
type Invalidator interface {
	Invalidate(ctx context.Context, ownerEmail string)
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context, string) {}

// Catalog owns crop documents. The embedded interests are only written by the
// interest ledger; nothing here can replace them after creation.
type Catalog struct {
	store Store
	stats Invalidator
	log   *logger.Logger
	now   func() time.Time
}

func NewCatalog(store Store, stats Invalidator, log *logger.Logger) *Catalog {
	if stats == nil {
		stats = nopInvalidator{}
	}
	return &Catalog{
		store: store,
		stats: stats,
		log:   log.With("service", "CropCatalog"),
		now:   time.Now,
	}
}

// ParseID converts a hex id. Malformed ids resolve to NotFound.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound("Crop not found")
	}
	return id, nil
}

// ParseSort maps the price and sort query parameters. price orders by
// price_per_unit and wins over sort, which orders by created_at; neither
// means newest first.
func ParseSort(price, order string) (Sort, error) {
	switch strings.ToLower(strings.TrimSpace(price)) {
	case "":
	case "asc":
		return SortPriceAsc, nil
	case "desc":
		return SortPriceDesc, nil
	default:
		return Sort{}, apperr.BadRequest("price must be asc or desc")
	}

	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "desc":
		return SortNewest, nil
	case "asc":
		return SortOldest, nil
	}
	return Sort{}, apperr.BadRequest("sort must be asc or desc")
}

func (c *Catalog) Create(ctx context.Context, crop models.Crop, callerEmail string) (primitive.ObjectID, error) {
	owner := models.NormalizeEmail(crop.Owner.OwnerEmail)
	if owner == "" {
		return primitive.NilObjectID, apperr.BadRequest("owner email is required")
	}
	if owner != models.NormalizeEmail(callerEmail) {
		return primitive.NilObjectID, apperr.Forbidden("owner email must match the signed-in user")
	}
	if strings.TrimSpace(crop.CropName) == "" {
		return primitive.NilObjectID, apperr.BadRequest("crop_name is required")
	}
	if crop.PricePerUnit < 0 || crop.Quantity < 0 {
		return primitive.NilObjectID, apperr.BadRequest("price and quantity cannot be negative")
	}

	now := c.now().UTC()
	crop.ID = primitive.NilObjectID
	crop.Owner.OwnerEmail = owner
	crop.Interests = []models.Interest{}
	crop.CreatedAt = now
	crop.UpdatedAt = now
	crop.Extra = models.CleanExtra(crop.Extra)

	id, err := c.store.Insert(ctx, &crop)
	if err != nil {
		return primitive.NilObjectID, apperr.Internal(err, "create crop")
	}
	c.stats.Invalidate(ctx, owner)
	c.log.Info("crop created", "crop_id", id.Hex(), "owner", owner)
	return id, nil
}

func (c *Catalog) List(ctx context.Context, filter Filter, sort Sort, limit int64) ([]models.Crop, error) {
	crops, err := c.store.Find(ctx, filter, sort, limit)
	if err != nil {
		return nil, apperr.Internal(err, "list crops")
	}
	return crops, nil
}

func (c *Catalog) ListByOwner(ctx context.Context, ownerEmail string) ([]models.Crop, error) {
	ownerEmail = models.NormalizeEmail(ownerEmail)
	if ownerEmail == "" {
		return nil, apperr.BadRequest("email is required")
	}
	crops, err := c.store.FindByOwner(ctx, ownerEmail)
	if err != nil {
		return nil, apperr.Internal(err, "list owner crops")
	}
	return crops, nil
}

func (c *Catalog) GetByID(ctx context.Context, hexID string) (*models.Crop, error) {
	id, err := ParseID(hexID)
	if err != nil {
		return nil, err
	}
	crop, err := c.store.FindByID(ctx, id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
		return nil, apperr.Internal(err, "get crop")
	}
	return crop, nil
}

// patchable lists the top-level fields a merge patch may replace, with a
// check on the decoded JSON value.
var patchable = map[string]func(interface{}) bool{
	"type":           isString,
	"crop_name":      isNonEmptyString,
	"crop_image":     isString,
	"unit":           isString,
	"description":    isString,
	"location":       isString,
	"price_per_unit": isNonNegativeNumber,
	"quantity":       isNonNegativeNumber,
}

func isString(v interface{}) bool {
	_, ok := v.(string)
	return ok
}

func isNonEmptyString(v interface{}) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

func isNonNegativeNumber(v interface{}) bool {
	f, ok := v.(float64)
	return ok && f >= 0
}

// BuildPatch validates a shallow merge patch and returns the $set document.
func BuildPatch(patch map[string]interface{}, now time.Time) (bson.M, error) {
	if len(patch) == 0 {
		return nil, apperr.BadRequest("no fields to update")
	}
	set := bson.M{}
	for field, value := range patch {
		check, ok := patchable[field]
		if !ok {
			// Caller-defined fields take any value.
			if models.IsCropField(field) || !models.ValidExtraKey(field) {
				return nil, apperr.BadRequest("field %q cannot be updated", field)
			}
			set[field] = value
			continue
		}
		if !check(value) {
			return nil, apperr.BadRequest("invalid value for %q", field)
		}
		set[field] = value
	}
	set["updated_at"] = now
	return set, nil
}

// Update applies patch to a crop owned by callerEmail. A foreign or missing
// crop is reported as zero modified, not as an error.
func (c *Catalog) Update(ctx context.Context, hexID string, patch map[string]interface{}, callerEmail string) (int64, error) {
	set, err := BuildPatch(patch, c.now().UTC())
	if err != nil {
		return 0, err
	}
	id, err := ParseID(hexID)
	if err != nil {
		return 0, nil
	}
	owner := models.NormalizeEmail(callerEmail)
	modified, err := c.store.UpdateOwned(ctx, id, owner, set)
	if err != nil {
		return 0, apperr.Internal(err, "update crop")
	}
	if modified > 0 {
		c.stats.Invalidate(ctx, owner)
	}
	return modified, nil
}

// Delete removes a crop and, with it, every embedded interest.
func (c *Catalog) Delete(ctx context.Context, hexID string, callerEmail string) (int64, error) {
	id, err := ParseID(hexID)
	if err != nil {
		return 0, nil
	}
	owner := models.NormalizeEmail(callerEmail)
	deleted, err := c.store.DeleteOwned(ctx, id, owner)
	if err != nil {
		return 0, apperr.Internal(err, fmt.Sprintf("delete crop %s", id.Hex()))
	}
	if deleted > 0 {
		c.stats.Invalidate(ctx, owner)
		c.log.Info("crop deleted", "crop_id", id.Hex(), "owner", owner)
	}
	return deleted, nil
}
