package models

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

type Owner struct {
	OwnerName  string `bson:"owner_name"  json:"owner_name"`
	OwnerEmail string `bson:"owner_email" json:"owner_email"`
}

type Crop struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"         json:"_id"`
	Type         string             `bson:"type"                  json:"type"`
	PricePerUnit float64            `bson:"price_per_unit"        json:"price_per_unit"`
	CropName     string             `bson:"crop_name"             json:"crop_name"`
	CropImage    string             `bson:"crop_image,omitempty"  json:"crop_image,omitempty"`
	Quantity     float64            `bson:"quantity,omitempty"    json:"quantity,omitempty"`
	Unit         string             `bson:"unit,omitempty"        json:"unit,omitempty"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Location     string             `bson:"location,omitempty"    json:"location,omitempty"`
	Owner        Owner              `bson:"owner"                 json:"owner"`
	Interests    []Interest         `bson:"interests"             json:"interests"`
	CreatedAt    time.Time          `bson:"created_at"            json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"            json:"updated_at"`
	// Extra holds caller-supplied fields beyond the ones above.
	Extra map[string]interface{} `bson:",inline" json:"-"`
}

// Interest is a purchase request embedded in its crop. Only Status changes after append.
type Interest struct {
	InterestID          primitive.ObjectID     `bson:"interest_id"                  json:"interest_id"`
	CropID              primitive.ObjectID     `bson:"crop_id"                      json:"crop_id"`
	InterestedUserEmail string                 `bson:"interestedUserEmail"          json:"interestedUserEmail"`
	InterestedUserName  string                 `bson:"interestedUserName,omitempty" json:"interestedUserName,omitempty"`
	Quantity            float64                `bson:"quantity,omitempty"           json:"quantity,omitempty"`
	Message             string                 `bson:"message,omitempty"            json:"message,omitempty"`
	TotalPrice          float64                `bson:"total_price"                  json:"total_price"`
	Status              string                 `bson:"status"                       json:"status"`
	CreatedAt           time.Time              `bson:"created_at,omitempty"         json:"created_at,omitempty"`
	Extra               map[string]interface{} `bson:",inline"                 json:"-"`
}

// EnrichedInterest is an Interest joined with context from its crop.
type EnrichedInterest struct {
	Interest
	CropName   string `json:"crop_name"`
	CropImage  string `json:"crop_image"`
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
}

// FindInterest returns the embedded interest with the given id.
func (c *Crop) FindInterest(id primitive.ObjectID) (Interest, bool) {
	for _, in := range c.Interests {
		if in.InterestID == id {
			return in, true
		}
	}
	return Interest{}, false
}

func (c *Crop) OwnedBy(email string) bool {
	return email != "" && NormalizeEmail(c.Owner.OwnerEmail) == NormalizeEmail(email)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type (
	cropAlias     Crop
	interestAlias Interest
)

var (
	cropFields     = jsonNames(reflect.TypeOf(cropAlias{}))
	interestFields = jsonNames(reflect.TypeOf(interestAlias{}))

	// Set by the server; a caller value is discarded, not rejected.
	cropServerOwned = map[string]bool{
		"_id": true, "interests": true, "created_at": true, "updated_at": true,
	}
	interestServerOwned = map[string]bool{
		"interest_id": true, "crop_id": true, "interestedUserEmail": true,
		"status": true, "created_at": true,
	}
)

// IsCropField reports whether name is one of Crop's own JSON fields.
func IsCropField(name string) bool { return cropFields[name] }

func (c Crop) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(cropAlias(c), c.Extra)
}

func (c *Crop) UnmarshalJSON(data []byte) error {
	var base cropAlias
	extra, err := decodeWithExtra(data, &base, cropFields, cropServerOwned)
	if err != nil {
		return err
	}
	base.Extra = extra
	*c = Crop(base)
	return nil
}

func (in Interest) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(interestAlias(in), in.Extra)
}

func (in *Interest) UnmarshalJSON(data []byte) error {
	var base interestAlias
	extra, err := decodeWithExtra(data, &base, interestFields, interestServerOwned)
	if err != nil {
		return err
	}
	base.Extra = extra
	*in = Interest(base)
	return nil
}

type enrichment struct {
	CropName   string `json:"crop_name"`
	CropImage  string `json:"crop_image"`
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
}

var enrichmentFields = jsonNames(reflect.TypeOf(enrichment{}))

func (e EnrichedInterest) MarshalJSON() ([]byte, error) {
	ctx := enrichment{CropName: e.CropName, CropImage: e.CropImage, OwnerName: e.OwnerName, OwnerEmail: e.OwnerEmail}
	merged := make(map[string]interface{}, len(e.Extra)+len(enrichmentFields))
	for k, v := range e.Extra {
		merged[k] = v
	}
	b, err := json.Marshal(ctx)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	return encodeWithExtra(interestAlias(e.Interest), merged)
}

func (e *EnrichedInterest) UnmarshalJSON(data []byte) error {
	var in Interest
	if err := in.UnmarshalJSON(data); err != nil {
		return err
	}
	var ctx enrichment
	if err := json.Unmarshal(data, &ctx); err != nil {
		return err
	}
	for k := range enrichmentFields {
		delete(in.Extra, k)
	}
	if len(in.Extra) == 0 {
		in.Extra = nil
	}
	*e = EnrichedInterest{
		Interest:   in,
		CropName:   ctx.CropName,
		CropImage:  ctx.CropImage,
		OwnerName:  ctx.OwnerName,
		OwnerEmail: ctx.OwnerEmail,
	}
	return nil
}
