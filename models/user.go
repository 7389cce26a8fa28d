package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"           json:"_id,omitempty"`
	Email        string             `bson:"email"                   json:"email"`
	Name         string             `bson:"name,omitempty"          json:"name,omitempty"`
	PhotoURL     string             `bson:"photo_url,omitempty"     json:"photo_url,omitempty"`
	Role         string             `bson:"role,omitempty"          json:"role,omitempty"`
	Password     string             `bson:"-"                       json:"password,omitempty"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	CreatedAt    time.Time          `bson:"created_at"              json:"created_at"`
	LastLogin    time.Time          `bson:"last_login,omitempty"    json:"last_login,omitempty"`
}
