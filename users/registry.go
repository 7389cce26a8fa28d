package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"krishilink/apperr"
	"krishilink/logger"
	"krishilink/models"
)

const (
	InsertionSuccess = "Success"
	InsertionFailed  = "Failed"
)

type Result struct {
	Insertion string `json:"insertion"`
	Message   string `json:"message"`
}

type Registry struct {
	store Store
	log   *logger.Logger
	now   func() time.Time
	cost  int
}

func NewRegistry(store Store, log *logger.Logger) *Registry {
	return &Registry{store: store, log: log.With("service", "UserRegistry"), now: time.Now, cost: bcrypt.DefaultCost}
}

// Register inserts user once per email. A duplicate is reported in the
// result, never as an error, and leaves the stored user untouched.
func (r *Registry) Register(ctx context.Context, user models.User) (Result, error) {
	user.Email = models.NormalizeEmail(user.Email)
	if user.Email == "" {
		return Result{}, apperr.BadRequest("email is required")
	}
	user.Name = strings.TrimSpace(user.Name)

	if user.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), r.cost)
		if err != nil {
			return Result{}, apperr.BadRequest("password cannot be used")
		}
		user.PasswordHash = string(hash)
		user.Password = ""
	}

	now := r.now().UTC()
	user.ID = primitive.NilObjectID
	user.CreatedAt = now
	user.LastLogin = now

	err := r.store.Insert(ctx, &user)
	if errors.Is(err, ErrDuplicateEmail) {
		return Result{Insertion: InsertionFailed, Message: "User already exists"}, nil
	}
	if err != nil {
		return Result{}, apperr.Internal(err, "register user")
	}
	r.log.Info("user registered", "email", user.Email)
	return Result{Insertion: InsertionSuccess, Message: "User created successfully"}, nil
}
