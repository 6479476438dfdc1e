package service

import (
	"context"
	"io"

	"github.com/Skotchmaster/contacts_api/internal/mailer"
	"github.com/Skotchmaster/contacts_api/internal/models"
)

// UserStore is the authoritative user record store. Lookups return
// (nil, nil) when nothing matches; absence is never an error.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	InsertUser(ctx context.Context, u *models.User) (*models.User, error)
	UpdateConfirmed(ctx context.Context, email string) (*models.User, error)
	UpdateAvatarURL(ctx context.Context, email, url string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, email, hash string) (*models.User, error)
}

type ContactStore interface {
	ListContacts(ctx context.Context, userID uint, offset, limit int) ([]models.Contact, error)
	AllContacts(ctx context.Context, userID uint) ([]models.Contact, error)
	GetContact(ctx context.Context, userID, id uint) (*models.Contact, error)
	ContactsByIDs(ctx context.Context, userID uint, ids []uint) ([]models.Contact, error)
	CreateContact(ctx context.Context, c *models.Contact) (*models.Contact, error)
	UpdateContact(ctx context.Context, userID, id uint, in *models.Contact) (*models.Contact, error)
	DeleteContact(ctx context.Context, userID, id uint) (*models.Contact, error)
	SearchContacts(ctx context.Context, userID uint, text string, offset, limit int) ([]models.Contact, error)
}

// Dispatcher hands an email task off without waiting for delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg mailer.Message)
}

type ContactIndex interface {
	Index(ctx context.Context, c *models.Contact) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, userID uint, text string, from, size int) ([]uint, error)
}

type AvatarStorage interface {
	Upload(ctx context.Context, username, contentType string, r io.Reader) (string, error)
}
