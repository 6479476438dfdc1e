package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/contacts_api/internal/models"
)

func (r *GormRepo) findUser(ctx context.Context, column, value string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where(column+" = ?", value).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindByUsername returns (nil, nil) when no such user exists.
func (r *GormRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findUser(ctx, "username", username)
}

// FindByEmail returns (nil, nil) when no such user exists.
func (r *GormRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUser(ctx, "email", email)
}

func (r *GormRepo) InsertUser(ctx context.Context, u *models.User) (*models.User, error) {
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		return nil, translate(err)
	}
	return u, nil
}

// updateUserByEmail applies fields and returns the fresh row, or (nil, nil)
// when the email matches nothing.
func (r *GormRepo) updateUserByEmail(ctx context.Context, email string, fields map[string]any) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
			return err
		}
		return tx.Model(&user).Updates(fields).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) UpdateConfirmed(ctx context.Context, email string) (*models.User, error) {
	return r.updateUserByEmail(ctx, email, map[string]any{"confirmed": true})
}

func (r *GormRepo) UpdateAvatarURL(ctx context.Context, email, url string) (*models.User, error) {
	return r.updateUserByEmail(ctx, email, map[string]any{"avatar": url})
}

func (r *GormRepo) UpdatePasswordHash(ctx context.Context, email, hash string) (*models.User, error) {
	return r.updateUserByEmail(ctx, email, map[string]any{"password_hash": hash})
}
