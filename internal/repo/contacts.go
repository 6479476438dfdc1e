package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/contacts_api/internal/models"
)

func (r *GormRepo) ownedContacts(ctx context.Context, userID uint) *gorm.DB {
	return r.DB.WithContext(ctx).Model(&models.Contact{}).Where("user_id = ?", userID)
}

func (r *GormRepo) ListContacts(ctx context.Context, userID uint, offset, limit int) ([]models.Contact, error) {
	items := make([]models.Contact, 0, limit)
	if err := r.ownedContacts(ctx, userID).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AllContacts returns every contact of the owner, unpaginated.
func (r *GormRepo) AllContacts(ctx context.Context, userID uint) ([]models.Contact, error) {
	var items []models.Contact
	if err := r.ownedContacts(ctx, userID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetContact returns (nil, nil) when the contact is absent or owned by someone else.
func (r *GormRepo) GetContact(ctx context.Context, userID, id uint) (*models.Contact, error) {
	var contact models.Contact
	if err := r.ownedContacts(ctx, userID).Where("id = ?", id).First(&contact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contact, nil
}

// ContactsByIDs keeps the order of ids and silently drops foreign or missing rows.
func (r *GormRepo) ContactsByIDs(ctx context.Context, userID uint, ids []uint) ([]models.Contact, error) {
	if len(ids) == 0 {
		return []models.Contact{}, nil
	}
	var found []models.Contact
	if err := r.ownedContacts(ctx, userID).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Contact, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	items := make([]models.Contact, 0, len(found))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			items = append(items, c)
		}
	}
	return items, nil
}

func (r *GormRepo) CreateContact(ctx context.Context, c *models.Contact) (*models.Contact, error) {
	if err := r.DB.WithContext(ctx).Create(c).Error; err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// UpdateContact overwrites the editable fields; (nil, nil) when not found.
func (r *GormRepo) UpdateContact(ctx context.Context, userID, id uint, in *models.Contact) (*models.Contact, error) {
	contact, err := r.GetContact(ctx, userID, id)
	if err != nil || contact == nil {
		return nil, err
	}

	contact.FirstName = in.FirstName
	contact.LastName = in.LastName
	contact.Email = in.Email
	contact.PhoneNumber = in.PhoneNumber
	contact.Birthday = in.Birthday
	contact.AdditionalData = in.AdditionalData

	if err := r.DB.WithContext(ctx).Save(contact).Error; err != nil {
		return nil, translate(err)
	}
	return contact, nil
}

// DeleteContact returns the removed row, or (nil, nil) when nothing matched.
func (r *GormRepo) DeleteContact(ctx context.Context, userID, id uint) (*models.Contact, error) {
	contact, err := r.GetContact(ctx, userID, id)
	if err != nil || contact == nil {
		return nil, err
	}

	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Contact{}, id)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return contact, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchContacts is a case-insensitive substring match over the text columns.
func (r *GormRepo) SearchContacts(ctx context.Context, userID uint, text string, offset, limit int) ([]models.Contact, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(text)) + "%"
	where := `(LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\'` +
		` OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(COALESCE(additional_data, '')) LIKE ? ESCAPE '\'` +
		` OR phone_number LIKE ? ESCAPE '\')`

	items := make([]models.Contact, 0, limit)
	if err := r.ownedContacts(ctx, userID).
		Where(where, pattern, pattern, pattern, pattern, pattern).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
