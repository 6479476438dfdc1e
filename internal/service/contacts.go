package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Skotchmaster/contacts_api/internal/apperr"
	"github.com/Skotchmaster/contacts_api/internal/logging"
	"github.com/Skotchmaster/contacts_api/internal/models"
	"github.com/Skotchmaster/contacts_api/internal/repo"
	"github.com/Skotchmaster/contacts_api/internal/util"
)

type ContactInput struct {
	FirstName      string
	LastName       string
	Email          string
	PhoneNumber    string
	Birthday       time.Time
	AdditionalData *string
}

// ContactService scopes every operation to the owner passed in.
type ContactService struct {
	Contacts ContactStore
	// Index is nil when full-text search is not configured.
	Index ContactIndex
	Now   func() time.Time
}

func (s *ContactService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ContactService) toModel(owner *models.User, in ContactInput) (*models.Contact, error) {
	if dateOnly(in.Birthday).After(dateOnly(s.now())) {
		return nil, apperr.ErrInvalidBirthday
	}
	return &models.Contact{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		PhoneNumber:    in.PhoneNumber,
		Birthday:       dateOnly(in.Birthday),
		AdditionalData: in.AdditionalData,
		UserID:         owner.ID,
	}, nil
}

func (s *ContactService) reindex(ctx context.Context, c *models.Contact) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, c); err != nil {
		logging.FromContext(ctx).Warn("contact_index_failed", "contact_id", c.ID, "error", err)
	}
}

func (s *ContactService) List(ctx context.Context, owner *models.User, skip, limit int) ([]models.Contact, error) {
	offset, size := util.Window(skip, limit)
	items, err := s.Contacts.ListContacts(ctx, owner.ID, offset, size)
	if err != nil {
		logging.FromContext(ctx).Error("list_contacts_failed", "user_id", owner.ID, "error", err)
		return nil, apperr.ErrInternal
	}
	return items, nil
}

func (s *ContactService) Get(ctx context.Context, owner *models.User, id uint) (*models.Contact, error) {
	c, err := s.Contacts.GetContact(ctx, owner.ID, id)
	if err != nil {
		logging.FromContext(ctx).Error("get_contact_failed", "contact_id", id, "error", err)
		return nil, apperr.ErrInternal
	}
	if c == nil {
		return nil, apperr.ErrContactNotFound
	}
	return c, nil
}

func (s *ContactService) Create(ctx context.Context, owner *models.User, in ContactInput) (*models.Contact, error) {
	l := logging.FromContext(ctx).With("svc", "contacts.create", "user_id", owner.ID)

	c, err := s.toModel(owner, in)
	if err != nil {
		return nil, err
	}
	created, err := s.Contacts.CreateContact(ctx, c)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			l.Warn("create_contact_failed", "status", 409, "reason", "duplicate name")
			return nil, apperr.ErrContactExists
		}
		l.Error("create_contact_failed", "status", 500, "error", err)
		return nil, apperr.ErrInternal
	}
	s.reindex(ctx, created)
	return created, nil
}

func (s *ContactService) Update(ctx context.Context, owner *models.User, id uint, in ContactInput) (*models.Contact, error) {
	l := logging.FromContext(ctx).With("svc", "contacts.update", "user_id", owner.ID, "contact_id", id)

	c, err := s.toModel(owner, in)
	if err != nil {
		return nil, err
	}
	updated, err := s.Contacts.UpdateContact(ctx, owner.ID, id, c)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			l.Warn("update_contact_failed", "status", 409, "reason", "duplicate name")
			return nil, apperr.ErrContactExists
		}
		l.Error("update_contact_failed", "status", 500, "error", err)
		return nil, apperr.ErrInternal
	}
	if updated == nil {
		return nil, apperr.ErrContactNotFound
	}
	s.reindex(ctx, updated)
	return updated, nil
}

func (s *ContactService) Remove(ctx context.Context, owner *models.User, id uint) (*models.Contact, error) {
	l := logging.FromContext(ctx).With("svc", "contacts.remove", "user_id", owner.ID, "contact_id", id)

	removed, err := s.Contacts.DeleteContact(ctx, owner.ID, id)
	if err != nil {
		l.Error("remove_contact_failed", "status", 500, "error", err)
		return nil, apperr.ErrInternal
	}
	if removed == nil {
		return nil, apperr.ErrContactNotFound
	}
	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			l.Warn("contact_unindex_failed", "error", err)
		}
	}
	return removed, nil
}

// Search prefers the index and falls back to the store when it is missing or failing.
func (s *ContactService) Search(ctx context.Context, owner *models.User, text string, skip, limit int) ([]models.Contact, error) {
	l := logging.FromContext(ctx).With("svc", "contacts.search", "user_id", owner.ID)
	offset, size := util.Window(skip, limit)

	if s.Index != nil {
		ids, err := s.Index.Search(ctx, owner.ID, text, offset, size)
		if err == nil {
			items, err := s.Contacts.ContactsByIDs(ctx, owner.ID, ids)
			if err != nil {
				l.Error("search_failed", "status", 500, "error", err)
				return nil, apperr.ErrInternal
			}
			return items, nil
		}
		l.Warn("index_search_failed", "fallback", "store", "error", err)
	}

	items, err := s.Contacts.SearchContacts(ctx, owner.ID, text, offset, size)
	if err != nil {
		l.Error("search_failed", "status", 500, "error", err)
		return nil, apperr.ErrInternal
	}
	return items, nil
}

// UpcomingBirthdays lists contacts whose next birthday is within days, soonest first.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, owner *models.User, days int) ([]models.Contact, error) {
	if days < 0 || days > MaxBirthdayWindow {
		return nil, apperr.ErrInvalidDays
	}

	all, err := s.Contacts.AllContacts(ctx, owner.ID)
	if err != nil {
		logging.FromContext(ctx).Error("upcoming_birthdays_failed", "user_id", owner.ID, "error", err)
		return nil, apperr.ErrInternal
	}

	today := dateOnly(s.now())
	out := make([]models.Contact, 0, len(all))
	for _, c := range all {
		if BirthdayWithin(c.Birthday, today, days) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return NextBirthday(out[i].Birthday, today).Before(NextBirthday(out[j].Birthday, today))
	})
	return out, nil
}
