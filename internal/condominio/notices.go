package condominio

import (
	"context"
	"fmt"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/entity"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/pagination"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/utilities"
)

// NoticeStore is satisfied by *repo.NoticeRepo. readerID selects whose
// read flag is reported.
type NoticeStore interface {
	Create(ctx context.Context, n *entity.Notice) error
	Get(ctx context.Context, id, readerID string) (*entity.Notice, error)
	List(ctx context.Context, pred scope.Predicate, readerID string, limit, offset int) ([]entity.Notice, int, error)
	CountUnread(ctx context.Context, pred scope.Predicate, readerID string) (int, error)
	MarkRead(ctx context.Context, readerID, noticeID string) error
	Update(ctx context.Context, n *entity.Notice) error
	Delete(ctx context.Context, id string) error
}

// NoticeService manages notices. Residents see the notices of their
// condominium parent and keep their own read markers.
type NoticeService struct {
	store NoticeStore
	sc    *Scoper
}

func NewNoticeService(store NoticeStore, sc *Scoper) *NoticeService {
	return &NoticeService{store: store, sc: sc}
}

func (s *NoticeService) Create(ctx context.Context, p scope.Principal, target scope.Target, in entity.NoticeInput) (*entity.Notice, error) {
	pl, err := s.sc.place(ctx, p, scope.KindNotice, target)
	if err != nil {
		return nil, err
	}
	n := &entity.Notice{
		ID:       utilities.NewKSUID(),
		OwnerID:  pl.OwnerID,
		TenantID: pl.TenantID,
		Type:     orDefault(in.Type, "Informativo"),
		EndsAt:   in.EndsAt,
	}
	if n.Title, err = required("title", in.Title); err != nil {
		return nil, err
	}
	if n.Description, err = required("description", in.Description); err != nil {
		return nil, err
	}
	if in.StartsAt == nil {
		return nil, fmt.Errorf("startsAt is required: %w", scope.ErrInvalidArgument)
	}
	n.StartsAt = *in.StartsAt
	if in.Highlighted != nil {
		n.Highlighted = *in.Highlighted
	}
	if err := validWindow(n); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, mapErr(scope.KindNotice, n.ID, err)
	}
	return s.fetch(ctx, p, n.ID)
}

// List returns highlighted notices first, each with p's read flag.
func (s *NoticeService) List(ctx context.Context, p scope.Principal, target scope.Target, page pagination.Page) (pagination.Result[entity.Notice], error) {
	page = page.Normalize()
	pred, ok := s.sc.filter(p, scope.KindNotice, target)
	if !ok {
		return emptyPage[entity.Notice](page), nil
	}
	rows, total, err := s.store.List(ctx, pred, p.AccountID, page.Limit, page.Offset())
	if err != nil {
		return pagination.Result[entity.Notice]{}, err
	}
	return pagination.NewResult(rows, total, page), nil
}

func (s *NoticeService) Get(ctx context.Context, p scope.Principal, id string) (*entity.Notice, error) {
	return loadAuthorized(ctx, s.sc, p, scope.ActionRead, scope.KindNotice, id, s.reader(p))
}

// CountUnread counts the notices visible to p that p has not read.
func (s *NoticeService) CountUnread(ctx context.Context, p scope.Principal, target scope.Target) (int, error) {
	pred, ok := s.sc.filter(p, scope.KindNotice, target)
	if !ok {
		return 0, nil
	}
	return s.store.CountUnread(ctx, pred, p.AccountID)
}

// MarkRead records that p read the notice. Read access is enough and
// repeating the call is harmless.
func (s *NoticeService) MarkRead(ctx context.Context, p scope.Principal, id string) error {
	if _, err := loadAuthorized(ctx, s.sc, p, scope.ActionRead, scope.KindNotice, id, s.reader(p)); err != nil {
		return err
	}
	if err := s.store.MarkRead(ctx, p.AccountID, id); err != nil {
		return mapErr(scope.KindNotice, id, err)
	}
	return nil
}

func (s *NoticeService) Update(ctx context.Context, p scope.Principal, id string, in entity.NoticeInput) (*entity.Notice, error) {
	n, err := loadAuthorized(ctx, s.sc, p, scope.ActionWrite, scope.KindNotice, id, s.reader(p))
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		if n.Title, err = required("title", in.Title); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		if n.Description, err = required("description", in.Description); err != nil {
			return nil, err
		}
	}
	if in.Type != nil {
		n.Type = orDefault(in.Type, n.Type)
	}
	if in.StartsAt != nil {
		n.StartsAt = *in.StartsAt
	}
	if in.EndsAt != nil {
		n.EndsAt = in.EndsAt
	}
	if in.Highlighted != nil {
		n.Highlighted = *in.Highlighted
	}
	if err := validWindow(n); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, n); err != nil {
		return nil, mapErr(scope.KindNotice, id, err)
	}
	return s.fetch(ctx, p, id)
}

func (s *NoticeService) Delete(ctx context.Context, p scope.Principal, id string) error {
	if _, err := loadAuthorized(ctx, s.sc, p, scope.ActionWrite, scope.KindNotice, id, s.reader(p)); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return mapErr(scope.KindNotice, id, err)
	}
	return nil
}

func (s *NoticeService) reader(p scope.Principal) func(context.Context, string) (*entity.Notice, error) {
	return func(ctx context.Context, id string) (*entity.Notice, error) {
		return s.store.Get(ctx, id, p.AccountID)
	}
}

func (s *NoticeService) fetch(ctx context.Context, p scope.Principal, id string) (*entity.Notice, error) {
	n, err := s.reader(p)(ctx, id)
	if err != nil {
		return nil, mapErr(scope.KindNotice, id, err)
	}
	return n, nil
}

func validWindow(n *entity.Notice) error {
	if n.EndsAt != nil && n.EndsAt.Before(n.StartsAt) {
		return fmt.Errorf("endsAt is before startsAt: %w", scope.ErrInvalidArgument)
	}
	return nil
}
