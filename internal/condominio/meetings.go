package condominio

import (
	"context"
	"fmt"
	"strings"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/entity"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/pagination"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/utilities"
)

// MeetingStore is satisfied by *repo.MeetingRepo.
type MeetingStore interface {
	Create(ctx context.Context, m *entity.Meeting) error
	Get(ctx context.Context, id string) (*entity.Meeting, error)
	List(ctx context.Context, pred scope.Predicate, search string, limit, offset int) ([]entity.Meeting, int, error)
	Update(ctx context.Context, m *entity.Meeting) error
	Delete(ctx context.Context, id string) error
}

type MeetingService struct {
	store MeetingStore
	sc    *Scoper
}

func NewMeetingService(store MeetingStore, sc *Scoper) *MeetingService {
	return &MeetingService{store: store, sc: sc}
}

func (s *MeetingService) Create(ctx context.Context, p scope.Principal, target scope.Target, in entity.MeetingInput) (*entity.Meeting, error) {
	pl, err := s.sc.place(ctx, p, scope.KindMeeting, target)
	if err != nil {
		return nil, err
	}
	m := &entity.Meeting{
		ID:       utilities.NewKSUID(),
		OwnerID:  pl.OwnerID,
		TenantID: pl.TenantID,
		Type:     orDefault(in.Type, "Assembleia"),
		Agenda:   trimmed(in.Agenda),
		Status:   orDefault(in.Status, "Agendada"),
	}
	if m.Title, err = required("title", in.Title); err != nil {
		return nil, err
	}
	if m.Time, err = required("time", in.Time); err != nil {
		return nil, err
	}
	if m.Place, err = required("place", in.Place); err != nil {
		return nil, err
	}
	if in.Date == nil {
		return nil, fmt.Errorf("date is required: %w", scope.ErrInvalidArgument)
	}
	m.Date = *in.Date
	if err := s.store.Create(ctx, m); err != nil {
		return nil, mapErr(scope.KindMeeting, m.ID, err)
	}
	return s.fetch(ctx, m.ID)
}

func (s *MeetingService) List(ctx context.Context, p scope.Principal, target scope.Target, search string, page pagination.Page) (pagination.Result[entity.Meeting], error) {
	page = page.Normalize()
	pred, ok := s.sc.filter(p, scope.KindMeeting, target)
	if !ok {
		return emptyPage[entity.Meeting](page), nil
	}
	rows, total, err := s.store.List(ctx, pred, strings.TrimSpace(search), page.Limit, page.Offset())
	if err != nil {
		return pagination.Result[entity.Meeting]{}, err
	}
	return pagination.NewResult(rows, total, page), nil
}

func (s *MeetingService) Get(ctx context.Context, p scope.Principal, id string) (*entity.Meeting, error) {
	return loadAuthorized(ctx, s.sc, p, scope.ActionRead, scope.KindMeeting, id, s.store.Get)
}

func (s *MeetingService) Update(ctx context.Context, p scope.Principal, id string, in entity.MeetingInput) (*entity.Meeting, error) {
	m, err := loadAuthorized(ctx, s.sc, p, scope.ActionWrite, scope.KindMeeting, id, s.store.Get)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		if m.Title, err = required("title", in.Title); err != nil {
			return nil, err
		}
	}
	if in.Time != nil {
		if m.Time, err = required("time", in.Time); err != nil {
			return nil, err
		}
	}
	if in.Place != nil {
		if m.Place, err = required("place", in.Place); err != nil {
			return nil, err
		}
	}
	if in.Date != nil {
		m.Date = *in.Date
	}
	if in.Type != nil {
		m.Type = orDefault(in.Type, m.Type)
	}
	if in.Agenda != nil {
		m.Agenda = trimmed(in.Agenda)
	}
	if in.Status != nil {
		m.Status = orDefault(in.Status, m.Status)
	}
	if err := s.store.Update(ctx, m); err != nil {
		return nil, mapErr(scope.KindMeeting, id, err)
	}
	return s.fetch(ctx, id)
}

func (s *MeetingService) Delete(ctx context.Context, p scope.Principal, id string) error {
	if _, err := loadAuthorized(ctx, s.sc, p, scope.ActionWrite, scope.KindMeeting, id, s.store.Get); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return mapErr(scope.KindMeeting, id, err)
	}
	return nil
}

func (s *MeetingService) fetch(ctx context.Context, id string) (*entity.Meeting, error) {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapErr(scope.KindMeeting, id, err)
	}
	return m, nil
}
