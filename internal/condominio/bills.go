package condominio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/entity"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/storage"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/pagination"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/utilities"
)

// BillStore is satisfied by *repo.BillRepo.
type BillStore interface {
	Create(ctx context.Context, b *entity.Bill) error
	Get(ctx context.Context, id string) (*entity.Bill, error)
	List(ctx context.Context, pred scope.Predicate, unitID string, limit, offset int) ([]entity.Bill, int, error)
	Update(ctx context.Context, b *entity.Bill) error
	SetAttachment(ctx context.Context, id string, key *string) error
	Delete(ctx context.Context, id string) error
}

// UnitGetter is satisfied by *repo.UnitRepo.
type UnitGetter interface {
	Get(ctx context.Context, id string) (*entity.Unit, error)
}

// BillService manages bills. A bill takes owner and tenant from its unit,
// which the caller must be able to write.
type BillService struct {
	store BillStore
	units UnitGetter
	files storage.Store
	sc    *Scoper
}

func NewBillService(store BillStore, units UnitGetter, files storage.Store, sc *Scoper) *BillService {
	return &BillService{store: store, units: units, files: files, sc: sc}
}

func (s *BillService) Create(ctx context.Context, p scope.Principal, in entity.BillInput) (*entity.Bill, error) {
	if err := s.sc.guard.AuthorizeCreate(p, scope.KindBill).Err(scope.KindBill, ""); err != nil {
		return nil, err
	}
	unitID, err := required("unitId", in.UnitID)
	if err != nil {
		return nil, err
	}
	unit, err := loadAuthorized(ctx, s.sc, p, scope.ActionWrite, scope.KindUnit, unitID, s.units.Get)
	if err != nil {
		return nil, err
	}
	if in.Month == nil || in.Year == nil || in.Amount == nil || in.DueDate == nil {
		return nil, fmt.Errorf("month, year, amount and dueDate are required: %w", scope.ErrInvalidArgument)
	}
	b := &entity.Bill{
		ID:        utilities.NewKSUID(),
		OwnerID:   unit.OwnerID,
		TenantID:  unit.TenantID,
		UnitID:    unit.ID,
		Month:     *in.Month,
		Year:      *in.Year,
		Amount:    *in.Amount,
		DueDate:   *in.DueDate,
		Barcode:   trimmed(in.Barcode),
		OurNumber: trimmed(in.OurNumber),
		Status:    orDefault(in.Status, "Pendente"),
		PaidAt:    in.PaidAt,
		Notes:     trimmed(in.Notes),
	}
	if err := validPeriod(b.Month, b.Year, b.Amount); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, mapErr(scope.KindBill, b.ID, err)
	}
	return s.fetch(ctx, b.ID)
}

func (s *BillService) List(ctx context.Context, p scope.Principal, target scope.Target, unitID string, page pagination.Page) (pagination.Result[entity.Bill], error) {
	page = page.Normalize()
	pred, ok := s.sc.filter(p, scope.KindBill, target)
	if !ok {
		return emptyPage[entity.Bill](page), nil
	}
	rows, total, err := s.store.List(ctx, pred, strings.TrimSpace(unitID), page.Limit, page.Offset())
	if err != nil {
		return pagination.Result[entity.Bill]{}, err
	}
	return pagination.NewResult(rows, total, page), nil
}

func (s *BillService) Get(ctx context.Context, p scope.Principal, id string) (*entity.Bill, error) {
	return loadAuthorized(ctx, s.sc, p, scope.ActionRead, scope.KindBill, id, s.store.Get)
}

// Update patches the bill. Moving it to another unit re-checks write access
// on that unit and restamps owner and tenant from it.
func (s *BillService) Update(ctx context.Context, p scope.Principal, id string, in entity.BillInput) (*entity.Bill, error) {
	b, err := loadAuthorized(ctx, s.sc, p, scope.ActionWrite, scope.KindBill, id, s.store.Get)
	if err != nil {
		return nil, err
	}
	if unitID := trimmed(in.UnitID); unitID != nil && *unitID != b.UnitID {
		unit, err := loadAuthorized(ctx, s.sc, p, scope.ActionWrite, scope.KindUnit, *unitID, s.units.Get)
		if err != nil {
			return nil, err
		}
		b.UnitID, b.OwnerID, b.TenantID = unit.ID, unit.OwnerID, unit.TenantID
	}
	if in.Month != nil {
		b.Month = *in.Month
	}
	if in.Year != nil {
		b.Year = *in.Year
	}
	if in.Amount != nil {
		b.Amount = *in.Amount
	}
	if err := validPeriod(b.Month, b.Year, b.Amount); err != nil {
		return nil, err
	}
	if in.DueDate != nil {
		b.DueDate = *in.DueDate
	}
	if in.Barcode != nil {
		b.Barcode = trimmed(in.Barcode)
	}
	if in.OurNumber != nil {
		b.OurNumber = trimmed(in.OurNumber)
	}
	if in.Status != nil {
		b.Status = orDefault(in.Status, b.Status)
	}
	if in.PaidAt != nil {
		b.PaidAt = in.PaidAt
	}
	if in.Notes != nil {
		b.Notes = trimmed(in.Notes)
	}
	if err := s.store.Update(ctx, b); err != nil {
		return nil, mapErr(scope.KindBill, id, err)
	}
	return s.fetch(ctx, id)
}

// Delete removes the bill, then its attachment. A storage failure is
// logged and does not fail the call.
func (s *BillService) Delete(ctx context.Context, p scope.Principal, id string) error {
	b, err := loadAuthorized(ctx, s.sc, p, scope.ActionWrite, scope.KindBill, id, s.store.Get)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return mapErr(scope.KindBill, id, err)
	}
	if b.AttachmentKey != nil {
		s.removeObject(ctx, *b.AttachmentKey)
	}
	return nil
}

// PutAttachment stores body as the bill's attachment, replacing any
// previous one.
func (s *BillService) PutAttachment(ctx context.Context, p scope.Principal, id, contentType string, body io.Reader, size int64) (*entity.Bill, error) {
	b, err := loadAuthorized(ctx, s.sc, p, scope.ActionWrite, scope.KindBill, id, s.store.Get)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("bills/%s/%s", b.ID, utilities.NewSnowflakeID())
	if err := s.files.Put(ctx, key, contentType, body, size); err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}
	if err := s.store.SetAttachment(ctx, id, &key); err != nil {
		s.removeObject(ctx, key)
		return nil, mapErr(scope.KindBill, id, err)
	}
	if b.AttachmentKey != nil {
		s.removeObject(ctx, *b.AttachmentKey)
	}
	s.sc.logger.Infow("bill attachment stored", "bill", id, "key", key, "account", p.AccountID)
	return s.fetch(ctx, id)
}

// Attachment opens the bill's attachment for reading. Callers close Body.
func (s *BillService) Attachment(ctx context.Context, p scope.Principal, id string) (*storage.Object, error) {
	b, err := loadAuthorized(ctx, s.sc, p, scope.ActionRead, scope.KindBill, id, s.store.Get)
	if err != nil {
		return nil, err
	}
	if b.AttachmentKey == nil {
		return nil, fmt.Errorf("bill %s has no attachment: %w", id, scope.ErrNotFound)
	}
	obj, err := s.files.Get(ctx, *b.AttachmentKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("attachment of bill %s: %w", id, scope.ErrNotFound)
		}
		return nil, err
	}
	return obj, nil
}

// RemoveAttachment detaches and deletes the bill's attachment.
func (s *BillService) RemoveAttachment(ctx context.Context, p scope.Principal, id string) error {
	b, err := loadAuthorized(ctx, s.sc, p, scope.ActionWrite, scope.KindBill, id, s.store.Get)
	if err != nil {
		return err
	}
	if b.AttachmentKey == nil {
		return fmt.Errorf("bill %s has no attachment: %w", id, scope.ErrNotFound)
	}
	if err := s.store.SetAttachment(ctx, id, nil); err != nil {
		return mapErr(scope.KindBill, id, err)
	}
	s.removeObject(ctx, *b.AttachmentKey)
	return nil
}

func (s *BillService) removeObject(ctx context.Context, key string) {
	if err := s.files.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		s.sc.logger.Warnw("attachment delete failed", "key", key, "err", err)
	}
}

func (s *BillService) fetch(ctx context.Context, id string) (*entity.Bill, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapErr(scope.KindBill, id, err)
	}
	return b, nil
}

func validPeriod(month, year int, amount float64) error {
	switch {
	case month < 1 || month > 12:
		return fmt.Errorf("month must be between 1 and 12: %w", scope.ErrInvalidArgument)
	case year < 2000:
		return fmt.Errorf("year must be 2000 or later: %w", scope.ErrInvalidArgument)
	case amount < 0:
		return fmt.Errorf("amount cannot be negative: %w", scope.ErrInvalidArgument)
	}
	return nil
}
