package condominio

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/entity"
	condorepo "github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/repo"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/storage"
	userentity "github.com/ovaphlow/pitchfork/service-condominio-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/utilities"
)

const (
	profileOperator int64 = 1
	profileResident int64 = 2
	profileAdmin    int64 = 3
)

// memTable keeps rows in insertion order.
type memTable[T any] struct {
	rows  map[string]T
	order []string
}

func newTable[T any]() *memTable[T] { return &memTable[T]{rows: map[string]T{}} }

func (m *memTable[T]) put(id string, v T) {
	if _, ok := m.rows[id]; !ok {
		m.order = append(m.order, id)
	}
	m.rows[id] = v
}

func (m *memTable[T]) get(id string) (T, error) {
	v, ok := m.rows[id]
	if !ok {
		var zero T
		return zero, sql.ErrNoRows
	}
	return v, nil
}

func (m *memTable[T]) update(id string, v T) error {
	if _, ok := m.rows[id]; !ok {
		return sql.ErrNoRows
	}
	m.rows[id] = v
	return nil
}

func (m *memTable[T]) del(id string) error {
	if _, ok := m.rows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.rows, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memTable[T]) all() []T {
	out := make([]T, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.rows[id])
	}
	return out
}

func pageOf[T interface{ Resource() scope.Resource }](rows []T, pred scope.Predicate, keep func(T) bool, limit, offset int) ([]T, int) {
	var hits []T
	for _, r := range rows {
		if pred.Matches(r.Resource()) && (keep == nil || keep(r)) {
			hits = append(hits, r)
		}
	}
	total := len(hits)
	if offset >= total {
		return nil, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return hits[offset:end], total
}

// world is an in-memory database shared by every fake store.
type world struct {
	mu       sync.Mutex
	accounts *memTable[userentity.Account]
	units    *memTable[entity.Unit]
	bills    *memTable[entity.Bill]
	payables *memTable[entity.Payable]
	ledger   *memTable[entity.LedgerEntry]
	meetings *memTable[entity.Meeting]
	notices  *memTable[entity.Notice]
	reads    map[[2]string]time.Time
}

func newWorld() *world {
	return &world{
		accounts: newTable[userentity.Account](),
		units:    newTable[entity.Unit](),
		bills:    newTable[entity.Bill](),
		payables: newTable[entity.Payable](),
		ledger:   newTable[entity.LedgerEntry](),
		meetings: newTable[entity.Meeting](),
		notices:  newTable[entity.Notice](),
		reads:    map[[2]string]time.Time{},
	}
}

func strp(s string) *string { return &s }

// units

type unitStore struct{ w *world }

func (s unitStore) Create(_ context.Context, u *entity.Unit) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	s.w.units.put(u.ID, *u)
	return nil
}

func (s unitStore) Get(_ context.Context, id string) (*entity.Unit, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	u, err := s.w.units.get(id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s unitStore) List(_ context.Context, pred scope.Predicate, _ string, limit, offset int) ([]entity.Unit, int, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	rows, total := pageOf(s.w.units.all(), pred, nil, limit, offset)
	return rows, total, nil
}

func (s unitStore) Update(_ context.Context, u *entity.Unit) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.units.update(u.ID, *u)
}

func (s unitStore) Delete(_ context.Context, id string) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	for _, b := range s.w.bills.all() {
		if b.UnitID == id {
			return condorepo.ErrInUse
		}
	}
	return s.w.units.del(id)
}

func (s unitStore) CountByResident(_ context.Context, residentID string) (int, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	n := 0
	for _, u := range s.w.units.all() {
		if u.ResidentID != nil && *u.ResidentID == residentID {
			n++
		}
	}
	return n, nil
}

// bills

type billStore struct{ w *world }

// hydrate mirrors the join on units.
func (s billStore) hydrate(b entity.Bill) entity.Bill {
	if u, err := s.w.units.get(b.UnitID); err == nil {
		b.UnitResidentID = u.ResidentID
	}
	b.HasAttachment = b.AttachmentKey != nil
	return b
}

func (s billStore) Create(_ context.Context, b *entity.Bill) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	s.w.bills.put(b.ID, *b)
	return nil
}

func (s billStore) Get(_ context.Context, id string) (*entity.Bill, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	b, err := s.w.bills.get(id)
	if err != nil {
		return nil, err
	}
	b = s.hydrate(b)
	return &b, nil
}

func (s billStore) List(_ context.Context, pred scope.Predicate, unitID string, limit, offset int) ([]entity.Bill, int, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	var all []entity.Bill
	for _, b := range s.w.bills.all() {
		all = append(all, s.hydrate(b))
	}
	rows, total := pageOf(all, pred, func(b entity.Bill) bool { return unitID == "" || b.UnitID == unitID }, limit, offset)
	return rows, total, nil
}

func (s billStore) Update(_ context.Context, b *entity.Bill) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.bills.update(b.ID, *b)
}

func (s billStore) SetAttachment(_ context.Context, id string, key *string) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	b, err := s.w.bills.get(id)
	if err != nil {
		return err
	}
	b.AttachmentKey = key
	return s.w.bills.update(id, b)
}

func (s billStore) Delete(_ context.Context, id string) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.bills.del(id)
}

// payables

type payableStore struct{ w *world }

func (s payableStore) Create(_ context.Context, p *entity.Payable) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	s.w.payables.put(p.ID, *p)
	return nil
}

func (s payableStore) Get(_ context.Context, id string) (*entity.Payable, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	p, err := s.w.payables.get(id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s payableStore) List(_ context.Context, pred scope.Predicate, f condorepo.PayableFilter, limit, offset int) ([]entity.Payable, int, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	keep := func(p entity.Payable) bool {
		return (f.Month == 0 || p.Month == f.Month) && (f.Year == 0 || p.Year == f.Year)
	}
	rows, total := pageOf(s.w.payables.all(), pred, keep, limit, offset)
	return rows, total, nil
}

func (s payableStore) Update(_ context.Context, p *entity.Payable) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.payables.update(p.ID, *p)
}

func (s payableStore) Delete(_ context.Context, id string) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.payables.del(id)
}

// ledger entries

type ledgerStore struct{ w *world }

func (s ledgerStore) Create(_ context.Context, e *entity.LedgerEntry) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	s.w.ledger.put(e.ID, *e)
	return nil
}

func (s ledgerStore) Get(_ context.Context, id string) (*entity.LedgerEntry, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	e, err := s.w.ledger.get(id)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s ledgerStore) List(_ context.Context, pred scope.Predicate, typ string, limit, offset int) ([]entity.LedgerEntry, int, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	rows, total := pageOf(s.w.ledger.all(), pred, func(e entity.LedgerEntry) bool { return typ == "" || e.Type == typ }, limit, offset)
	return rows, total, nil
}

func (s ledgerStore) Update(_ context.Context, e *entity.LedgerEntry) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.ledger.update(e.ID, *e)
}

func (s ledgerStore) Delete(_ context.Context, id string) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.ledger.del(id)
}

// meetings

type meetingStore struct{ w *world }

func (s meetingStore) Create(_ context.Context, m *entity.Meeting) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	s.w.meetings.put(m.ID, *m)
	return nil
}

func (s meetingStore) Get(_ context.Context, id string) (*entity.Meeting, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	m, err := s.w.meetings.get(id)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s meetingStore) List(_ context.Context, pred scope.Predicate, _ string, limit, offset int) ([]entity.Meeting, int, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	rows, total := pageOf(s.w.meetings.all(), pred, nil, limit, offset)
	return rows, total, nil
}

func (s meetingStore) Update(_ context.Context, m *entity.Meeting) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.meetings.update(m.ID, *m)
}

func (s meetingStore) Delete(_ context.Context, id string) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.meetings.del(id)
}

// notices

type noticeStore struct{ w *world }

func (s noticeStore) withRead(n entity.Notice, readerID string) entity.Notice {
	_, n.Read = s.w.reads[[2]string{readerID, n.ID}]
	return n
}

func (s noticeStore) Create(_ context.Context, n *entity.Notice) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	s.w.notices.put(n.ID, *n)
	return nil
}

func (s noticeStore) Get(_ context.Context, id, readerID string) (*entity.Notice, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	n, err := s.w.notices.get(id)
	if err != nil {
		return nil, err
	}
	n = s.withRead(n, readerID)
	return &n, nil
}

func (s noticeStore) List(_ context.Context, pred scope.Predicate, readerID string, limit, offset int) ([]entity.Notice, int, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	var all []entity.Notice
	for _, n := range s.w.notices.all() {
		all = append(all, s.withRead(n, readerID))
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Highlighted && !all[j].Highlighted })
	rows, total := pageOf(all, pred, nil, limit, offset)
	return rows, total, nil
}

func (s noticeStore) CountUnread(_ context.Context, pred scope.Predicate, readerID string) (int, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	_, total := pageOf(s.w.notices.all(), pred, func(n entity.Notice) bool {
		_, read := s.w.reads[[2]string{readerID, n.ID}]
		return !read
	}, 1<<30, 0)
	return total, nil
}

func (s noticeStore) MarkRead(_ context.Context, readerID, noticeID string) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	s.w.reads[[2]string{readerID, noticeID}] = time.Now()
	return nil
}

func (s noticeStore) Update(_ context.Context, n *entity.Notice) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.notices.update(n.ID, *n)
}

func (s noticeStore) Delete(_ context.Context, id string) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.notices.del(id)
}

// residents and accounts

type residentStore struct{ w *world }

func residentView(a userentity.Account) entity.Resident {
	return entity.Resident{
		ID: a.ID, Name: a.Name, Email: a.Email, ProfileID: a.ProfileID, TenantID: a.TenantID,
		CondominiumParentID: a.CondominiumParentID, ZipCode: a.ZipCode, Phone: a.Phone,
		CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt,
	}
}

func (s residentStore) Get(_ context.Context, id string) (*entity.Resident, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	a, err := s.w.accounts.get(id)
	if err != nil {
		return nil, err
	}
	r := residentView(a)
	return &r, nil
}

func (s residentStore) List(_ context.Context, pred scope.Predicate, profileID int64, _ string, limit, offset int) ([]entity.Resident, int, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	var all []entity.Resident
	for _, a := range s.w.accounts.all() {
		all = append(all, residentView(a))
	}
	rows, total := pageOf(all, pred, func(r entity.Resident) bool { return r.ProfileID == profileID }, limit, offset)
	return rows, total, nil
}

// accountAdmin stands in for the account service.
type accountAdmin struct{ w *world }

func (a accountAdmin) Create(_ context.Context, in userentity.Input) (*userentity.Account, error) {
	if in.Password == nil || len(*in.Password) < 6 {
		return nil, fmt.Errorf("password too short: %w", scope.ErrInvalidArgument)
	}
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	acc := userentity.Account{
		ID: utilities.NewKSUID(), Name: *in.Name, Email: *in.Email, ProfileID: *in.ProfileID,
		TenantID: in.TenantID, CondominiumParentID: in.CondominiumParentID, ZipCode: in.ZipCode, Phone: in.Phone,
		Status: "active",
	}
	a.w.accounts.put(acc.ID, acc)
	return &acc, nil
}

func (a accountAdmin) Update(_ context.Context, id string, in userentity.Input) (*userentity.Account, error) {
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	acc, err := a.w.accounts.get(id)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", id, scope.ErrNotFound)
	}
	if in.Name != nil {
		acc.Name = *in.Name
	}
	if in.Phone != nil {
		acc.Phone = in.Phone
	}
	_ = a.w.accounts.update(id, acc)
	return &acc, nil
}

func (a accountAdmin) Delete(_ context.Context, id string) error {
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	if err := a.w.accounts.del(id); err != nil {
		return fmt.Errorf("account %s: %w", id, scope.ErrNotFound)
	}
	return nil
}

func (a accountAdmin) ScopeAccount(_ context.Context, id string) (scope.Account, error) {
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	acc, err := a.w.accounts.get(id)
	if err != nil {
		return scope.Account{}, fmt.Errorf("account %s: %w", id, scope.ErrNotFound)
	}
	return scope.Account{
		ID: acc.ID, Email: acc.Email, ProfileID: acc.ProfileID, TenantID: deref(acc.TenantID),
		CondominiumParentID: deref(acc.CondominiumParentID), SuperAdmin: acc.IsSuperAdmin,
	}, nil
}

func (a accountAdmin) LookupTenancy(ctx context.Context, id string) (scope.AccountTenancy, error) {
	acc, err := a.ScopeAccount(ctx, id)
	if err != nil {
		return scope.AccountTenancy{}, err
	}
	return scope.AccountTenancy{AccountID: acc.ID, TenantID: acc.TenantID, ProfileID: acc.ProfileID, SuperAdmin: acc.SuperAdmin}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type profilesFunc func(ctx context.Context) ([]scope.Profile, error)

func (f profilesFunc) ListProfiles(ctx context.Context) ([]scope.Profile, error) { return f(ctx) }

var defaultProfiles = []scope.Profile{
	{ID: profileOperator, Description: "Condomínio"},
	{ID: profileResident, Description: "Morador"},
	{ID: profileAdmin, Description: "Administrador"},
}

// fixture is two tenants: o1, o2 and resident r1 (child of o1) in t1,
// o3 in t2, a tenantless super admin sa and a tenantless operator lost.
type fixture struct {
	w        *world
	files    storage.Store
	accounts accountAdmin

	units     *UnitService
	bills     *BillService
	payables  *PayableService
	ledger    *LedgerService
	meetings  *MeetingService
	notices   *NoticeService
	residents *ResidentService

	o1, o2, o3, r1, sa, lost scope.Principal
}

func newFixture(t *testing.T, profiles ...scope.Profile) *fixture {
	t.Helper()
	if len(profiles) == 0 {
		profiles = defaultProfiles
	}
	w := newWorld()
	f := &fixture{w: w, accounts: accountAdmin{w: w}}

	add := func(id string, profile int64, tenant, parent *string, super bool) scope.Principal {
		acc := userentity.Account{ID: id, Name: id, Email: id + "@example.com", ProfileID: profile,
			TenantID: tenant, CondominiumParentID: parent, IsSuperAdmin: super, Status: "active"}
		w.accounts.put(id, acc)
		role := scope.NewCatalog(profiles).Classify(profile)
		return scope.NewPrincipal(scope.Account{ID: id, Email: acc.Email, ProfileID: profile,
			TenantID: deref(tenant), CondominiumParentID: deref(parent), SuperAdmin: super}, role)
	}
	f.o1 = add("o1", profileOperator, strp("t1"), nil, false)
	f.o2 = add("o2", profileOperator, strp("t1"), nil, false)
	f.o3 = add("o3", profileOperator, strp("t2"), nil, false)
	f.r1 = add("r1", profileResident, strp("t1"), strp("o1"), false)
	f.sa = add("sa", profileAdmin, nil, nil, true)
	f.lost = add("lost", profileOperator, nil, nil, false)

	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	f.files = files

	classifier := scope.NewClassifier(profilesFunc(func(context.Context) ([]scope.Profile, error) { return profiles, nil }), nil)
	sc := NewScoper(scope.NewGuard(nil), scope.NewTenantResolver(f.accounts), classifier, nil)

	f.units = NewUnitService(unitStore{w}, residentStore{w}, sc)
	f.bills = NewBillService(billStore{w}, unitStore{w}, files, sc)
	f.payables = NewPayableService(payableStore{w}, unitStore{w}, sc)
	f.ledger = NewLedgerService(ledgerStore{w}, sc)
	f.meetings = NewMeetingService(meetingStore{w}, sc)
	f.notices = NewNoticeService(noticeStore{w}, sc)
	f.residents = NewResidentService(residentStore{w}, f.accounts, classifier, unitStore{w}, sc)
	return f
}
