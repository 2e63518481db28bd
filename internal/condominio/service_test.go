package condominio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/entity"
	condorepo "github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/repo"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/storage"
	userentity "github.com/ovaphlow/pitchfork/service-condominio-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/pagination"
)

var (
	ctx     = context.Background()
	noTgt   = scope.Target{}
	allRows = pagination.Page{Number: 1, Limit: 100}
)

func intp(n int) *int             { return &n }
func floatp(f float64) *float64   { return &f }
func timep(t time.Time) *time.Time { return &t }
func boolp(b bool) *bool          { return &b }

func denyReason(t *testing.T, err error) scope.Reason {
	t.Helper()
	de, ok := scope.IsDenyError(err)
	require.True(t, ok, "expected a deny error, got %v", err)
	return de.Reason
}

func (f *fixture) unit(t *testing.T, p scope.Principal, number string, resident *string) *entity.Unit {
	t.Helper()
	u, err := f.units.Create(ctx, p, noTgt, entity.UnitInput{Number: strp(number), ResidentID: resident})
	require.NoError(t, err)
	return u
}

func (f *fixture) bill(t *testing.T, p scope.Principal, unitID string) *entity.Bill {
	t.Helper()
	b, err := f.bills.Create(ctx, p, entity.BillInput{
		UnitID: strp(unitID), Month: intp(3), Year: intp(2025), Amount: floatp(450.5),
		DueDate: timep(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	return b
}

func TestUnitCreateStampsCallerTenant(t *testing.T) {
	f := newFixture(t)
	u := f.unit(t, f.o1, "101", strp("r1"))
	assert.Equal(t, "o1", u.OwnerID)
	assert.Equal(t, "t1", u.TenantID)
	assert.Equal(t, "Ativo", u.Status)

	_, err := f.units.Create(ctx, f.o1, scope.Target{TenantID: "t2"}, entity.UnitInput{Number: strp("102")})
	require.NoError(t, err)
	for _, row := range f.w.units.all() {
		assert.Equal(t, "t1", row.TenantID, "non-privileged target must be ignored")
	}
}

func TestUnitPointChecks(t *testing.T) {
	f := newFixture(t)
	u := f.unit(t, f.o1, "101", strp("r1"))

	_, err := f.units.Get(ctx, f.o1, u.ID)
	require.NoError(t, err)

	_, err = f.units.Get(ctx, f.o2, u.ID)
	assert.ErrorIs(t, err, scope.ErrForbidden)
	assert.Equal(t, scope.ReasonNotOwner, denyReason(t, err))

	_, err = f.units.Get(ctx, f.o3, u.ID)
	assert.Equal(t, scope.ReasonCrossTenant, denyReason(t, err))

	_, err = f.units.Get(ctx, f.r1, u.ID)
	require.NoError(t, err, "resident reads the unit it lives in")

	_, err = f.units.Update(ctx, f.r1, u.ID, entity.UnitInput{Status: strp("Inativo")})
	assert.ErrorIs(t, err, scope.ErrForbidden)

	_, err = f.units.Get(ctx, f.sa, u.ID)
	assert.Equal(t, scope.ReasonNotOwner, denyReason(t, err), "privilege skips the tenant check only")

	_, err = f.units.Get(ctx, f.o1, "missing")
	assert.ErrorIs(t, err, scope.ErrNotFound)
}

func TestUnitResidentMustBelongToOwner(t *testing.T) {
	f := newFixture(t)
	_, err := f.units.Create(ctx, f.o2, noTgt, entity.UnitInput{Number: strp("201"), ResidentID: strp("r1")})
	assert.ErrorIs(t, err, scope.ErrForbidden)

	u := f.unit(t, f.o2, "201", nil)
	_, err = f.units.Update(ctx, f.o2, u.ID, entity.UnitInput{ResidentID: strp("r1")})
	assert.ErrorIs(t, err, scope.ErrForbidden)

	_, err = f.units.Create(ctx, f.o1, noTgt, entity.UnitInput{Number: strp("1"), ResidentID: strp("ghost")})
	assert.ErrorIs(t, err, scope.ErrInvalidArgument)
}

func TestUnitListScopes(t *testing.T) {
	f := newFixture(t)
	f.unit(t, f.o1, "101", strp("r1"))
	f.unit(t, f.o1, "102", nil)
	f.unit(t, f.o2, "201", nil)
	f.unit(t, f.o3, "301", nil)

	cases := []struct {
		name   string
		p      scope.Principal
		target scope.Target
		want   int
	}{
		{"operator sees own", f.o1, noTgt, 2},
		{"other operator", f.o2, noTgt, 1},
		{"other tenant", f.o3, noTgt, 1},
		{"resident sees linked unit", f.r1, noTgt, 1},
		{"super admin sees all", f.sa, noTgt, 4},
		{"super admin targets operator", f.sa, scope.Target{OperatorID: "o1"}, 2},
		{"super admin targets tenant", f.sa, scope.Target{TenantID: "t1"}, 3},
		{"operator target ignored", f.o2, scope.Target{OperatorID: "o1"}, 1},
		{"unassigned sees nothing", f.lost, noTgt, 0},
		{"anonymous sees nothing", scope.Principal{}, noTgt, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.units.List(ctx, tc.p, tc.target, "", allRows)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Total)
			assert.Len(t, res.Data, tc.want)
		})
	}
}

func TestListAgreesWithPointCheck(t *testing.T) {
	f := newFixture(t)
	f.unit(t, f.o1, "101", strp("r1"))
	f.unit(t, f.o1, "102", nil)
	f.unit(t, f.o2, "201", nil)
	f.unit(t, f.o3, "301", nil)

	for _, p := range []scope.Principal{f.o1, f.o2, f.o3, f.r1, f.lost} {
		res, err := f.units.List(ctx, p, noTgt, "", allRows)
		require.NoError(t, err)
		listed := map[string]bool{}
		for _, u := range res.Data {
			listed[u.ID] = true
		}
		for _, u := range f.w.units.all() {
			_, err := f.units.Get(ctx, p, u.ID)
			assert.Equal(t, listed[u.ID], err == nil, "principal %s unit %s", p.AccountID, u.Number)
		}
	}
}

func TestUnitDeleteRefusedWhileBilled(t *testing.T) {
	f := newFixture(t)
	u := f.unit(t, f.o1, "101", nil)
	f.bill(t, f.o1, u.ID)
	err := f.units.Delete(ctx, f.o1, u.ID)
	assert.ErrorIs(t, err, scope.ErrConflict)
}

func TestBillTransitiveRead(t *testing.T) {
	f := newFixture(t)
	u := f.unit(t, f.o1, "101", strp("r1"))
	b := f.bill(t, f.o1, u.ID)
	assert.Equal(t, "o1", b.OwnerID)
	assert.Equal(t, "t1", b.TenantID)

	got, err := f.bills.Get(ctx, f.r1, b.ID)
	require.NoError(t, err)
	assert.NotEqual(t, f.r1.AccountID, got.OwnerID)

	res, err := f.bills.List(ctx, f.r1, noTgt, "", allRows)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	_, err = f.bills.Update(ctx, f.r1, b.ID, entity.BillInput{Status: strp("Pago")})
	assert.ErrorIs(t, err, scope.ErrForbidden)
	assert.ErrorIs(t, f.bills.Delete(ctx, f.r1, b.ID), scope.ErrForbidden)
}

func TestBillCreateRequiresWritableUnit(t *testing.T) {
	f := newFixture(t)
	u := f.unit(t, f.o1, "101", strp("r1"))
	in := entity.BillInput{UnitID: strp(u.ID), Month: intp(1), Year: intp(2025), Amount: floatp(1),
		DueDate: timep(time.Now())}

	_, err := f.bills.Create(ctx, f.o2, in)
	assert.Equal(t, scope.ReasonNotOwner, denyReason(t, err))

	_, err = f.bills.Create(ctx, f.r1, in)
	assert.Equal(t, scope.ReasonReadOnlyRole, denyReason(t, err))

	_, err = f.bills.Create(ctx, f.sa, in)
	assert.Equal(t, scope.ReasonNotOwner, denyReason(t, err))

	own, err := f.units.Create(ctx, f.sa, scope.Target{OperatorID: "o3"}, entity.UnitInput{Number: strp("9")})
	require.NoError(t, err)
	in.UnitID = strp(own.ID)
	b, err := f.bills.Create(ctx, f.o3, in)
	require.NoError(t, err)
	assert.Equal(t, "o3", b.OwnerID, "bill follows its unit's owner")
	assert.Equal(t, "t2", b.TenantID)

	in.Month = intp(13)
	_, err = f.bills.Create(ctx, f.o3, in)
	assert.ErrorIs(t, err, scope.ErrInvalidArgument)

	_, err = f.bills.Create(ctx, f.o1, in)
	assert.Equal(t, scope.ReasonCrossTenant, denyReason(t, err), "tenant check runs before validation")
}

func TestBillAttachment(t *testing.T) {
	f := newFixture(t)
	u := f.unit(t, f.o1, "101", strp("r1"))
	b := f.bill(t, f.o1, u.ID)

	_, err := f.bills.Attachment(ctx, f.r1, b.ID)
	assert.ErrorIs(t, err, scope.ErrNotFound)

	_, err = f.bills.PutAttachment(ctx, f.r1, b.ID, "application/pdf", bytes.NewReader([]byte("x")), 1)
	assert.ErrorIs(t, err, scope.ErrForbidden)

	b, err = f.bills.PutAttachment(ctx, f.o1, b.ID, "application/pdf", bytes.NewReader([]byte("%PDF-1")), 6)
	require.NoError(t, err)
	assert.True(t, b.HasAttachment)
	first := *b.AttachmentKey

	obj, err := f.bills.Attachment(ctx, f.r1, b.ID)
	require.NoError(t, err)
	body, _ := io.ReadAll(obj.Body)
	obj.Body.Close()
	assert.Equal(t, "%PDF-1", string(body))
	assert.Equal(t, "application/pdf", obj.ContentType)

	b, err = f.bills.PutAttachment(ctx, f.o1, b.ID, "application/pdf", bytes.NewReader([]byte("%PDF-2")), 6)
	require.NoError(t, err)
	_, err = f.files.Get(ctx, first)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound, "replaced attachment is removed")

	require.NoError(t, f.bills.Delete(ctx, f.o1, b.ID))
	_, err = f.files.Get(ctx, *b.AttachmentKey)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestBillRemoveAttachment(t *testing.T) {
	f := newFixture(t)
	u := f.unit(t, f.o1, "101", strp("r1"))
	b := f.bill(t, f.o1, u.ID)

	assert.ErrorIs(t, f.bills.RemoveAttachment(ctx, f.o1, b.ID), scope.ErrNotFound)

	b, err := f.bills.PutAttachment(ctx, f.o1, b.ID, "text/plain", bytes.NewReader([]byte("a")), 1)
	require.NoError(t, err)
	key := *b.AttachmentKey

	assert.ErrorIs(t, f.bills.RemoveAttachment(ctx, f.r1, b.ID), scope.ErrForbidden)
	require.NoError(t, f.bills.RemoveAttachment(ctx, f.o1, b.ID))

	got, err := f.bills.Get(ctx, f.o1, b.ID)
	require.NoError(t, err)
	assert.False(t, got.HasAttachment)
	_, err = f.files.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

type failingFiles struct{ storage.Store }

func (failingFiles) Delete(context.Context, string) error { return errors.New("bucket unavailable") }

func TestBillDeleteIgnoresStorageFailure(t *testing.T) {
	f := newFixture(t)
	u := f.unit(t, f.o1, "101", nil)
	b := f.bill(t, f.o1, u.ID)
	b, err := f.bills.PutAttachment(ctx, f.o1, b.ID, "text/plain", bytes.NewReader([]byte("a")), 1)
	require.NoError(t, err)

	f.bills.files = failingFiles{f.files}
	require.NoError(t, f.bills.Delete(ctx, f.o1, b.ID))
	_, err = f.bills.Get(ctx, f.o1, b.ID)
	assert.ErrorIs(t, err, scope.ErrNotFound)
}

func TestPrivilegedPlacement(t *testing.T) {
	f := newFixture(t)
	in := entity.MeetingInput{Title: strp("AGO"), Date: timep(time.Now()), Time: strp("19:00"), Place: strp("Salão")}

	_, err := f.meetings.Create(ctx, f.sa, noTgt, in)
	assert.ErrorIs(t, err, scope.ErrInvalidArgument)

	m, err := f.meetings.Create(ctx, f.sa, scope.Target{OperatorID: "o3"}, in)
	require.NoError(t, err)
	assert.Equal(t, "o3", m.OwnerID)
	assert.Equal(t, "t2", m.TenantID)
	assert.Equal(t, "Assembleia", m.Type)
	assert.Equal(t, "Agendada", m.Status)

	_, err = f.meetings.Get(ctx, f.o3, m.ID)
	require.NoError(t, err, "the target operator owns what the admin created for it")

	m, err = f.meetings.Create(ctx, f.sa, scope.Target{TenantID: "t1"}, in)
	require.NoError(t, err)
	assert.Equal(t, "sa", m.OwnerID)
	assert.Equal(t, "t1", m.TenantID)

	_, err = f.meetings.Create(ctx, f.sa, scope.Target{OperatorID: "ghost"}, in)
	assert.ErrorIs(t, err, scope.ErrNotFound)

	for _, who := range []string{"r1", "sa"} {
		_, err = f.meetings.Create(ctx, f.sa, scope.Target{OperatorID: who}, in)
		assert.ErrorIs(t, err, scope.ErrInvalidRole, "owner %s is not an operator", who)
	}
	_, err = f.units.Create(ctx, f.sa, scope.Target{OperatorID: "r1"}, entity.UnitInput{Number: strp("9")})
	assert.ErrorIs(t, err, scope.ErrInvalidRole)
	start := time.Now()
	_, err = f.notices.Create(ctx, f.sa, scope.Target{OperatorID: "r1"}, entity.NoticeInput{Title: strp("x"),
		Description: strp("y"), StartsAt: &start})
	assert.ErrorIs(t, err, scope.ErrInvalidRole)
	assert.Empty(t, f.w.units.all(), "nothing placed on a non-operator")

	_, err = f.meetings.Create(ctx, f.lost, noTgt, in)
	assert.Equal(t, scope.ReasonNoTenant, denyReason(t, err))

	_, err = f.meetings.Create(ctx, f.o1, noTgt, entity.MeetingInput{Title: strp("x")})
	assert.ErrorIs(t, err, scope.ErrInvalidArgument)
}

func TestMeetingUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	m, err := f.meetings.Create(ctx, f.o1, noTgt, entity.MeetingInput{Title: strp("AGO"), Date: timep(time.Now()),
		Time: strp("19:00"), Place: strp("Salão")})
	require.NoError(t, err)

	m, err = f.meetings.Update(ctx, f.o1, m.ID, entity.MeetingInput{Status: strp("Realizada"), Agenda: strp("Obras")})
	require.NoError(t, err)
	assert.Equal(t, "Realizada", m.Status)

	assert.ErrorIs(t, f.meetings.Delete(ctx, f.o2, m.ID), scope.ErrForbidden)
	require.NoError(t, f.meetings.Delete(ctx, f.o1, m.ID))
	_, err = f.meetings.Get(ctx, f.o1, m.ID)
	assert.ErrorIs(t, err, scope.ErrNotFound)
}

func TestPayables(t *testing.T) {
	f := newFixture(t)
	u1 := f.unit(t, f.o1, "101", nil)
	u2 := f.unit(t, f.o2, "201", nil)
	due := time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC)

	py, err := f.payables.Create(ctx, f.o1, noTgt, entity.PayableInput{Description: strp("Elevador"),
		Amount: floatp(900), DueDate: &due, UnitID: strp(u1.ID)})
	require.NoError(t, err)
	assert.Equal(t, 7, py.Month)
	assert.Equal(t, 2025, py.Year)
	assert.Equal(t, "Pendente", py.Status)

	_, err = f.payables.Create(ctx, f.o1, noTgt, entity.PayableInput{Description: strp("Portão"),
		Amount: floatp(100), DueDate: &due, UnitID: strp(u2.ID)})
	assert.ErrorIs(t, err, scope.ErrForbidden)

	saUnit, err := f.units.Create(ctx, f.sa, scope.Target{TenantID: "t1"}, entity.UnitInput{Number: strp("900")})
	require.NoError(t, err)
	_, err = f.payables.Create(ctx, f.sa, scope.Target{OperatorID: "o2"}, entity.PayableInput{Description: strp("Limpeza"),
		Amount: floatp(100), DueDate: &due, UnitID: strp(saUnit.ID)})
	assert.ErrorIs(t, err, scope.ErrInvalidArgument, "unit must belong to the payable owner")

	res, err := f.payables.List(ctx, f.o1, noTgt, condorepo.PayableFilter{Month: 7, Year: 2025}, allRows)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	res, err = f.payables.List(ctx, f.o1, noTgt, condorepo.PayableFilter{Month: 8}, allRows)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)

	py, err = f.payables.Update(ctx, f.o1, py.ID, entity.PayableInput{UnitID: strp("")})
	require.NoError(t, err)
	assert.Nil(t, py.UnitID)

	_, err = f.payables.Get(ctx, f.r1, py.ID)
	assert.ErrorIs(t, err, scope.ErrForbidden, "payables are not visible to residents")
}

func TestLedgerEntries(t *testing.T) {
	f := newFixture(t)
	e, err := f.ledger.Create(ctx, f.o1, noTgt, entity.LedgerEntryInput{Type: strp("saida"), Date: timep(time.Now()),
		Amount: floatp(30), Reason: strp("Lâmpadas")})
	require.NoError(t, err)
	assert.Equal(t, entity.LedgerExpense, e.Type)

	_, err = f.ledger.Create(ctx, f.o1, noTgt, entity.LedgerEntryInput{Type: strp("Entrada"), Date: timep(time.Now()),
		Amount: floatp(500), Reason: strp("Taxa")})
	require.NoError(t, err)

	_, err = f.ledger.Create(ctx, f.o1, noTgt, entity.LedgerEntryInput{Type: strp("Transferência"), Date: timep(time.Now()),
		Amount: floatp(1), Reason: strp("x")})
	assert.ErrorIs(t, err, scope.ErrInvalidArgument)

	res, err := f.ledger.List(ctx, f.o1, noTgt, "Entrada", allRows)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	_, err = f.ledger.List(ctx, f.o1, noTgt, "bogus", allRows)
	assert.ErrorIs(t, err, scope.ErrInvalidArgument)

	_, err = f.ledger.Update(ctx, f.o1, e.ID, entity.LedgerEntryInput{Amount: floatp(-1)})
	assert.ErrorIs(t, err, scope.ErrInvalidArgument)
}

func TestNoticesForResidents(t *testing.T) {
	f := newFixture(t)
	start := time.Now()
	n1, err := f.notices.Create(ctx, f.o1, noTgt, entity.NoticeInput{Title: strp("Água"), Description: strp("Corte"), StartsAt: &start})
	require.NoError(t, err)
	n2, err := f.notices.Create(ctx, f.o1, noTgt, entity.NoticeInput{Title: strp("AGO"), Description: strp("Convocação"),
		StartsAt: &start, Highlighted: boolp(true)})
	require.NoError(t, err)
	_, err = f.notices.Create(ctx, f.o2, noTgt, entity.NoticeInput{Title: strp("Outro"), Description: strp("x"), StartsAt: &start})
	require.NoError(t, err)

	res, err := f.notices.List(ctx, f.r1, noTgt, allRows)
	require.NoError(t, err)
	require.Equal(t, 2, res.Total, "resident sees the notices of its condominium parent")
	assert.Equal(t, n2.ID, res.Data[0].ID, "highlighted first")

	n, err := f.notices.CountUnread(ctx, f.r1, noTgt)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, f.notices.MarkRead(ctx, f.r1, n1.ID))
	require.NoError(t, f.notices.MarkRead(ctx, f.r1, n1.ID))
	n, err = f.notices.CountUnread(ctx, f.r1, noTgt)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.notices.Get(ctx, f.r1, n1.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)
	got, err = f.notices.Get(ctx, f.o1, n1.ID)
	require.NoError(t, err)
	assert.False(t, got.Read, "read markers are per account")

	assert.ErrorIs(t, f.notices.MarkRead(ctx, f.o2, n1.ID), scope.ErrForbidden)
	assert.ErrorIs(t, f.notices.MarkRead(ctx, f.o1, "missing"), scope.ErrNotFound)

	_, err = f.notices.Update(ctx, f.r1, n1.ID, entity.NoticeInput{Title: strp("x")})
	assert.ErrorIs(t, err, scope.ErrForbidden, "residents only read notices")

	res, err = f.notices.List(ctx, f.o3, noTgt, allRows)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)

	past := start.Add(-time.Hour)
	_, err = f.notices.Update(ctx, f.o1, n1.ID, entity.NoticeInput{EndsAt: &past})
	assert.ErrorIs(t, err, scope.ErrInvalidArgument)
}

func TestResidentCreate(t *testing.T) {
	f := newFixture(t)
	in := entity.ResidentInput{Name: strp("Ana"), Email: strp("ana@example.com"), Password: strp("secret1")}

	res, err := f.residents.Create(ctx, f.o1, noTgt, in)
	require.NoError(t, err)
	assert.Equal(t, profileResident, res.ProfileID)
	assert.Equal(t, "o1", *res.CondominiumParentID)
	assert.Equal(t, "t1", *res.TenantID)

	_, err = f.residents.Create(ctx, f.r1, noTgt, in)
	assert.Equal(t, scope.ReasonReadOnlyRole, denyReason(t, err))

	_, err = f.residents.Create(ctx, f.sa, noTgt, in)
	assert.ErrorIs(t, err, scope.ErrInvalidRole, "super admin profile is not an operator")

	res, err = f.residents.Create(ctx, f.sa, scope.Target{OperatorID: "o3"}, in)
	require.NoError(t, err)
	assert.Equal(t, "t2", *res.TenantID)

	_, err = f.residents.Create(ctx, f.o1, noTgt, entity.ResidentInput{Name: strp("Bia"), Email: strp("bia@example.com")})
	assert.ErrorIs(t, err, scope.ErrInvalidArgument)
}

func TestResidentCreateWithoutResidentProfile(t *testing.T) {
	f := newFixture(t, scope.Profile{ID: profileOperator, Description: "Condomínio"})
	_, err := f.residents.Create(ctx, f.o1, noTgt, entity.ResidentInput{Name: strp("Ana"), Email: strp("a@x.com"), Password: strp("secret1")})
	assert.ErrorIs(t, err, scope.ErrInvalidRole)

	res, err := f.residents.List(ctx, f.o1, noTgt, "", allRows)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
}

func TestResidentAccess(t *testing.T) {
	f := newFixture(t)
	_, err := f.residents.Get(ctx, f.o1, "r1")
	require.NoError(t, err)

	_, err = f.residents.Get(ctx, f.o2, "r1")
	assert.ErrorIs(t, err, scope.ErrForbidden)

	// an operator account parented to o1 is still not a resident
	f.w.accounts.put("o1b", userentity.Account{ID: "o1b", Name: "o1b", ProfileID: profileOperator,
		TenantID: strp("t1"), CondominiumParentID: strp("o1")})
	_, err = f.residents.Get(ctx, f.o1, "o1b")
	assert.ErrorIs(t, err, scope.ErrNotFound)

	res, err := f.residents.List(ctx, f.o1, noTgt, "", allRows)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	res, err = f.residents.List(ctx, f.o2, noTgt, "", allRows)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)

	updated, err := f.residents.Update(ctx, f.o1, "r1", entity.ResidentInput{Phone: strp("11 99999-0000")})
	require.NoError(t, err)
	assert.Equal(t, "11 99999-0000", *updated.Phone)
}

func TestResidentDeleteRefusedWhileLinked(t *testing.T) {
	f := newFixture(t)
	u := f.unit(t, f.o1, "101", strp("r1"))

	assert.ErrorIs(t, f.residents.Delete(ctx, f.o1, "r1"), scope.ErrConflict)

	_, err := f.units.Update(ctx, f.o1, u.ID, entity.UnitInput{ResidentID: strp("")})
	require.NoError(t, err)
	require.NoError(t, f.residents.Delete(ctx, f.o1, "r1"))
	_, err = f.residents.Get(ctx, f.o1, "r1")
	assert.ErrorIs(t, err, scope.ErrNotFound)
}
