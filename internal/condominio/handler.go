package condominio

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/entity"
	condorepo "github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/repo"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/respond"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/pagination"
)

// MaxAttachmentBytes bounds a bill attachment upload.
const MaxAttachmentBytes = 10 << 20

type Services struct {
	Units     *UnitService
	Bills     *BillService
	Payables  *PayableService
	Ledger    *LedgerService
	Meetings  *MeetingService
	Notices   *NoticeService
	Residents *ResidentService
}

// Handler exposes the resource services. Routes are mounted behind
// authentication and the active-tenant guard; the principal is taken from
// the request context here and passed to the services by value.
type Handler struct {
	svc    Services
	logger *zap.SugaredLogger
}

func NewHandler(svc Services, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func principalOf(r *http.Request) scope.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

// targetOf reads the impersonation target. Services ignore it unless the
// principal is privileged.
func targetOf(r *http.Request) scope.Target {
	q := r.URL.Query()
	return scope.Target{OperatorID: q.Get("operatorId"), TenantID: q.Get("empresaId")}
}

func (h *Handler) reply(w http.ResponseWriter, status int, v any, err error) {
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	respond.JSON(w, status, v)
}

func decode[T any](r *http.Request) (T, error) {
	var in T
	err := respond.Decode(r, &in)
	return in, err
}

func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", name, scope.ErrInvalidArgument)
	}
	return n, nil
}

// units

func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.svc.Units.List(r.Context(), principalOf(r), targetOf(r), q.Get("search"), pagination.FromQuery(q))
	h.reply(w, http.StatusOK, res, err)
}

func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	in, err := decode[entity.UnitInput](r)
	if err != nil {
		h.reply(w, 0, nil, err)
		return
	}
	u, err := h.svc.Units.Create(r.Context(), principalOf(r), targetOf(r), in)
	h.reply(w, http.StatusCreated, u, err)
}

func (h *Handler) GetUnit(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Units.Get(r.Context(), principalOf(r), r.PathValue("id"))
	h.reply(w, http.StatusOK, u, err)
}

func (h *Handler) UpdateUnit(w http.ResponseWriter, r *http.Request) {
	in, err := decode[entity.UnitInput](r)
	if err != nil {
		h.reply(w, 0, nil, err)
		return
	}
	u, err := h.svc.Units.Update(r.Context(), principalOf(r), r.PathValue("id"), in)
	h.reply(w, http.StatusOK, u, err)
}

func (h *Handler) DeleteUnit(w http.ResponseWriter, r *http.Request) {
	h.reply(w, http.StatusNoContent, nil, h.svc.Units.Delete(r.Context(), principalOf(r), r.PathValue("id")))
}

// bills

func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.svc.Bills.List(r.Context(), principalOf(r), targetOf(r), q.Get("unitId"), pagination.FromQuery(q))
	h.reply(w, http.StatusOK, res, err)
}

func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	in, err := decode[entity.BillInput](r)
	if err != nil {
		h.reply(w, 0, nil, err)
		return
	}
	b, err := h.svc.Bills.Create(r.Context(), principalOf(r), in)
	h.reply(w, http.StatusCreated, b, err)
}

func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Bills.Get(r.Context(), principalOf(r), r.PathValue("id"))
	h.reply(w, http.StatusOK, b, err)
}

func (h *Handler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	in, err := decode[entity.BillInput](r)
	if err != nil {
		h.reply(w, 0, nil, err)
		return
	}
	b, err := h.svc.Bills.Update(r.Context(), principalOf(r), r.PathValue("id"), in)
	h.reply(w, http.StatusOK, b, err)
}

func (h *Handler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	h.reply(w, http.StatusNoContent, nil, h.svc.Bills.Delete(r.Context(), principalOf(r), r.PathValue("id")))
}

// PutBillAttachment stores the raw request body as the bill's attachment.
func (h *Handler) PutBillAttachment(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > MaxAttachmentBytes {
		respond.JSON(w, http.StatusRequestEntityTooLarge, respond.ErrorBody{Code: "too_large", Message: "attachment too large"})
		return
	}
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	body := http.MaxBytesReader(w, r.Body, MaxAttachmentBytes)
	b, err := h.svc.Bills.PutAttachment(r.Context(), principalOf(r), r.PathValue("id"), ct, body, r.ContentLength)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respond.JSON(w, http.StatusRequestEntityTooLarge, respond.ErrorBody{Code: "too_large", Message: "attachment too large"})
		return
	}
	h.reply(w, http.StatusOK, b, err)
}

func (h *Handler) GetBillAttachment(w http.ResponseWriter, r *http.Request) {
	obj, err := h.svc.Bills.Attachment(r.Context(), principalOf(r), r.PathValue("id"))
	if err != nil {
		h.reply(w, 0, nil, err)
		return
	}
	defer obj.Body.Close()
	w.Header().Set("Content-Type", obj.ContentType)
	if obj.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.Warnw("attachment stream interrupted", "bill", r.PathValue("id"), "err", err)
	}
}

func (h *Handler) DeleteBillAttachment(w http.ResponseWriter, r *http.Request) {
	h.reply(w, http.StatusNoContent, nil, h.svc.Bills.RemoveAttachment(r.Context(), principalOf(r), r.PathValue("id")))
}

// payables

func (h *Handler) ListPayables(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, err := intParam(q, "month")
	if err != nil {
		h.reply(w, 0, nil, err)
		return
	}
	year, err := intParam(q, "year")
	if err != nil {
		h.reply(w, 0, nil, err)
		return
	}
	f := condorepo.PayableFilter{Month: month, Year: year}
	res, err := h.svc.Payables.List(r.Context(), principalOf(r), targetOf(r), f, pagination.FromQuery(q))
	h.reply(w, http.StatusOK, res, err)
}

func (h *Handler) CreatePayable(w http.ResponseWriter, r *http.Request) {
	in, err := decode[entity.PayableInput](r)
	if err != nil {
		h.reply(w, 0, nil, err)
		return
	}
	py, err := h.svc.Payables.Create(r.Context(), principalOf(r), targetOf(r), in)
	h.reply(w, http.StatusCreated, py, err)
}

func (h *Handler) GetPayable(w http.ResponseWriter, r *http.Request) {
	py, err := h.svc.Payables.Get(r.Context(), principalOf(r), r.PathValue("id"))
	h.reply(w, http.StatusOK, py, err)
}

func (h *Handler) UpdatePayable(w http.ResponseWriter, r *http.Request) {
	in, err := decode[entity.PayableInput](r)
	if err != nil {
		h.reply(w, 0, nil, err)
		return
	}
	py, err := h.svc.Payables.Update(r.Context(), principalOf(r), r.PathValue("id"), in)
	h.reply(w, http.StatusOK, py, err)
}

func (h *Handler) DeletePayable(w http.ResponseWriter, r *http.Request) {
	h.reply(w, http.StatusNoContent, nil, h.svc.Payables.Delete(r.Context(), principalOf(r), r.PathValue("id")))
}

// ledger entries

func (h *Handler) ListLedgerEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.svc.Ledger.List(r.Context(), principalOf(r), targetOf(r), q.Get("type"), pagination.FromQuery(q))
	h.reply(w, http.StatusOK, res, err)
}

func (h *Handler) CreateLedgerEntry(w http.ResponseWriter, r *http.Request) {
	in, err := decode[entity.LedgerEntryInput](r)
	if err != nil {
		h.reply(w, 0, nil, err)
		return
	}
	e, err := h.svc.Ledger.Create(r.Context(), principalOf(r), targetOf(r), in)
	h.reply(w, http.StatusCreated, e, err)
}

func (h *Handler) GetLedgerEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Ledger.Get(r.Context(), principalOf(r), r.PathValue("id"))
	h.reply(w, http.StatusOK, e, err)
}

func (h *Handler) UpdateLedgerEntry(w http.ResponseWriter, r *http.Request) {
	in, err := decode[entity.LedgerEntryInput](r)
	if err != nil {
		h.reply(w, 0, nil, err)
		return
	}
	e, err := h.svc.Ledger.Update(r.Context(), principalOf(r), r.PathValue("id"), in)
	h.reply(w, http.StatusOK, e, err)
}

func (h *Handler) DeleteLedgerEntry(w http.ResponseWriter, r *http.Request) {
	h.reply(w, http.StatusNoContent, nil, h.svc.Ledger.Delete(r.Context(), principalOf(r), r.PathValue("id")))
}

// meetings

func (h *Handler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.svc.Meetings.List(r.Context(), principalOf(r), targetOf(r), q.Get("search"), pagination.FromQuery(q))
	h.reply(w, http.StatusOK, res, err)
}

func (h *Handler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	in, err := decode[entity.MeetingInput](r)
	if err != nil {
		h.reply(w, 0, nil, err)
		return
	}
	m, err := h.svc.Meetings.Create(r.Context(), principalOf(r), targetOf(r), in)
	h.reply(w, http.StatusCreated, m, err)
}

func (h *Handler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Meetings.Get(r.Context(), principalOf(r), r.PathValue("id"))
	h.reply(w, http.StatusOK, m, err)
}

func (h *Handler) UpdateMeeting(w http.ResponseWriter, r *http.Request) {
	in, err := decode[entity.MeetingInput](r)
	if err != nil {
		h.reply(w, 0, nil, err)
		return
	}
	m, err := h.svc.Meetings.Update(r.Context(), principalOf(r), r.PathValue("id"), in)
	h.reply(w, http.StatusOK, m, err)
}

func (h *Handler) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	h.reply(w, http.StatusNoContent, nil, h.svc.Meetings.Delete(r.Context(), principalOf(r), r.PathValue("id")))
}

// notices

func (h *Handler) ListNotices(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Notices.List(r.Context(), principalOf(r), targetOf(r), pagination.FromQuery(r.URL.Query()))
	h.reply(w, http.StatusOK, res, err)
}

func (h *Handler) CreateNotice(w http.ResponseWriter, r *http.Request) {
	in, err := decode[entity.NoticeInput](r)
	if err != nil {
		h.reply(w, 0, nil, err)
		return
	}
	n, err := h.svc.Notices.Create(r.Context(), principalOf(r), targetOf(r), in)
	h.reply(w, http.StatusCreated, n, err)
}

func (h *Handler) GetNotice(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Notices.Get(r.Context(), principalOf(r), r.PathValue("id"))
	h.reply(w, http.StatusOK, n, err)
}

func (h *Handler) UpdateNotice(w http.ResponseWriter, r *http.Request) {
	in, err := decode[entity.NoticeInput](r)
	if err != nil {
		h.reply(w, 0, nil, err)
		return
	}
	n, err := h.svc.Notices.Update(r.Context(), principalOf(r), r.PathValue("id"), in)
	h.reply(w, http.StatusOK, n, err)
}

func (h *Handler) DeleteNotice(w http.ResponseWriter, r *http.Request) {
	h.reply(w, http.StatusNoContent, nil, h.svc.Notices.Delete(r.Context(), principalOf(r), r.PathValue("id")))
}

func (h *Handler) MarkNoticeRead(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Notices.MarkRead(r.Context(), principalOf(r), r.PathValue("id"))
	h.reply(w, http.StatusOK, map[string]bool{"success": true}, err)
}

func (h *Handler) CountUnreadNotices(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Notices.CountUnread(r.Context(), principalOf(r), targetOf(r))
	h.reply(w, http.StatusOK, map[string]int{"count": n}, err)
}

// residents

func (h *Handler) ListResidents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.svc.Residents.List(r.Context(), principalOf(r), targetOf(r), q.Get("search"), pagination.FromQuery(q))
	h.reply(w, http.StatusOK, res, err)
}

func (h *Handler) CreateResident(w http.ResponseWriter, r *http.Request) {
	in, err := decode[entity.ResidentInput](r)
	if err != nil {
		h.reply(w, 0, nil, err)
		return
	}
	res, err := h.svc.Residents.Create(r.Context(), principalOf(r), targetOf(r), in)
	h.reply(w, http.StatusCreated, res, err)
}

func (h *Handler) GetResident(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Residents.Get(r.Context(), principalOf(r), r.PathValue("id"))
	h.reply(w, http.StatusOK, res, err)
}

func (h *Handler) UpdateResident(w http.ResponseWriter, r *http.Request) {
	in, err := decode[entity.ResidentInput](r)
	if err != nil {
		h.reply(w, 0, nil, err)
		return
	}
	res, err := h.svc.Residents.Update(r.Context(), principalOf(r), r.PathValue("id"), in)
	h.reply(w, http.StatusOK, res, err)
}

func (h *Handler) DeleteResident(w http.ResponseWriter, r *http.Request) {
	h.reply(w, http.StatusNoContent, nil, h.svc.Residents.Delete(r.Context(), principalOf(r), r.PathValue("id")))
}
