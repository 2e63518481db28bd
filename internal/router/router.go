package router

import (
	"net/http"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/profile"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/tenant"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/user"
)

const prefix = "/condominio-api"

type Config struct {
	Addr               string
	LoginRatePerSecond float64
	LoginRateBurst     int
}

// ConfigFromEnv reads HTTP_ADDR, LOGIN_RATE_PER_SECOND and LOGIN_RATE_BURST.
func ConfigFromEnv() Config {
	cfg := Config{Addr: "0.0.0.0:8431", LoginRatePerSecond: 1, LoginRateBurst: 5}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Addr = v
	}
	if f, err := strconv.ParseFloat(os.Getenv("LOGIN_RATE_PER_SECOND"), 64); err == nil && f > 0 {
		cfg.LoginRatePerSecond = f
	}
	if n, err := strconv.Atoi(os.Getenv("LOGIN_RATE_BURST")); err == nil && n > 0 {
		cfg.LoginRateBurst = n
	}
	return cfg
}

// Deps are the handlers and guards mounted by RegisterRoutes.
type Deps struct {
	Auth       *auth.Handler
	Guard      *auth.Middleware
	Tenants    *tenant.Handler
	Users      *user.Handler
	Profiles   *profile.Handler
	Condominio *condominio.Handler
	Login      *RateLimiter
}

type crud struct {
	list, create, get, update, del http.HandlerFunc
}

func mountCRUD(mux *http.ServeMux, base string, wrap func(http.HandlerFunc) http.Handler, c crud) {
	mux.Handle("GET "+base, wrap(c.list))
	mux.Handle("POST "+base, wrap(c.create))
	mux.Handle("GET "+base+"/{id}", wrap(c.get))
	mux.Handle("PATCH "+base+"/{id}", wrap(c.update))
	mux.Handle("DELETE "+base+"/{id}", wrap(c.del))
}

// RegisterRoutes mounts every handler on a ServeMux under /condominio-api
// and wraps it with request id, logging and security headers.
func RegisterRoutes(logger *zap.SugaredLogger, d Deps) http.Handler {
	mux := http.NewServeMux()
	g := d.Guard

	authed := func(h http.HandlerFunc) http.Handler { return g.Authenticate(h) }
	admin := func(h http.HandlerFunc) http.Handler { return g.Authenticate(g.RequireSuperAdmin(h)) }
	scoped := func(h http.HandlerFunc) http.Handler { return g.Authenticate(g.RequireActiveTenant(h)) }

	mux.HandleFunc("GET "+prefix+"/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var login http.Handler = http.HandlerFunc(d.Auth.Login)
	if d.Login != nil {
		login = d.Login.Wrap(login)
	}
	mux.Handle("POST "+prefix+"/auth/login", login)
	mux.HandleFunc("POST "+prefix+"/auth/logout", d.Auth.Logout)
	mux.Handle("GET "+prefix+"/auth/me", authed(d.Auth.Me))
	mux.Handle("GET "+prefix+"/auth/check", authed(d.Auth.Check))

	t := d.Tenants
	mountCRUD(mux, prefix+"/empresas", admin, crud{t.List, t.Create, t.Get, t.Update, t.Delete})
	mux.Handle("POST "+prefix+"/empresas/{id}/toggle", admin(t.Toggle))

	u := d.Users
	mountCRUD(mux, prefix+"/users", admin, crud{u.List, u.Create, u.Get, u.Update, u.Delete})

	p := d.Profiles
	mux.Handle("GET "+prefix+"/profiles", authed(p.List))
	mux.Handle("GET "+prefix+"/profiles/{id}", authed(p.Get))
	mux.Handle("POST "+prefix+"/profiles", admin(p.Create))
	mux.Handle("PATCH "+prefix+"/profiles/{id}", admin(p.Update))
	mux.Handle("DELETE "+prefix+"/profiles/{id}", admin(p.Delete))

	c := d.Condominio
	base := prefix + "/condominio"
	mountCRUD(mux, base+"/units", scoped, crud{c.ListUnits, c.CreateUnit, c.GetUnit, c.UpdateUnit, c.DeleteUnit})
	mountCRUD(mux, base+"/bills", scoped, crud{c.ListBills, c.CreateBill, c.GetBill, c.UpdateBill, c.DeleteBill})
	mux.Handle("PUT "+base+"/bills/{id}/attachment", scoped(c.PutBillAttachment))
	mux.Handle("GET "+base+"/bills/{id}/attachment", scoped(c.GetBillAttachment))
	mux.Handle("DELETE "+base+"/bills/{id}/attachment", scoped(c.DeleteBillAttachment))
	mountCRUD(mux, base+"/payables", scoped, crud{c.ListPayables, c.CreatePayable, c.GetPayable, c.UpdatePayable, c.DeletePayable})
	mountCRUD(mux, base+"/ledger-entries", scoped, crud{c.ListLedgerEntries, c.CreateLedgerEntry, c.GetLedgerEntry, c.UpdateLedgerEntry, c.DeleteLedgerEntry})
	mountCRUD(mux, base+"/meetings", scoped, crud{c.ListMeetings, c.CreateMeeting, c.GetMeeting, c.UpdateMeeting, c.DeleteMeeting})
	mountCRUD(mux, base+"/notices", scoped, crud{c.ListNotices, c.CreateNotice, c.GetNotice, c.UpdateNotice, c.DeleteNotice})
	mux.Handle("GET "+base+"/notices/unread-count", scoped(c.CountUnreadNotices))
	mux.Handle("POST "+base+"/notices/{id}/read", scoped(c.MarkNoticeRead))
	mountCRUD(mux, base+"/residents", scoped, crud{c.ListResidents, c.CreateResident, c.GetResident, c.UpdateResident, c.DeleteResident})

	return RequestID(LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux)))
}
