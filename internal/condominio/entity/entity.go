// Package entity holds the tenant-scoped records an operator manages.
// Every record carries owner_id (the operator account) and tenant_id.
package entity

import (
	"time"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
)

// Unit is a condominium unit. ResidentID links the account living there.
type Unit struct {
	ID         string    `db:"id" json:"id"`
	OwnerID    string    `db:"owner_id" json:"ownerId"`
	TenantID   string    `db:"tenant_id" json:"tenantId"`
	Number     string    `db:"number" json:"number"`
	Block      *string   `db:"block" json:"block,omitempty"`
	Apartment  *string   `db:"apartment" json:"apartment,omitempty"`
	Type       *string   `db:"type" json:"type,omitempty"`
	Status     string    `db:"status" json:"status"`
	OwnerName  *string   `db:"owner_name" json:"ownerName,omitempty"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	Email      *string   `db:"email" json:"email,omitempty"`
	ResidentID *string   `db:"resident_id" json:"residentId,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

func (u Unit) Resource() scope.Resource {
	return scope.Resource{Kind: scope.KindUnit, ID: u.ID, OwnerAccountID: u.OwnerID, TenantID: u.TenantID, UnitResidentID: deref(u.ResidentID)}
}

type UnitInput struct {
	Number     *string `json:"number"`
	Block      *string `json:"block"`
	Apartment  *string `json:"apartment"`
	Type       *string `json:"type"`
	Status     *string `json:"status"`
	OwnerName  *string `json:"ownerName"`
	Phone      *string `json:"phone"`
	Email      *string `json:"email"`
	ResidentID *string `json:"residentId"`
}

// Bill is a monthly charge on a unit. UnitResidentID is read through the
// unit and never written.
type Bill struct {
	ID             string     `db:"id" json:"id"`
	OwnerID        string     `db:"owner_id" json:"ownerId"`
	TenantID       string     `db:"tenant_id" json:"tenantId"`
	UnitID         string     `db:"unit_id" json:"unitId"`
	Month          int        `db:"month" json:"month"`
	Year           int        `db:"year" json:"year"`
	Amount         float64    `db:"amount" json:"amount"`
	DueDate        time.Time  `db:"due_date" json:"dueDate"`
	Barcode        *string    `db:"barcode" json:"barcode,omitempty"`
	OurNumber      *string    `db:"our_number" json:"ourNumber,omitempty"`
	Status         string     `db:"status" json:"status"`
	PaidAt         *time.Time `db:"paid_at" json:"paidAt,omitempty"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	AttachmentKey  *string    `db:"attachment_key" json:"-"`
	HasAttachment  bool       `db:"-" json:"hasAttachment"`
	UnitResidentID *string    `db:"unit_resident_id" json:"-"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

func (b Bill) Resource() scope.Resource {
	return scope.Resource{Kind: scope.KindBill, ID: b.ID, OwnerAccountID: b.OwnerID, TenantID: b.TenantID, UnitResidentID: deref(b.UnitResidentID)}
}

type BillInput struct {
	UnitID    *string    `json:"unitId"`
	Month     *int       `json:"month"`
	Year      *int       `json:"year"`
	Amount    *float64   `json:"amount"`
	DueDate   *time.Time `json:"dueDate"`
	Barcode   *string    `json:"barcode"`
	OurNumber *string    `json:"ourNumber"`
	Status    *string    `json:"status"`
	PaidAt    *time.Time `json:"paidAt"`
	Notes     *string    `json:"notes"`
}

// Payable is an expense of the condominium (conta a pagar).
type Payable struct {
	ID          string    `db:"id" json:"id"`
	OwnerID     string    `db:"owner_id" json:"ownerId"`
	TenantID    string    `db:"tenant_id" json:"tenantId"`
	Description string    `db:"description" json:"description"`
	Amount      float64   `db:"amount" json:"amount"`
	DueDate     time.Time `db:"due_date" json:"dueDate"`
	Month       int       `db:"month" json:"month"`
	Year        int       `db:"year" json:"year"`
	Category    *string   `db:"category" json:"category,omitempty"`
	Status      string    `db:"status" json:"status"`
	UnitID      *string   `db:"unit_id" json:"unitId,omitempty"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

func (p Payable) Resource() scope.Resource {
	return scope.Resource{Kind: scope.KindPayable, ID: p.ID, OwnerAccountID: p.OwnerID, TenantID: p.TenantID}
}

type PayableInput struct {
	Description *string    `json:"description"`
	Amount      *float64   `json:"amount"`
	DueDate     *time.Time `json:"dueDate"`
	Month       *int       `json:"month"`
	Year        *int       `json:"year"`
	Category    *string    `json:"category"`
	Status      *string    `json:"status"`
	UnitID      *string    `json:"unitId"`
	Notes       *string    `json:"notes"`
}

const (
	LedgerIncome  = "Entrada"
	LedgerExpense = "Saída"
)

// LedgerEntry is one movement of the condominium cash book.
type LedgerEntry struct {
	ID        string    `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"ownerId"`
	TenantID  string    `db:"tenant_id" json:"tenantId"`
	Type      string    `db:"type" json:"type"`
	Date      time.Time `db:"date" json:"date"`
	Amount    float64   `db:"amount" json:"amount"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

func (l LedgerEntry) Resource() scope.Resource {
	return scope.Resource{Kind: scope.KindLedgerEntry, ID: l.ID, OwnerAccountID: l.OwnerID, TenantID: l.TenantID}
}

type LedgerEntryInput struct {
	Type   *string    `json:"type"`
	Date   *time.Time `json:"date"`
	Amount *float64   `json:"amount"`
	Reason *string    `json:"reason"`
}

type Meeting struct {
	ID        string    `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"ownerId"`
	TenantID  string    `db:"tenant_id" json:"tenantId"`
	Title     string    `db:"title" json:"title"`
	Date      time.Time `db:"date" json:"date"`
	Time      string    `db:"time" json:"time"`
	Place     string    `db:"place" json:"place"`
	Type      string    `db:"type" json:"type"`
	Agenda    *string   `db:"agenda" json:"agenda,omitempty"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

func (m Meeting) Resource() scope.Resource {
	return scope.Resource{Kind: scope.KindMeeting, ID: m.ID, OwnerAccountID: m.OwnerID, TenantID: m.TenantID}
}

type MeetingInput struct {
	Title  *string    `json:"title"`
	Date   *time.Time `json:"date"`
	Time   *string    `json:"time"`
	Place  *string    `json:"place"`
	Type   *string    `json:"type"`
	Agenda *string    `json:"agenda"`
	Status *string    `json:"status"`
}

// Notice is published by an operator and read by its residents. Read is
// the calling account's read flag and is not a column of notices.
type Notice struct {
	ID          string     `db:"id" json:"id"`
	OwnerID     string     `db:"owner_id" json:"ownerId"`
	TenantID    string     `db:"tenant_id" json:"tenantId"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Type        string     `db:"type" json:"type"`
	StartsAt    time.Time  `db:"starts_at" json:"startsAt"`
	EndsAt      *time.Time `db:"ends_at" json:"endsAt,omitempty"`
	Highlighted bool       `db:"highlighted" json:"highlighted"`
	Read        bool       `db:"read" json:"read"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

func (n Notice) Resource() scope.Resource {
	return scope.Resource{Kind: scope.KindNotice, ID: n.ID, OwnerAccountID: n.OwnerID, TenantID: n.TenantID}
}

type NoticeInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Type        *string    `json:"type"`
	StartsAt    *time.Time `json:"startsAt"`
	EndsAt      *time.Time `json:"endsAt"`
	Highlighted *bool      `json:"highlighted"`
}

// NoticeRead marks that AccountID has read NoticeID.
type NoticeRead struct {
	AccountID string    `db:"account_id" json:"accountId"`
	NoticeID  string    `db:"notice_id" json:"noticeId"`
	ReadAt    time.Time `db:"read_at" json:"readAt"`
}

// Resident is the public view of a resident account. Its owner is the
// operator named by CondominiumParentID.
type Resident struct {
	ID                  string    `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	Email               string    `db:"email" json:"email"`
	ProfileID           int64     `db:"profile_id" json:"profileId"`
	TenantID            *string   `db:"tenant_id" json:"tenantId,omitempty"`
	CondominiumParentID *string   `db:"condominium_parent_id" json:"condominiumParentId,omitempty"`
	ZipCode             *string   `db:"zip_code" json:"zipCode,omitempty"`
	Phone               *string   `db:"phone" json:"phone,omitempty"`
	Avatar              *string   `db:"avatar" json:"avatar,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time `db:"updated_at" json:"updatedAt"`
}

func (r Resident) Resource() scope.Resource {
	return scope.Resource{Kind: scope.KindResident, ID: r.ID, OwnerAccountID: deref(r.CondominiumParentID), TenantID: deref(r.TenantID)}
}

type ResidentInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	ZipCode  *string `json:"zipCode"`
	Phone    *string `json:"phone"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
