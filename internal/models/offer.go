package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/LokalDeals/lokaldeals_api/internal/lifecycle"
)

// Offer is a time-boxed promotion owned by one company. The slug is derived
// from the title at creation and never recomputed, even when the title is
// edited while the offer is still Pending.
type Offer struct {
	ID              string           `db:"id" json:"id"`
	Slug            string           `db:"slug" json:"slug"`
	CompanyID       string           `db:"company_id" json:"companyId"`
	Title           string           `db:"title" json:"title"`
	Description     string           `db:"description" json:"description"`
	Terms           *string          `db:"terms" json:"terms,omitempty"`
	Category        string           `db:"category" json:"category"`
	CoverImage      string           `db:"cover_image" json:"coverImage"`
	StartDate       time.Time        `db:"start_date" json:"startDate"`
	EndDate         time.Time        `db:"end_date" json:"endDate"`
	CTAButtonText   *string          `db:"cta_button_text" json:"ctaButtonText,omitempty"`
	CTAButtonLink   *string          `db:"cta_button_link" json:"ctaButtonLink,omitempty"`
	CTAEmail        *string          `db:"cta_email" json:"ctaEmail,omitempty"`
	OriginalPrice   *decimal.Decimal `db:"original_price" json:"originalPrice,omitempty"`
	DiscountPercent *decimal.Decimal `db:"discount_percent" json:"discountPercent,omitempty"`
	FinalPrice      *decimal.Decimal `db:"final_price" json:"finalPrice,omitempty"`
	Status          lifecycle.Status `db:"status" json:"status"`
	Featured        bool             `db:"featured" json:"featured"`
	CreatedAt       time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updatedAt"`

	// DisplayStatus is computed at read time and never persisted.
	DisplayStatus lifecycle.DisplayStatus `db:"-" json:"displayStatus,omitempty"`
}

// AttachDisplayStatus fills DisplayStatus from the stored status and the
// offer's end date as of now.
func (o *Offer) AttachDisplayStatus(now time.Time) {
	o.DisplayStatus = lifecycle.DeriveDisplayStatus(o.Status, o.EndDate, now)
}
