package models

import (
	"time"

	"github.com/LokalDeals/lokaldeals_api/internal/lifecycle"
)

// Company represents a registered business listing. The slug is assigned at
// registration and never changes; status advances only through moderation.
type Company struct {
	ID          string           `db:"id" json:"id"`
	Slug        string           `db:"slug" json:"slug"`
	OwnerUserID string           `db:"owner_user_id" json:"-"`
	Email       string           `db:"email" json:"email"`
	Name        string           `db:"name" json:"name"`
	Description string           `db:"description" json:"description"`
	Category    string           `db:"category" json:"category"`
	Phone       string           `db:"phone" json:"phone"`
	Whatsapp    *string          `db:"whatsapp" json:"whatsapp,omitempty"`
	Website     *string          `db:"website" json:"website,omitempty"`
	Facebook    *string          `db:"facebook" json:"facebook,omitempty"`
	Instagram   *string          `db:"instagram" json:"instagram,omitempty"`
	Tiktok      *string          `db:"tiktok" json:"tiktok,omitempty"`
	Linkedin    *string          `db:"linkedin" json:"linkedin,omitempty"`
	Location    string           `db:"location" json:"location"`
	LogoURL     string           `db:"logo_url" json:"logoUrl"`
	BannerURL   *string          `db:"banner_url" json:"bannerUrl,omitempty"`
	Status      lifecycle.Status `db:"status" json:"status"`
	CreatedAt   time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updatedAt"`
}

// ApprovalMissingFields returns the required-profile fields that are still
// empty. A company may only be approved when this is empty.
func (c *Company) ApprovalMissingFields() []string {
	var missing []string
	if c.LogoURL == "" {
		missing = append(missing, "logoUrl")
	}
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if c.Description == "" {
		missing = append(missing, "description")
	}
	if c.Category == "" {
		missing = append(missing, "category")
	}
	if c.Phone == "" {
		missing = append(missing, "phone")
	}
	if c.Location == "" {
		missing = append(missing, "location")
	}
	return missing
}
