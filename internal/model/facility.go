package model

import "time"

// Facility represents a reservable physical space (court, auditorium,
// study room). The reservation core only reads its ID and availability
// flag; the rest is display metadata owned by the catalog.
type Facility struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:256;not null" json:"name"`
	Type      string `gorm:"size:64;not null" json:"type"`
	SiteID    int64  `gorm:"index" json:"site_id"`
	Available bool   `gorm:"not null;default:true" json:"available"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// Associations
	Slots []WeeklySlot `gorm:"foreignKey:FacilityID" json:"-"`
}
