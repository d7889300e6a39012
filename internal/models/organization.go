package models

// Organization is a clinic owning a set of doctors and the appointments
// booked under it.
type Organization struct {
	BaseModel
	Name string `gorm:"size:255;not null" json:"name"`
}
