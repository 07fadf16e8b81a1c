package diagnostic

import "time"

// Record is one operational failure kept for later inspection.
type Record struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Scope     string    `json:"scope" gorm:"size:64;index"`
	GuildID   string    `json:"guild_id,omitempty" gorm:"size:32;index"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName pins the gorm table.
func (Record) TableName() string { return "diagnostics" }
