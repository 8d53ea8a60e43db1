package models

import "time"

// Editable is implemented by every user-editable entity. All of them carry
// an optimistic-lock version counter that starts at 1 and is incremented
// exactly once per successful update.
type Editable interface {
	GetID() uint64
	GetVersion() uint64
	SetID(uint64)
	SetVersion(uint64)
	EntityType() string
}

// Model is the embedded base for user-editable entities.
type Model struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Version   uint64    `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *Model) GetID() uint64 {
	return m.ID
}

func (m *Model) GetVersion() uint64 {
	return m.Version
}

func (m *Model) SetID(id uint64) {
	m.ID = id
}

func (m *Model) SetVersion(v uint64) {
	m.Version = v
}
