package models

// User is an application account, mirrored from the Authorizer identity.
type User struct {
	Model
	AuthzID     string `gorm:"type:char(36);uniqueIndex" json:"authzId"`
	Email       string `gorm:"size:255;not null;uniqueIndex" json:"email"`
	DisplayName string `gorm:"size:255" json:"displayName"`
}

func (User) TableName() string {
	return "users"
}

func (*User) EntityType() string {
	return "user"
}

// UserRole grants one named role to a user.
type UserRole struct {
	Model
	UserID uint64 `gorm:"not null;index:idx_user_role,unique" json:"userId"`
	Role   string `gorm:"size:64;not null;index:idx_user_role,unique" json:"role"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

func (*UserRole) EntityType() string {
	return "user_role"
}

// ScopeAssignment restricts a user's role to a portfolio, program or
// project subtree.
type ScopeAssignment struct {
	Model
	UserID    uint64 `gorm:"not null;index" json:"userId"`
	ScopeType string `gorm:"size:32;not null" json:"scopeType"`
	ScopeID   uint64 `gorm:"not null" json:"scopeId"`
}

func (ScopeAssignment) TableName() string {
	return "scope_assignments"
}

func (*ScopeAssignment) EntityType() string {
	return "scope_assignment"
}
