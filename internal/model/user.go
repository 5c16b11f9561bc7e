package model

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// User 用户资料（profiles），认证由托管服务负责
// swagger:model User
type User struct {
	UUIDBase
	Email string   `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name  string   `gorm:"size:100" json:"name"`
	Role  UserRole `gorm:"size:20;default:'student'" json:"role"`
}

func (User) TableName() string {
	return "profiles"
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == Admin
}
