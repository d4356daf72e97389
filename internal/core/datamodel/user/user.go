package user

import "time"

type User struct {
	ID           int64     `gorm:"primaryKey"`
	Username     string    `gorm:"column:username;size:150;uniqueIndex;not null"`
	FirstName    string    `gorm:"column:first_name;size:150"`
	LastName     string    `gorm:"column:last_name;size:150"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	IsStaff      bool      `gorm:"column:is_staff;default:false"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

type Group struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"column:name;size:150;uniqueIndex;not null"`
}

func (Group) TableName() string { return "groups" }

type UserGroup struct {
	ID      int64 `gorm:"primaryKey"`
	UserID  int64 `gorm:"column:user_id;uniqueIndex:idx_user_group;not null"`
	GroupID int64 `gorm:"column:group_id;uniqueIndex:idx_user_group;not null"`
}

func (UserGroup) TableName() string { return "user_groups" }

func Models() []interface{} {
	return []interface{}{&User{}, &Group{}, &UserGroup{}}
}
