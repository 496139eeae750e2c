package model

import (
	"strings"

	"gorm.io/gorm"
)

// 角色
const (
	RoleSuperAdmin  = "superadmin"
	RoleHR          = "hr"
	RoleOperasional = "operasional"
	RoleDirektur    = "direktur"
	RoleSupervisor  = "supervisi"
	RolePegawai     = "pegawai"
)

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey"                         json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                   json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"       json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                   json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'pegawai'"  json:"role"`
	Department   string `gorm:"type:varchar(100)"                            json:"department"`
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.UserID)
	return nil
}

// Roles 全部角色
func Roles() []string {
	return []string{RoleSuperAdmin, RoleHR, RoleOperasional, RoleDirektur, RoleSupervisor, RolePegawai}
}

// ValidRole 是否为已知角色（大小写不敏感）
func ValidRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	for _, r := range Roles() {
		if r == role {
			return true
		}
	}
	return false
}
