package dto

import "e-hrm/backend/internal/model"

// ── 用户模块 DTO ──

// CreateUserRequest 创建用户（命令行 user create 与管理员接口共用）
type CreateUserRequest struct {
	Name       string `json:"name"       binding:"required,min=2,max=100"`
	Email      string `json:"email"      binding:"required,email"`
	Password   string `json:"password"   binding:"required,min=8,max=64"`
	Role       string `json:"role"       binding:"required,oneof=superadmin hr operasional direktur supervisi pegawai"`
	Department string `json:"department" binding:"omitempty,max=100"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
}

// NewUserResponse 从模型构造响应
func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:         u.UserID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
	}
}
