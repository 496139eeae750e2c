package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"e-hrm/backend/internal/dto"
	"e-hrm/backend/internal/model"
	"e-hrm/backend/internal/repository"
	"e-hrm/backend/internal/service"
	"e-hrm/backend/pkg/jwt"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "用户管理",
}

var userCreateReq dto.CreateUserRequest

// 首个管理员只能通过命令行创建
var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "创建用户",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !model.ValidRole(userCreateReq.Role) {
			return fmt.Errorf("未知角色 %q，可选: %v", userCreateReq.Role, model.Roles())
		}

		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.Close()

		repo := repository.NewRepository(rt.db)
		authSvc := service.NewAuthService(repo, jwt.NewManager(&rt.cfg.Auth), nil, rt.logger)

		user, err := authSvc.CreateUser(cmd.Context(), &userCreateReq, nil)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "已创建用户 %s <%s> 角色 %s\n", user.ID, user.Email, user.Role)
		return nil
	},
}

func init() {
	f := userCreateCmd.Flags()
	f.StringVar(&userCreateReq.Name, "name", "", "姓名")
	f.StringVar(&userCreateReq.Email, "email", "", "登录邮箱")
	f.StringVar(&userCreateReq.Password, "password", "", "初始密码（至少 8 位）")
	f.StringVar(&userCreateReq.Role, "role", model.RoleSuperAdmin, "角色")
	f.StringVar(&userCreateReq.Department, "department", "", "部门")
	_ = userCreateCmd.MarkFlagRequired("name")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
}
