package main

import (
	"fmt"
	"os"

	"nordmail/backend/internal/auth/jwt"
	"nordmail/backend/internal/config"
	"nordmail/backend/internal/service"
	"nordmail/backend/internal/storage"
	"nordmail/backend/internal/storage/memory"
	sqlstore "nordmail/backend/internal/storage/sql"
)

// main 初始化后台管理配置（写入管理员口令散列）。
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: create-admin <password>")
		os.Exit(1)
	}
	password := os.Args[1]

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 创建存储
	var store storage.Store
	if cfg.Database.Type == "" {
		fmt.Println("Warning: no database configured, settings will only exist in memory.")
		store = memory.NewStore()
	} else {
		sqlStore, err := sqlstore.NewStore(
			cfg.Database.Type,
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			fmt.Printf("Failed to connect to database: %v\n", err)
			os.Exit(1)
		}
		if err := sqlStore.Migrate(); err != nil {
			fmt.Printf("Failed to run migrations: %v\n", err)
			os.Exit(1)
		}
		store = sqlStore
	}
	defer store.Close()

	manager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)
	admin := service.NewAdminService(store, manager, nil)

	if err := admin.EnsureDefaults(password); err != nil {
		fmt.Printf("Failed to initialize admin settings: %v\n", err)
		os.Exit(1)
	}

	settings, err := admin.GetSettings()
	if err != nil {
		fmt.Printf("Failed to read admin settings: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Admin settings initialized!")
	fmt.Printf("  Username: %s\n", settings.Username)
	fmt.Printf("  Session timeout: %d minutes\n", settings.SessionTimeoutMinutes)
	fmt.Println("\nNote: if settings already existed, the password was left unchanged.")
}
