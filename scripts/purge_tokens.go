// 手动清理过期的设备令牌
//
// 主应用在 store.driver=mysql 时每 10 分钟自动清理一次。
// 此脚本仅用于手动触发，例如长时间停机后重新部署。
//
// 用法: go run scripts/purge_tokens.go

package main

import (
	"context"
	"learning_portal/internal/config"
	"learning_portal/internal/repository"
	"learning_portal/pkg/database"
	"learning_portal/pkg/logger"
	"log"
	"time"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}
	if cfg.Store.Driver != "mysql" {
		log.Fatalf("store.driver=%s 无需清理（memory 随进程释放，redis 依赖 TTL）", cfg.Store.Driver)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	log.Println("手动触发过期令牌清理...")
	n, err := repository.NewSQLTokenStore(db).PurgeExpired(ctx)
	if err != nil {
		log.Fatalf("清理失败: %v", err)
	}
	log.Printf("完成！共删除 %d 条", n)
}
