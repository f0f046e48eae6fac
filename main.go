// @title 学习门户 API
// @version 1.0
// @description 移动端学习门户的本地服务：会话、播放进度、练习、答疑与通知。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey DeviceAuth
// @in header
// @name X-Device-ID

package main

import (
	"context"
	"flag"
	"learning_portal/internal/app"
	"learning_portal/internal/config"
	"learning_portal/pkg/logger"
	"log"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置目录，目录下的 config.yaml 会被热更新")
	migrateOnly := flag.Bool("migrate-only", false, "只执行令牌表迁移（store.driver=mysql），完成后退出")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *migrateOnly && cfg.Store.Driver != "mysql" {
		log.Fatalf("-migrate-only requires store.driver=mysql, got %q", cfg.Store.Driver)
	}

	application, err := app.NewApp(cfg, *configDir)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer logger.Log.Sync()

	// 迁移在初始化数据库时完成，直接退出
	if *migrateOnly {
		application.Shutdown(context.Background())
		log.Println("数据库迁移完成，退出程序")
		return
	}

	application.Run()
}
