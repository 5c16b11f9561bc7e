// 手动补建错题记录
//
// 错题记录在提交作答时自动创建。导入历史作答数据后，用此脚本为
// 尚无错题记录的错误作答补建，首次出错时间取最早的错误作答。
//
// 用法: go run scripts/backfill_mistakes.go [-config configs/config.yaml]

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"sat_practice_backend/internal/config"
	"sat_practice_backend/internal/repository"
	"sat_practice_backend/internal/service"
	"sat_practice_backend/pkg/database"
	"sat_practice_backend/pkg/logger"

	"gopkg.in/yaml.v3"
)

type scriptConfig struct {
	Server   config.ServerConfig   `yaml:"server"`
	Database config.DatabaseConfig `yaml:"database"`
}

func main() {
	path := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var sc scriptConfig
	if err := yaml.Unmarshal(data, &sc); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}
	if sc.Database.Port == 0 {
		sc.Database.Port = 5432
	}
	if sc.Database.SSLMode == "" {
		sc.Database.SSLMode = "disable"
	}

	cfg := &config.Config{Server: sc.Server, Database: sc.Database}
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, false)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	mistakes := service.NewMistakeService(
		repository.NewMistakeRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewAttemptRepository(db),
		repository.NewQuestionRepository(db),
		nil,
		0,
		0,
	)

	log.Println("开始补建错题记录...")
	created, err := mistakes.BackfillFromSubmissions(context.Background())
	if err != nil {
		log.Fatalf("补建过程中出现错误（已新建 %d 条）: %v", created, err)
	}
	log.Printf("完成！新建 %d 条错题记录", created)
}
