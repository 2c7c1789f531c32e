package main

import (
	"context"

	"github.com/weftlabs/weft/internal/server"
	"github.com/weftlabs/weft/internal/util"
	"github.com/weftlabs/weft/pkg/index"
	"github.com/weftlabs/weft/pkg/loader/s3"
	"github.com/weftlabs/weft/pkg/logger"
	"github.com/weftlabs/weft/pkg/logger/console"
	"github.com/weftlabs/weft/pkg/search"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	ctx := context.Background()
	dataPath := util.GetEnvString("DATA_PATH", "./data")

	if bucket := util.GetEnv("S3_BUCKET"); bucket != "" {
		syncer, err := s3.NewS3IndexSyncer(ctx, s3.NewS3IndexSyncerParams{
			Bucket:    bucket,
			Endpoint:  util.GetEnv("S3_ENDPOINT"),
			Region:    util.GetEnvString("S3_REGION", "us-east-1"),
			AccessKey: util.GetEnv("S3_ACCESS_KEY"),
			SecretKey: util.GetEnv("S3_SECRET_KEY"),
		})
		if err != nil {
			logger.Fatal("Failed to create S3 syncer", "err", err)
		}
		if _, err := syncer.Sync(ctx, util.GetEnv("S3_PREFIX"), dataPath); err != nil {
			logger.Fatal("Failed to sync collections from S3", "err", err)
		}
	}

	graph := index.NewGraphIndex(dataPath)
	if err := graph.Initialize(ctx, nil); err != nil {
		logger.Fatal("Failed to initialize graph index", "err", err)
	}

	keyword := search.NewKeywordIndex(dataPath)
	if err := keyword.Refresh(); err != nil {
		logger.Fatal("Failed to build keyword index", "err", err)
	}

	server.Init(graph, keyword)
}
