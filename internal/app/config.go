package app

import (
	"github.com/orio/graphbook-backend/internal/graph"
	"github.com/orio/graphbook-backend/internal/platform/logger"
	"github.com/orio/graphbook-backend/internal/utils"
)

type Config struct {
	Port          string
	ScoreWorkers  int
	MergeStrategy graph.MergeStrategy
}

func LoadConfig(log *logger.Logger) Config {
	port := utils.GetEnv("PORT", "8080", log)
	scoreWorkers := utils.GetEnvAsInt("SCORE_WORKERS", 1, log)
	merge := graph.MergeStrategy(utils.GetEnv("TEXT_MERGE_STRATEGY", string(graph.MergeByContent), log))
	return Config{
		Port:          port,
		ScoreWorkers:  scoreWorkers,
		MergeStrategy: merge,
	}
}
