package main

import (
	"log"

	"github.com/jmorenas/stageinv/internal/config"
	"github.com/jmorenas/stageinv/internal/db"
	"github.com/jmorenas/stageinv/internal/filestore"
	"github.com/jmorenas/stageinv/internal/logging"
	"github.com/jmorenas/stageinv/internal/web"
	"github.com/jmorenas/stageinv/internal/web/templates"
)

func main() {
	env := config.LoadEnv()

	logger, cleanup, err := logging.New(env.LogLevel, env.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	uploads, err := filestore.New(env.UploadsDir)
	if err != nil {
		logger.Error("failed to initialize uploads store", "error", err)
		return
	}
	labelDir, err := filestore.New(env.LabelsDir)
	if err != nil {
		logger.Error("failed to initialize label store", "error", err)
		return
	}

	configs := config.NewStore(env.ConfigPath)
	server := web.NewServer(env, configs, db.MySQLConnector{}, uploads, labelDir, templates.FS, logger)

	if err := server.ListenAndServe(env.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}
