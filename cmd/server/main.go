package main

import (
	"catalogd/internal/server"
	"catalogd/internal/util"
	"catalogd/pkg/logger"
	"catalogd/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
