// cmd/ragchat/main.go
package main

import (
	"github.com/joho/godotenv"

	cmd "github.com/mwiater/ragchat/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	loadEnv        = func() error { return godotenv.Load() }
	setVersionInfo = cmd.SetVersionInfo
	executeCmd     = cmd.Execute
)

// main loads a .env file when present, so API keys referenced by the config
// can live next to it, then hands off to the cobra root command.
func main() {
	_ = loadEnv()
	setVersionInfo(version, commit, date)
	executeCmd()
}
