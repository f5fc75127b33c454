package main

import (
	devenv "feedback-notifier/dev/env"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const liveConfigTemplate = `{
  "username": "",
  "base_url": "https://www.ebay.com/usr/",
  "cloudflare_bypass": false
}
`

func create(recreate bool) error {
	_, err := os.Stat("go.mod")
	if os.IsNotExist(err) {
		return fmt.Errorf("the dev environment must be created in the repository root (the same directory as the 'go.mod' file)")
	}

	if recreate {
		err = os.RemoveAll("dev/.state")
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	err = os.MkdirAll("dev/.state", 0777)
	if err != nil {
		return err
	}

	livePath, err := devenv.GetStateFilePath(devenv.LiveConfigPath)
	if err != nil {
		return err
	}
	_, err = os.Stat(livePath)
	if os.IsNotExist(err) {
		err = os.WriteFile(livePath, []byte(liveConfigTemplate), 0644)
		if err != nil {
			return err
		}
		slog.Info("wrote live test config template", "path", livePath)
	}

	slog.Info(
		"tests against the real site are skipped until a username is filled in",
		"path", filepath.Join("dev", ".state", devenv.LiveConfigPath),
	)
	return nil
}

func main() {
	recreate := flag.Bool("recreate", false, "recreate the dev environment from scratch")
	flag.Parse()

	err := create(*recreate)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err.Error())
		os.Exit(1)
	}

	slog.Info("dev environment created sucessfully!")
}
