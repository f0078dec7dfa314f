package main

import (
	"log"
	"os"
	"strings"

	"treeme/cmd"
	"treeme/pkg/logging"
	"treeme/pkg/version"

	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	logger, err := logging.New(logging.Options{
		AppName:    "treeme",
		AppVersion: version.Get().Version,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Fatal syncs the logger before exiting with status 1.
	if err := cmd.Execute(logger); err != nil {
		logger.Fatal("treeme execution failed", zap.Error(err))
	}

	// Check if stderr is a terminal or a regular file before attempting to sync.
	if term.IsTerminal(int(os.Stderr.Fd())) || isRegularFile(os.Stderr) {
		if syncErr := logger.Sync(); syncErr != nil {
			lowerErr := strings.ToLower(syncErr.Error())
			if !strings.Contains(lowerErr, "invalid argument") {
				log.Printf("Logger sync failed: %v", syncErr)
			}
		}
	}
}

// isRegularFile checks if the given file is a regular file.
func isRegularFile(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode().IsRegular()
}
