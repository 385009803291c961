package main

import (
	"log"
	"os"
)

// logLevel gates which Printf-style calls below actually write, per
// CODEINDEX_LOG_LEVEL (debug|info|warn|error, default info).
type logLevel int

const (
	levelDebug logLevel = iota
	levelInfo
	levelWarn
	levelError
)

var currentLevel = parseLevel(os.Getenv("CODEINDEX_LOG_LEVEL"))

func parseLevel(s string) logLevel {
	switch s {
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func logDebugf(format string, args ...any) {
	if currentLevel <= levelDebug {
		log.Printf("debug: "+format, args...)
	}
}

func logInfof(format string, args ...any) {
	if currentLevel <= levelInfo {
		log.Printf("info: "+format, args...)
	}
}

func logWarnf(format string, args ...any) {
	if currentLevel <= levelWarn {
		log.Printf("warn: "+format, args...)
	}
}
