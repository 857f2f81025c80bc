package core

import (
	"io"
	"log"
	"strings"
)

type logLevel int

const (
	logSilent logLevel = iota
	logError
	logInfo
	logDebug
)

var currentLevel = logInfo

func SetLogLevel(levelStr string) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "silent":
		currentLevel = logSilent
	case "error":
		currentLevel = logError
	case "info", "":
		currentLevel = logInfo
	case "debug":
		currentLevel = logDebug
	default:
		currentLevel = logInfo
	}
	Debugf("[log] nivell configurat: %s", strings.ToLower(strings.TrimSpace(levelStr)))
}

func Debugf(format string, v ...interface{}) {
	if currentLevel >= logDebug {
		log.Printf("[DEBUG] "+format, v...)
	}
}

func Infof(format string, v ...interface{}) {
	if currentLevel >= logInfo {
		log.Printf("[INFO] "+format, v...)
	}
}

func Errorf(format string, v ...interface{}) {
	if currentLevel >= logError {
		log.Printf("[ERROR] "+format, v...)
	}
}

// AttachLoggerOutput redirigeix la sortida del log (fitxer, buffer de test...).
func AttachLoggerOutput(w io.Writer) {
	log.SetOutput(w)
}
