package logger

import (
	"fmt"
	"log"
	"os"
)

var (
	InfoLogger  = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	WarnLogger  = log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	DebugLogger = log.New(os.Stdout, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)

	debugEnabled = os.Getenv("ENVIRONMENT") == "" || os.Getenv("ENVIRONMENT") == "development"
)

// SetDebug toggles debug output; main wires it from config.
func SetDebug(enabled bool) {
	debugEnabled = enabled
}

func Info(format string, v ...interface{}) {
	_ = InfoLogger.Output(2, fmt.Sprintf(format, v...))
}

func Warn(format string, v ...interface{}) {
	_ = WarnLogger.Output(2, fmt.Sprintf(format, v...))
}

func Error(format string, v ...interface{}) {
	_ = ErrorLogger.Output(2, fmt.Sprintf(format, v...))
}

func Debug(format string, v ...interface{}) {
	if debugEnabled {
		_ = DebugLogger.Output(2, fmt.Sprintf(format, v...))
	}
}
