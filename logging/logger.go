package logging

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

// NewLogger creates and returns a pre-configured logger for a specific
// component. It uses a singleton pattern per component to avoid
// re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := logrus.New()

	// Configure Level
	levelStr := "info"
	if os.Getenv("EXTDEV_LOG_LEVEL") != "" {
		levelStr = os.Getenv("EXTDEV_LOG_LEVEL")
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if os.Getenv("EXTDEV_LOG_CALLER") == "true" {
		logger.SetReportCaller(true)
	}

	// Styled component tags only make sense on an interactive stderr;
	// piped or CI output gets the plain rendering.
	isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

	switch os.Getenv("EXTDEV_LOG_FORMAT") {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&TextFormatter{DisableStyling: !isInteractive})
	}

	// Structured logs always go to stderr so they never mix with
	// payloads written to stdout.
	logger.SetOutput(os.Stderr)

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}
