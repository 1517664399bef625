package log

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/t-tomalak/logrus-easy-formatter"
)

var logger *customLogger

// nolint:gochecknoinits
func init() {
	logger = newLogger()
}

type customLogger struct {
	*logrus.Logger
}

// SetLevel
// Set log level:
// DebugLevel = 0
// InfoLevel = 1
// WarnLevel = 2
// ErrorLevel = 3
func SetLevel(lvl int) {
	switch lvl {
	case 0:
		Info("log level set to DEBUG.")
		logger.SetLevel(logrus.DebugLevel)
	case 1:
		Info("log level set to INFO.")
		logger.SetLevel(logrus.InfoLevel)
	case 2:
		Info("log level set to WARN.")
		logger.SetLevel(logrus.WarnLevel)
	case 3:
		Info("log level set to ERROR.")
		logger.SetLevel(logrus.ErrorLevel)
	default:
		Info("log level set to INFO.")
		logger.SetLevel(logrus.InfoLevel)
	}
}

// SetOutput redirects every log line, used by tests to silence or capture output.
func SetOutput(out io.Writer) {
	logger.SetOutput(out)
}

func newLogger() *customLogger {
	logger := &logrus.Logger{
		Out:   os.Stderr,
		Level: logrus.InfoLevel,
		Formatter: &easy.Formatter{
			TimestampFormat: "01-02 15:04:05.000",
			LogFormat:       "[%lvl%]   [%time%]   -   %msg%\r\n",
		},
	}
	return &customLogger{logger}
}

// Debug
func Debug(content interface{}) {
	logger.Debug(content)
}

// Debugf
func Debugf(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...))
}

// Info
func Info(content interface{}) {
	logger.Info(content)
}

// Infof
func Infof(format string, args ...interface{}) {
	logger.Info(fmt.Sprintf(format, args...))
}

// Warn
func Warn(content interface{}) {
	logger.Warn(content)
}

// Warnf
func Warnf(format string, args ...interface{}) {
	logger.Warn(fmt.Sprintf(format, args...))
}

// Error
func Error(content interface{}) {
	logger.Error(content)
}

// Errorf
func Errorf(format string, args ...interface{}) {
	logger.Error(fmt.Sprintf(format, args...))
}

// Fatal
func Fatal(content interface{}) {
	logger.Fatal(content)
}

// Fatalf
func Fatalf(format string, args ...interface{}) {
	logger.Fatal(fmt.Sprintf(format, args...))
}
