package logsvc

import (
	"log"

	"github.com/somaedu/soma/core"
)

// ConsoleLogger writes to the standard logger only; DEV/TEST stand-in for
// the rollbar logger.
type ConsoleLogger struct {
	std *log.Logger
}

var _ core.Logger = (*ConsoleLogger)(nil)

func NewConsoleLogger(std *log.Logger) *ConsoleLogger {
	return &ConsoleLogger{std: std}
}

func (l ConsoleLogger) Info(msg string, extras ...interface{}) {
	l.log(msg, extras)
}

func (l ConsoleLogger) Error(msg string, err error, extras ...interface{}) {
	l.log(msg, append(extras, err))
}

func (l ConsoleLogger) Fatal(msg string, err error, extras ...interface{}) {
	l.log(msg, append(extras, err))
	l.std.Fatal(msg)
}

func (l ConsoleLogger) log(msg string, extras []interface{}) {
	l.std.Println(msg)
	for _, extra := range extras {
		if extra == nil {
			continue
		}
		l.std.Printf("%+v\n", extra)
	}
}
