package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	rollbarerrs "github.com/rollbar/rollbar-go/errors"

	"github.com/somaedu/soma/core"
	"github.com/somaedu/soma/core/user"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger) *RollbarLogger {
	rollbar.SetToken(core.Conf.RollbarToken)
	rollbar.SetEnvironment(core.Conf.Env)
	rollbar.SetStackTracer(rollbarerrs.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected extras: map[string]interface{}, user.User
func (l RollbarLogger) prepare(msg string, extras []interface{}) []interface{} {
	var usrSet bool
	args := make([]interface{}, 0, len(extras)+1)
	args = append(args, msg)
	for _, extra := range extras {
		// set logged in User
		if usr, ok := extra.(user.User); ok {
			if !usrSet { // only set one User
				rollbar.SetPerson(usr.ID, usr.Username, usr.Email)
				usrSet = true
			}
		} else {
			args = append(args, extra)
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return args
}

func (l RollbarLogger) print(msg string, extras []interface{}) {
	l.std.Println(msg)
	for _, extra := range extras {
		l.std.Printf("%+v\n", extra)
	}
}

func (l RollbarLogger) Info(msg string, extras ...interface{}) {
	rollbar.Info(l.prepare(msg, extras)...)
	l.print(msg, extras)
}

func (l RollbarLogger) Error(msg string, err error, extras ...interface{}) {
	args := l.prepare(msg, extras)
	if err != nil {
		args = append(args, err)
	}
	rollbar.Error(args...)
	l.print(msg, append(extras, err))
}

func (l RollbarLogger) Fatal(msg string, err error, extras ...interface{}) {
	args := l.prepare(msg, extras)
	if err != nil {
		args = append(args, err)
	}
	rollbar.Critical(args...)
	l.print(msg, append(extras, err))
	l.std.Fatal(msg)
}
