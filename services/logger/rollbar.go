package logsvc

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/orbitaplataforma/orbita/core"
	"github.com/orbitaplataforma/orbita/core/user"
)

// RollbarLogger reports to Rollbar and writes structured lines to std.
type RollbarLogger struct {
	std *slog.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *slog.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

// NewStdLogger returns a JSON slog.Logger on stdout tagged with component.
func NewStdLogger(component string, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).With("component", component)
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, []slog.Attr) {
	var usrSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	attrs := make([]slog.Attr, 0, len(args))

	for i, arg := range args {
		switch a := arg.(type) {
		case user.User:
			// set logged in User
			if !usrSet { // only set one User
				rollbar.SetPerson(a.ID, a.Name, a.Email)
				attrs = append(attrs, slog.String("user_id", a.ID))
				usrSet = true
			}
			continue
		case error:
			attrs = append(attrs, slog.String("error", fmt.Sprintf("%+v", a)))
		case map[string]interface{}:
			for k, v := range a {
				attrs = append(attrs, slog.Any(k, v))
			}
		default:
			attrs = append(attrs, slog.Any(fmt.Sprintf("arg%d", i), a))
		}
		newArgs = append(newArgs, arg)
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return newArgs, attrs
}

func (l RollbarLogger) log(level slog.Level, attrs []slog.Attr, msg string) {
	l.std.LogAttrs(context.Background(), level, msg, attrs...)
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Debug(rbArgs...)
	l.log(slog.LevelDebug, attrs, msg)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Info(rbArgs...)
	l.log(slog.LevelInfo, attrs, msg)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Warning(rbArgs...)
	l.log(slog.LevelWarn, attrs, msg)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Error(rbArgs...)
	l.log(slog.LevelError, attrs, msg)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Critical(rbArgs...)
	l.log(slog.LevelError, attrs, msg)
	rollbar.Close()
	os.Exit(1)
}
