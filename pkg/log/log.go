package log

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

func InitLogs() *logrus.Logger {
	log := logrus.New()

	log.SetLevel(logrus.WarnLevel)

	return log
}

// PrefixLogger is a logrus logger that prepends a fixed prefix to every
// message, so output from independent components can be told apart.
type PrefixLogger struct {
	*logrus.Logger
	prefix string
}

func NewPrefixLogger(prefix string) *PrefixLogger {
	return &PrefixLogger{
		Logger: InitLogs(),
		prefix: prefix,
	}
}

// WrapLogger reuses an existing logger, adding the prefix on top.
func WrapLogger(logger *logrus.Logger, prefix string) *PrefixLogger {
	return &PrefixLogger{
		Logger: logger,
		prefix: prefix,
	}
}

func (l *PrefixLogger) Prefix() string {
	return l.prefix
}

func (l *PrefixLogger) prefixed(format string) string {
	if l.prefix == "" {
		return format
	}
	return fmt.Sprintf("[%s] %s", l.prefix, format)
}

func (l *PrefixLogger) Tracef(format string, args ...interface{}) {
	l.Logger.Tracef(l.prefixed(format), args...)
}

func (l *PrefixLogger) Debugf(format string, args ...interface{}) {
	l.Logger.Debugf(l.prefixed(format), args...)
}

func (l *PrefixLogger) Infof(format string, args ...interface{}) {
	l.Logger.Infof(l.prefixed(format), args...)
}

func (l *PrefixLogger) Warnf(format string, args ...interface{}) {
	l.Logger.Warnf(l.prefixed(format), args...)
}

func (l *PrefixLogger) Errorf(format string, args ...interface{}) {
	l.Logger.Errorf(l.prefixed(format), args...)
}

func (l *PrefixLogger) Debug(args ...interface{}) {
	l.Logger.Debug(l.prefixed(fmt.Sprint(args...)))
}

func (l *PrefixLogger) Info(args ...interface{}) {
	l.Logger.Info(l.prefixed(fmt.Sprint(args...)))
}

func (l *PrefixLogger) Warn(args ...interface{}) {
	l.Logger.Warn(l.prefixed(fmt.Sprint(args...)))
}

func (l *PrefixLogger) Error(args ...interface{}) {
	l.Logger.Error(l.prefixed(fmt.Sprint(args...)))
}
