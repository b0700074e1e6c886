package core

// Logger is any service that can report application events, optionally
// attaching extra context (the acting user, a request, ...).
type Logger interface {
	Info(msg string, extras ...interface{})
	Error(msg string, err error, extras ...interface{})
}
