package blightlp

// Logger is satisfied by *log.Logger and *zerolog.Logger.
type Logger interface {
	Print(v ...interface{})
}

type noopLogger struct{}

func (noopLogger) Print(v ...interface{}) {}
