package lpsolve

// Logger receives lp_solve's own progress messages.
type Logger interface {
	Print(v ...interface{})
}

type noopLogger struct{}

func (noopLogger) Print(v ...interface{}) {}
