// Package logger provides adapters for popular logging libraries to
// work with rowdb's Logger interface.
//
// The standard library's slog.Logger already satisfies rowdb.Logger
// directly; these adapters cover zap and logrus.
//
// Example with zap:
//
//	zapLogger, _ := zap.NewProduction()
//
//	table, err := rowdb.Open("users.db", rowdb.WithLogger(logger.NewZap(zapLogger)))
//	if err != nil {
//	    panic(err)
//	}
//	defer table.Close()
package logger
