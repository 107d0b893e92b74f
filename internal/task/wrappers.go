package task

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// NewLoggingWrapper logs start and finish of every run with a per-run execution id.
func NewLoggingWrapper(log zerolog.Logger) cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			jl := log.With().
				Str("job", jobName(j)).
				Str("execution_id", uuid.NewString()).
				Logger()
			start := time.Now()
			jl.Debug().Msg("job started")
			j.Run()
			jl.Debug().Dur("duration", time.Since(start)).Msg("job finished")
		})
	}
}

// NewPanicRecoveryWrapper keeps a panicking job from taking the process down.
func NewPanicRecoveryWrapper(log zerolog.Logger) cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Str("job", jobName(j)).
						Interface("panic", r).
						Str("stack", string(debug.Stack())).
						Msg("job panicked")
				}
			}()
			j.Run()
		})
	}
}

func jobName(j cron.Job) string {
	if n, ok := j.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", j)
}

// cronLogger adapts zerolog to cron.Logger for the scheduler's own messages.
type cronLogger struct{ log zerolog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
