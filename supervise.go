package dwd

import (
	"context"
	"log/slog"

	"github.com/thejerf/suture/v4"
)

func newSupervisor(log *slog.Logger) *suture.Supervisor {
	return suture.New("dwd", suture.Spec{
		EventHook: func(ev suture.Event) {
			log.Error("supervisor event", slog.String("event", ev.String()))
		},
	})
}

// Supervise runs u under a supervisor that restarts it if it panics, and
// blocks until ctx is done. The loop state survives restarts.
func Supervise(ctx context.Context, u *Updater) error {
	sup := newSupervisor(u.log)
	sup.Add(u)
	return sup.Serve(ctx)
}

// RunDaemon starts Supervise in a goroutine. The returned channel receives
// the supervisor's result once ctx is done.
func RunDaemon(ctx context.Context, u *Updater) <-chan error {
	sup := newSupervisor(u.log)
	sup.Add(u)
	return sup.ServeBackground(ctx)
}
