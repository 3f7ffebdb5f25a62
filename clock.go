package dwd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/panics"
)

// elapsed reports end-start. A clock that moved backwards yields ok == false.
func elapsed(start, end time.Time) (d time.Duration, ok bool) {
	d = end.Sub(start)
	if d < 0 {
		return 0, false
	}
	return d, true
}

func durationAttr(key string, d time.Duration, ok bool) slog.Attr {
	if !ok {
		return slog.String(key, "unavailable")
	}
	return slog.Duration(key, d)
}

func errAttr(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// try runs f, turning a panic into an error.
func try(f func() error) (err error) {
	var pc panics.Catcher
	pc.Try(func() { err = f() })
	if r := pc.Recovered(); r != nil {
		return fmt.Errorf("recovered from panic: %v", r.Value)
	}
	return err
}
