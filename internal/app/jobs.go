package app

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// sessions idle longer than this are dropped from memory; mirrored state
// stays on disk so a returning user restores their cart
const sessionMaxIdle = 24 * time.Hour

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@hourly", func() {
		a.SchedSweepSessions()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}
}

// SchedSweepSessions drops idle in-memory sessions
func (a *Application) SchedSweepSessions() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	if a.sessions == nil {
		return
	}
	if removed := a.sessions.Sweep(sessionMaxIdle); removed > 0 {
		zap.L().Info("swept idle sessions", zap.Int("removed", removed))
	}
}
