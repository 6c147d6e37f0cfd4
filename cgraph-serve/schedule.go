package main

import (
	"time"

	cgraph_go "cgraph-go/cgraph-go"

	"github.com/go-co-op/gocron/v2"
	"github.com/tevino/abool/v2"
)

var cleanRunning = abool.NewBool(false)

// cleanTask soft deletes expired render log entries. A run that finds the
// previous one still busy does nothing.
func cleanTask(log *cgraph_go.RenderLog) {
	if !cleanRunning.SetToIf(false, true) {
		return
	}
	defer cleanRunning.UnSet()
	n, err := log.CleanExpired(2000)
	if err != nil {
		cgraph_go.Warning("cleaning render log: %v", err)
		return
	}
	expiredRemovals.Add(n)
}

func StartExpiredCleanSchedule(log *cgraph_go.RenderLog, every time.Duration) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = scheduler.NewJob(gocron.DurationJob(every), gocron.NewTask(cleanTask, log))
	if err != nil {
		return nil, err
	}
	scheduler.Start()
	return scheduler, nil
}
