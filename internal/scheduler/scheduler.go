package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler runs one-shot delayed tasks, such as the trailing message sent
// after a forecast reply.
type Scheduler struct {
	scheduler *gocron.Scheduler
}

// New creates a new Scheduler. Call Start before scheduling.
func New() *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start starts the underlying scheduler.
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// After runs task once after delay. The returned cancel func removes the task
// if it has not run yet; calling it afterwards is harmless.
func (s *Scheduler) After(delay time.Duration, name string, task func()) (cancel func(), err error) {
	if delay <= 0 {
		delay = time.Millisecond
	}

	job, err := s.scheduler.Every(delay).
		WaitForSchedule().
		LimitRunsTo(1).
		Tag(name).
		Do(func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("ERROR: scheduler: task %s panicked: %v", name, r)
				}
			}()
			task()
		})
	if err != nil {
		return nil, err
	}

	return func() {
		s.scheduler.RemoveByReference(job)
	}, nil
}

// Stop stops the scheduler and cancels any pending tasks.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
