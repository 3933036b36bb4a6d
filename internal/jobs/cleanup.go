package jobs

import (
	"log"

	"github.com/robfig/cron/v3"

	"github.com/voltmotors/voltride-backend/internal/services"
)

// CleanupJob periodically purges stale OTP records.
type CleanupJob struct {
	otpService *services.OTPService
	cron       *cron.Cron
}

// NewCleanupJob creates the OTP cleanup scheduler
func NewCleanupJob(otpService *services.OTPService) *CleanupJob {
	return &CleanupJob{
		otpService: otpService,
		cron:       cron.New(),
	}
}

// Start schedules the sweep every 15 minutes and runs the scheduler
func (j *CleanupJob) Start() {
	_, err := j.cron.AddFunc("*/15 * * * *", j.sweep)
	if err != nil {
		log.Printf("Failed to schedule OTP cleanup: %v", err)
		return
	}
	j.cron.Start()
	log.Println("OTP cleanup job started - runs every 15 minutes")
}

// Stop halts the scheduler, waiting for a running sweep to finish
func (j *CleanupJob) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	log.Println("OTP cleanup job stopped")
}

func (j *CleanupJob) sweep() {
	deleted, err := j.otpService.CleanupExpired()
	if err != nil {
		log.Printf("OTP cleanup sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("OTP cleanup sweep removed %d stale records", deleted)
	}
}
