package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"campusattend/internal/attendance"
	"campusattend/internal/config"
	"campusattend/internal/notify"
	"campusattend/internal/queue"
	"campusattend/internal/session"
	"campusattend/internal/store"
)

// Worker consumes check-in messages and delivers best-effort
// notifications; a failed send is logged and dropped, never retried
// into the attendance path.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "campusattend:checkins")
	}

	records := attendance.NewRepository(db.Client)
	sessions := session.NewRepository(db.Client)
	notifier := notify.New(cfg.NotifyServiceURL, cfg.NotifySkip)

	if !cfg.NotifySkip {
		if err := notifier.Health(ctx); err != nil {
			log.Printf("WARNING: notification service not available: %v", err)
		} else {
			log.Println("notification service connected")
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != "checkin" {
			continue
		}

		id := string(msg.Body)
		rec, err := records.Get(ctx, id)
		if err != nil {
			log.Printf("fetch record %s failed: %v", id, err)
			continue
		}
		sess, err := sessions.Get(ctx, rec.SessionID)
		if err != nil {
			log.Printf("fetch session %s failed: %v", rec.SessionID, err)
			continue
		}

		notice := notify.CheckinNotice{
			StudentName:  rec.StudentName,
			StudentEmail: rec.StudentEmail,
			CourseName:   sess.CourseName,
			CourseCode:   sess.CourseCode,
			Status:       string(rec.Status),
			RecordedAt:   rec.RecordedAt,
		}
		if err := notifier.Send(ctx, notice); err != nil {
			log.Printf("notify failed for record %s: %v", id, err)
			continue
		}
		log.Printf("notified %s for %s (%s)", rec.StudentName, sess.CourseCode, rec.Status)
	}

	log.Println("worker stopped")
}
