package kafka

import (
	"context"
	"crypto/tls"
	"log"
	"os"
	"strings"
	"time"

	"github.com/lebnicolas/cvelistV5/database"
	"github.com/lebnicolas/cvelistV5/model"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// RunEventProcessor consumes raw CVE record payloads from the
// cve-events topic and upserts the derived advisories into the store.
// Feeds and mirrors publish whole CVE JSON documents as message values.
func RunEventProcessor(ctx context.Context, db database.DBConnection) error {
	brokersEnv := os.Getenv("KAFKA_BROKERS")
	var brokers []string
	if brokersEnv != "" {
		brokers = strings.Split(brokersEnv, ",")
	} else {
		brokers = []string{"localhost:9092"}
	}

	username := os.Getenv("KAFKA_API_KEY")
	password := os.Getenv("KAFKA_API_SECRET")

	var dialer *kafka.Dialer

	// SASL/TLS only when credentials are provided; plain dialer for
	// local development.
	if username != "" && password != "" {
		mechanism := plain.Mechanism{
			Username: username,
			Password: password,
		}

		dialer = &kafka.Dialer{
			Timeout:       10 * time.Second,
			DualStack:     true,
			SASLMechanism: mechanism,
			TLS:           &tls.Config{},
		}
	} else {
		dialer = &kafka.Dialer{
			Timeout:   10 * time.Second,
			DualStack: true,
		}
	}

	topic := "cve-events"
	var conn *kafka.Conn
	var err error

	for i := 1; i <= 3; i++ {
		log.Printf("Kafka connection attempt %d/3...", i)
		conn, err = dialer.DialContext(ctx, "tcp", brokers[0])
		if err == nil {
			conn.Close()
			break
		}
		if i < 3 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		return err
	}

	readerConfig := kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  "cvelist-ingest-worker",
		Topic:    topic,
		MaxBytes: 10e6,
		Dialer:   dialer,
	}

	reader := kafka.NewReader(readerConfig)

	go func() {
		defer reader.Close()

		log.Println("Kafka Event Processor started. Listening for CVE record events...")

		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := reader.ReadMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					continue
				}
				handleCVEEvent(ctx, db, msg.Value)
			}
		}
	}()

	return nil
}

func handleCVEEvent(ctx context.Context, db database.DBConnection, payload []byte) {
	adv, err := model.Derive(payload)
	if err != nil {
		log.Printf("Skipping malformed CVE event: %v", err)
		return
	}
	if err := database.UpsertAdvisory(ctx, db, adv); err != nil {
		log.Printf("Failed to upsert %s from event: %v", adv.ID, err)
	}
}
