package kafka

import (
	"fmt"
	"log"
	"time"

	"salgados/internal/audit"
)

type publisher interface {
	Publish(topic, key string, message []byte) error
}

// AuditProcessor publishes every audit record to a topic, keyed by record id
// so that all events of one order land on the same partition. A failed
// publish is retried up to MaxAttempts times before the record is given up.
type AuditProcessor struct {
	producer    publisher
	topic       string
	MaxAttempts int
	RetryDelay  time.Duration
}

func NewAuditProcessor(producer publisher, topic string) *AuditProcessor {
	return &AuditProcessor{
		producer:    producer,
		topic:       topic,
		MaxAttempts: 3,
		RetryDelay:  500 * time.Millisecond,
	}
}

func (p *AuditProcessor) Process(batch []audit.Record) error {
	failed := 0
	for _, rec := range batch {
		payload, err := audit.Encode(rec)
		if err != nil {
			return err
		}
		if err := p.publish(rec.RecordID, payload); err != nil {
			failed++
			log.Printf("Giving up on audit record %s/%s: %v", rec.Action, rec.RecordID, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("kafka audit: %d of %d records not published", failed, len(batch))
	}
	return nil
}

func (p *AuditProcessor) publish(key string, payload []byte) error {
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err = p.producer.Publish(p.topic, key, payload); err == nil {
			return nil
		}
		if attempt < p.MaxAttempts {
			time.Sleep(p.RetryDelay)
		}
	}
	return err
}
