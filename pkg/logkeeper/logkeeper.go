// Package logkeeper moves request log entries from Kafka into Elasticsearch.
package logkeeper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"moderation/pkg/models"
)

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Keeper struct {
	es         *elasticsearch.Client
	index      string
	numWorkers int
}

func New(es *elasticsearch.Client, index string, numWorkers int) *Keeper {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Keeper{es: es, index: index, numWorkers: numWorkers}
}

// Run reads messages until ctx is cancelled and indexes them with a pool of workers.
func (k *Keeper) Run(ctx context.Context, r MessageReader) {
	jobs := make(chan kafka.Message, k.numWorkers*5) // buffer is needed to increase throughput
	var wg sync.WaitGroup
	wg.Add(k.numWorkers)
	for workerID := 0; workerID < k.numWorkers; workerID++ {
		go func(id int) {
			defer wg.Done()
			k.worker(ctx, jobs, id)
		}(workerID)
	}

	log.Info("[logkeeper] accepting logs...")
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				break
			}
			log.Errorf("[logkeeper] failed to read message from Kafka: %v", err)
			continue
		}
		log.Debugf("[logkeeper] received message: %s", string(msg.Value))

		jobs <- msg
	}

	close(jobs)
	wg.Wait()
}

func (k *Keeper) worker(ctx context.Context, jobs <-chan kafka.Message, workerID int) {
	for msg := range jobs {
		entry, err := k.Index(ctx, msg.Value)
		if err != nil {
			log.Errorf("[logkeeper][workerID:%d] failed to index document: %v", workerID, err)
			continue
		}
		log.Infof("[logkeeper][workerID:%d][%s] log entry indexed", workerID, shorten(entry.RequestID))
	}
	log.Infof("[logkeeper][workerID:%d] jobs channel closed, exiting worker", workerID)
}

// Index stores one JSON-encoded models.LogEntry under the ID service-requestID.
func (k *Keeper) Index(ctx context.Context, value []byte) (models.LogEntry, error) {
	var entry models.LogEntry
	if err := json.Unmarshal(value, &entry); err != nil {
		return entry, fmt.Errorf("failed to unmarshal log entry: %w", err)
	}

	res, err := k.es.Index(
		k.index,
		bytes.NewReader(value),
		k.es.Index.WithDocumentID(entry.Service+"-"+entry.RequestID),
		k.es.Index.WithContext(context.WithoutCancel(ctx)),
	)
	if err != nil {
		return entry, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return entry, fmt.Errorf("elasticsearch returned %s", res.Status())
	}

	return entry, nil
}

func shorten(s string) string {
	if len(s) > 6 {
		return s[:6] + "..."
	}
	return s
}
