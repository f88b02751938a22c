// internal/store/signals.go
package store

import (
	"context"
	"encoding/json"
	"time"

	"loan-decision-pipeline/internal/common/database"
	"loan-decision-pipeline/internal/common/errors"
	"loan-decision-pipeline/internal/common/logger"
	"loan-decision-pipeline/internal/models"

	"github.com/google/uuid"
)

// SignalIndexer ships the masked signal snapshot of each run into
// Elasticsearch for search and audit. Documents are write-once.
type SignalIndexer struct {
	es     *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

func NewSignalIndexer(es *database.ElasticsearchClient, index string, log logger.Logger) *SignalIndexer {
	return &SignalIndexer{
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "signal_indexer"}),
	}
}

type signalDocument struct {
	AssessmentID string         `json:"assessment_id"`
	IndexedAt    time.Time      `json:"indexed_at"`
	Signals      models.Signals `json:"signals"`
}

// IndexSignals writes the signal snapshot under a fresh document ID, tied
// back to the persisted assessment row. The snapshot arrives already masked.
func (i *SignalIndexer) IndexSignals(ctx context.Context, assessmentID string, signals models.Signals) error {
	doc := signalDocument{
		AssessmentID: assessmentID,
		IndexedAt:    time.Now().UTC(),
		Signals:      signals,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return errors.NewSignalIndexFailedError(err)
	}

	docID := uuid.NewString()
	if err := i.es.Index(ctx, i.index, docID, body); err != nil {
		return errors.NewSignalIndexFailedError(err)
	}

	i.logger.Debug("signals indexed", map[string]interface{}{
		"assessment_id": assessmentID,
		"doc_id":        docID,
		"index":         i.index,
	})
	return nil
}
