package storage

import "rangepool/internal/model"

// Storage defines a sink for applied-operation event records.
type Storage interface {
	PutEventBatch(events []model.EventRecord) error
}
