package event

import "context"

const (
	systemPallet  = "System"
	eventsStorage = "Events"
)

type StorageReader interface {
	GetStorage(ctx context.Context, key []byte, blockHash string) ([]byte, error)
}

var (
	EVENT_READING          = "Reading events of block %s"
	EVENT_FAILED_TO_READ   = "Failed to read events of block %s"
	EVENT_FAILED_TO_DECODE = "Failed to decode events of block %s with spec version %d"
	EVENT_NO_EVENTS        = "Block %s has no events"
)
