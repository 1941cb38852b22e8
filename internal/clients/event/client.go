package event

import (
	"context"

	"go-multisig/internal/clients/metadata"
	"go-multisig/internal/codec"
	"go-multisig/internal/errs"
	"go-multisig/internal/messages"

	"github.com/go-faster/errors"
	scalecodec "github.com/itering/scale.go"
	"github.com/itering/scale.go/types"
	"go.uber.org/zap"
)

// EventClient reads and decodes System.Events of a block.
type EventClient struct {
	storage StorageReader
	logger  *zap.Logger
}

func NewEventClient(storage StorageReader, logger *zap.Logger) *EventClient {
	return &EventClient{storage: storage, logger: logger}
}

// EventsAt returns the events of blockHash decoded with runtime.
func (client *EventClient) EventsAt(ctx context.Context, blockHash string, runtime *metadata.Runtime) ([]codec.Event, error) {
	key, err := codec.StorageKey(systemPallet, eventsStorage)
	if err != nil {
		return nil, err
	}

	messages.NewMultisigMessage(messages.LOG_LEVEL_DEBUG, "", nil, EVENT_READING, blockHash).Log(client.logger)
	rawEvents, err := client.storage.GetStorage(ctx, key, blockHash)
	if err != nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewEventClient), err, EVENT_FAILED_TO_READ, blockHash).Log(client.logger)
		return nil, errs.NewReadError("read events", err)
	}
	if rawEvents == nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_DEBUG, "", nil, EVENT_NO_EVENTS, blockHash).Log(client.logger)
		return []codec.Event{}, nil
	}

	decoded, err := decodeEvents(rawEvents, runtime)
	if err != nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewEventClient), err, EVENT_FAILED_TO_DECODE, blockHash, runtime.SpecVersion).Log(client.logger)
		return nil, err
	}
	return codec.EventsFromDecoded(decoded)
}

func decodeEvents(rawEvents []byte, runtime *metadata.Runtime) (value interface{}, err error) {
	// the decoder panics when the bytes do not match the metadata
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, errs.NewDecodeError("events", errors.Errorf("%v", r))
		}
	}()

	eventDecoder := scalecodec.EventsDecoder{}
	eventDecoderOption := types.ScaleDecoderOption{Metadata: runtime.Meta, Spec: runtime.SpecVersion}
	eventDecoder.Init(types.ScaleBytes{Data: rawEvents}, &eventDecoderOption)
	eventDecoder.Process()
	return eventDecoder.Value, nil
}
