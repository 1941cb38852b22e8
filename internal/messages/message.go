package messages

import (
	"fmt"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

func NewMultisigMessage(level MultisigLogLevel, component string, err error, formatString string, additionalInfo ...interface{}) *MultisigMessage {
	return &MultisigMessage{
		LogLevel:       level,
		Component:      component,
		Error:          err,
		FormatString:   formatString,
		AdditionalInfo: additionalInfo,
	}
}

// Log writes the message to logger at the zap level matching its log level.
func (msg *MultisigMessage) Log(logger *zap.Logger) {
	if logger == nil {
		return
	}
	fields := []zap.Field{}
	if msg.Component != "" {
		fields = append(fields, zap.String("component", msg.Component))
	}
	if msg.Error != nil {
		fields = append(fields, zap.Error(msg.Error))
	}

	switch msg.LogLevel {
	case LOG_LEVEL_DEBUG:
		logger.Debug(msg.text(), fields...)
	case LOG_LEVEL_INFO, LOG_LEVEL_SUCCESS:
		logger.Info(msg.text(), append(fields, zap.String("level_tag", string(msg.LogLevel)))...)
	case LOG_LEVEL_WARNING:
		logger.Warn(msg.text(), fields...)
	case LOG_LEVEL_ERROR:
		logger.Error(msg.text(), fields...)
	}
}

// Err turns the message into an error wrapping the original cause, if any.
func (msg *MultisigMessage) Err() error {
	if msg.Error == nil {
		return errors.New(msg.text())
	}
	if msg.FormatString == "" {
		return msg.Error
	}
	return errors.Wrap(msg.Error, msg.text())
}

func (msg *MultisigMessage) String() string {
	// [LOG_LEVEL][COMPONENT] custom_message: error_message
	if msg.Error == nil {
		return fmt.Sprintf("[%s] %s", msg.LogLevel, msg.text())
	}
	return fmt.Sprintf("[%s][%s] %s: [%v]", msg.LogLevel, msg.Component, msg.text(), msg.Error)
}

func (msg *MultisigMessage) text() string {
	return fmt.Sprintf(msg.FormatString, msg.AdditionalInfo...)
}
