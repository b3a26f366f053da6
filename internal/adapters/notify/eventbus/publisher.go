// Package eventbus publica las alertas de adopción en un bus watermill.
// El consumidor (la función que arma y envía el correo) vive fuera de
// este servicio y se engancha por topic + metadata.
package eventbus

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Topic único de alertas; el tipo de evento viaja en metadata.
const Topic = "adopcion-alertas"

const (
	MetadataType    = "type"
	MetadataSubject = "subject"
)

type Publisher struct {
	pub message.Publisher
}

func New(pub message.Publisher) *Publisher {
	return &Publisher{pub: pub}
}

func (p *Publisher) Publish(ctx context.Context, eventType string, data any, subject string) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataType, eventType)
	msg.Metadata.Set(MetadataSubject, subject)
	msg.SetContext(ctx)

	return p.pub.Publish(Topic, msg)
}

// NewGoChannel arma un pubsub in-memory, útil en dev y tests: el mismo
// GoChannel sirve de publisher y subscriber.
func NewGoChannel(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: 64,
		},
		logger,
	)
}
