package storage

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"
)

// Valkey stores values in a Valkey (Redis-compatible) server without expiry.
type Valkey struct {
	client valkey.Client
}

func OpenValkey(addr string) (*Valkey, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Valkey{client: client}, nil
}

func (v *Valkey) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := v.client.Do(ctx, v.client.B().Get().Key(key).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return cmd.AsBytes()
}

func (v *Valkey) Set(ctx context.Context, key string, value []byte) error {
	cmd := v.client.Do(ctx, v.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Build())
	return cmd.Error()
}

func (v *Valkey) Close() error {
	v.client.Close()
	return nil
}
