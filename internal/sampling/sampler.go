package sampling

import "context"

type Sampler interface {
	Sample(ctx context.Context) (DeviceSnapshot, error)
	Info(ctx context.Context) (DeviceInfo, error)
	Close() error
	Name() string
}
