package renderer

import "go.uber.org/zap"

type uploadConfig struct {
	label  string
	logger *zap.Logger
}

func newUploadConfig() *uploadConfig {
	return &uploadConfig{logger: zap.NewNop()}
}

// UploadOption is a functional option used to configure UploadScene.
type UploadOption func(*uploadConfig)

// WithLabel sets the debug label prefixed to every created buffer. Defaults to the scene name.
//
// Parameters:
//   - label: the debug label
//
// Returns:
//   - UploadOption: a function that applies the label option
func WithLabel(label string) UploadOption {
	return func(c *uploadConfig) {
		c.label = label
	}
}

// WithLogger sets the logger that receives the upload summary. A nil logger disables logging.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - UploadOption: a function that applies the logger option
func WithLogger(logger *zap.Logger) UploadOption {
	return func(c *uploadConfig) {
		if logger == nil {
			logger = zap.NewNop()
		}
		c.logger = logger
	}
}
