package embedding

import "errors"

// ONNXConfig configures a local ONNX sentence-embedding model.
type ONNXConfig struct {
	ModelPath  string
	Dimensions int
	MaxTokens  int
	// OutputName is the model's pooled output tensor; defaults to "sentence_embedding".
	OutputName string
}

func (c *ONNXConfig) applyDefaults() {
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTk
	}
	if c.OutputName == "" {
		c.OutputName = "sentence_embedding"
	}
}

// Validate checks the fields that have no usable default.
func (c ONNXConfig) Validate() error {
	if c.ModelPath == "" {
		return errors.New("onnx: model path is required")
	}
	if c.Dimensions <= 0 {
		return errors.New("onnx: dimensions must be positive")
	}
	return nil
}
