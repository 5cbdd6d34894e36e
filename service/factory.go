package service

import (
	"context"
	"strings"
	"time"

	"github.com/miguelusque/NVTabular/core"
)

// NewInferenceService 根据配置创建推理服务实例（工厂方法）。
func NewInferenceService(config *ServiceConfig) (core.InferenceService, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	switch config.Type {
	case ServiceTypeTriton, ServiceTypeKServe, "":
		opts := []TritonOption{
			WithTritonTimeout(timeout),
		}
		if config.ModelVersion != "" {
			opts = append(opts, WithTritonVersion(config.ModelVersion))
		}
		if config.Auth != nil {
			opts = append(opts, WithTritonAuth(config.Auth))
		}
		return NewTritonClient(strings.TrimRight(config.Endpoint, "/"), config.ModelName, opts...), nil

	default:
		return nil, core.Errorf(core.ModuleService, core.ErrorCodeNotSupported, "unsupported service type: %s", config.Type)
	}
}

// ValidateConfig 验证服务配置
func ValidateConfig(config *ServiceConfig) error {
	if config == nil {
		return core.Errorf(core.ModuleService, core.ErrorCodeInvalidInput, "config is required")
	}
	if config.Endpoint == "" {
		return core.Errorf(core.ModuleService, core.ErrorCodeInvalidInput, "endpoint is required")
	}
	if !hasHTTPPrefix(config.Endpoint) {
		return core.Errorf(core.ModuleService, core.ErrorCodeInvalidInput, "endpoint %q must start with http:// or https://", config.Endpoint)
	}
	if config.ModelName == "" {
		return core.Errorf(core.ModuleService, core.ErrorCodeInvalidInput, "model name is required")
	}
	if config.Timeout < 0 {
		return core.Errorf(core.ModuleService, core.ErrorCodeInvalidInput, "timeout must be >= 0")
	}
	switch config.Ragged {
	case "", RaggedLengths, RaggedOffsets:
	default:
		return core.Errorf(core.ModuleService, core.ErrorCodeInvalidInput, "unknown ragged encoding %q", config.Ragged)
	}
	if config.Auth != nil {
		switch config.Auth.Type {
		case "basic", "bearer", "api_key":
		default:
			return core.Errorf(core.ModuleService, core.ErrorCodeInvalidInput, "unknown auth type %q", config.Auth.Type)
		}
	}
	return nil
}

func hasHTTPPrefix(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// TestConnection 测试服务连接
func TestConnection(ctx context.Context, svc core.InferenceService) error {
	if svc == nil {
		return core.Errorf(core.ModuleService, core.ErrorCodeInvalidInput, "service is nil")
	}
	return svc.Health(ctx)
}
