// Package service 实现推理服务客户端：Batch 与 KServe V2 张量之间的编解码、Triton REST 客户端及其工厂。
package service

// ServiceType 服务类型
type ServiceType string

const (
	ServiceTypeTriton ServiceType = "triton" // Triton Inference Server
	ServiceTypeKServe ServiceType = "kserve" // KServe V2 兼容服务（协议与 Triton 相同）
)

// ServiceConfig 服务配置
type ServiceConfig struct {
	// Type 服务类型
	Type ServiceType `yaml:"type" json:"type"`

	// Endpoint 服务根地址，如 "http://localhost:8000"
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// ModelName 模型名称
	ModelName string `yaml:"model_name" json:"model_name"`

	// ModelVersion 模型版本
	ModelVersion string `yaml:"model_version" json:"model_version"`

	// Timeout 超时时间（秒）
	Timeout int `yaml:"timeout" json:"timeout"`

	// Ragged ragged 列的线上编码："nnzs"（默认）或 "offsets"
	Ragged RaggedEncoding `yaml:"ragged" json:"ragged"`

	// Auth 认证信息（可选）
	Auth *AuthConfig `yaml:"auth" json:"auth"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	Type     string `yaml:"type" json:"type"` // "basic", "bearer", "api_key"
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	Token    string `yaml:"token" json:"token"`
	APIKey   string `yaml:"api_key" json:"api_key"`
}
