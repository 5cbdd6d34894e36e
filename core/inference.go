package core

import "context"

// InferenceService 是推理服务的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（service）实现
//   - 请求/响应以命名张量表达，ragged 列拆成两个扁平张量传输
//
// 实现：
//   - service.TritonClient 实现此接口（KServe V2 / Open Inference Protocol）
type InferenceService interface {
	// Infer 发送一次推理请求
	Infer(ctx context.Context, req *InferRequest) (*InferResponse, error)

	// Health 健康检查
	Health(ctx context.Context) error

	// Close 关闭连接
	Close(ctx context.Context) error
}

// 张量数据类型（KServe V2 datatype）
const (
	DatatypeINT64 = "INT64"
	DatatypeINT32 = "INT32"
	DatatypeFP32  = "FP32"
	DatatypeFP64  = "FP64"
	DatatypeBYTES = "BYTES"
)

// Tensor 是一个命名的扁平张量。
// 整数张量使用 Ints，浮点张量使用 Floats，二者只填其一。
type Tensor struct {
	Name     string
	Shape    []int64
	Datatype string
	Ints     []int64
	Floats   []float64
}

// Len 返回张量元素个数
func (t *Tensor) Len() int {
	if t.Ints != nil {
		return len(t.Ints)
	}
	return len(t.Floats)
}

// InferRequest 推理请求
type InferRequest struct {
	// ID 请求 ID（可选，透传到响应）
	ID string

	// Inputs 输入张量
	Inputs []Tensor

	// Outputs 期望的输出张量名称（可选，为空则由服务端决定）
	Outputs []string

	// ModelName 模型名称（可选，覆盖客户端默认值）
	ModelName string

	// ModelVersion 模型版本（可选）
	ModelVersion string

	// Params 额外参数（可选）
	Params map[string]any
}

// InferResponse 推理响应
type InferResponse struct {
	// ID 请求 ID
	ID string

	// ModelName / ModelVersion 服务端返回的模型信息
	ModelName    string
	ModelVersion string

	// Outputs 输出张量
	Outputs []Tensor
}

// Output 按名称查找输出张量
func (r *InferResponse) Output(name string) (*Tensor, bool) {
	for i := range r.Outputs {
		if r.Outputs[i].Name == name {
			return &r.Outputs[i], true
		}
	}
	return nil, false
}
