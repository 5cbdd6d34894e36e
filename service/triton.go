package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/miguelusque/NVTabular/batch"
	"github.com/miguelusque/NVTabular/core"
	"github.com/miguelusque/NVTabular/pkg/logging"
	"github.com/miguelusque/NVTabular/pkg/metrics"
)

// TritonClient 是 KServe V2（Open Inference Protocol）的 REST 客户端，
// Triton Inference Server、KServe、Seldon MLServer 都实现这个协议。
//
//   - Infer: POST /v2/models/{model_name}[/versions/{version}]/infer
//   - 请求：{"inputs": [{"name": "movie_ids__values", "shape": [nnz], "datatype": "INT64", "data": [...]}]}
//   - 响应：{"outputs": [{"name": "...", "shape": [...], "datatype": "FP32", "data": [...]}]}
//   - Server Ready: GET /v2/health/ready；Model Ready: GET /v2/models/{model_name}[/versions/{version}]/ready
type TritonClient struct {
	// Endpoint 服务根地址，如 "http://localhost:8000"
	Endpoint string
	// ModelName 模型名称
	ModelName string
	// ModelVersion 模型版本（可选）
	ModelVersion string
	// Timeout 请求超时
	Timeout time.Duration
	// Auth 认证配置
	Auth *AuthConfig

	httpClient *http.Client
	log        zerolog.Logger
}

// TritonOption 配置 Triton 客户端
type TritonOption func(*TritonClient)

// WithTritonVersion 设置模型版本（路径会带 /versions/{version}）
func WithTritonVersion(version string) TritonOption {
	return func(c *TritonClient) {
		c.ModelVersion = version
	}
}

// WithTritonTimeout 设置超时
func WithTritonTimeout(timeout time.Duration) TritonOption {
	return func(c *TritonClient) {
		c.Timeout = timeout
		if c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithTritonAuth 设置认证
func WithTritonAuth(auth *AuthConfig) TritonOption {
	return func(c *TritonClient) {
		c.Auth = auth
	}
}

// WithTritonHTTPClient 设置自定义 HTTP 客户端
func WithTritonHTTPClient(client *http.Client) TritonOption {
	return func(c *TritonClient) {
		c.httpClient = client
	}
}

// NewTritonClient 创建客户端。endpoint 为根地址，modelName 为默认模型名。
func NewTritonClient(endpoint, modelName string, opts ...TritonOption) *TritonClient {
	c := &TritonClient{
		Endpoint:  endpoint,
		ModelName: modelName,
		Timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.Timeout}
	}
	c.log = logging.Component("triton").With().Str("model", modelName).Logger()
	return c
}

type v2Tensor struct {
	Name     string          `json:"name"`
	Shape    []int64         `json:"shape"`
	Datatype string          `json:"datatype"`
	Data     json.RawMessage `json:"data"`
}

type v2RequestOutput struct {
	Name string `json:"name"`
}

type v2InferRequest struct {
	ID         string            `json:"id,omitempty"`
	Inputs     []v2Tensor        `json:"inputs"`
	Outputs    []v2RequestOutput `json:"outputs,omitempty"`
	Parameters map[string]any    `json:"parameters,omitempty"`
}

type v2InferResponse struct {
	ID           string     `json:"id"`
	ModelName    string     `json:"model_name"`
	ModelVersion string     `json:"model_version"`
	Outputs      []v2Tensor `json:"outputs"`
}

type v2Error struct {
	Error string `json:"error"`
}

// Infer 实现 core.InferenceService
func (c *TritonClient) Infer(ctx context.Context, req *core.InferRequest) (*core.InferResponse, error) {
	if req == nil || len(req.Inputs) == 0 {
		return nil, core.Errorf(core.ModuleService, core.ErrorCodeInvalidInput, "inputs are required")
	}
	model := req.ModelName
	if model == "" {
		model = c.ModelName
	}
	version := req.ModelVersion
	if version == "" {
		version = c.ModelVersion
	}

	start := time.Now()
	resp, err := c.infer(ctx, model, version, req)
	elapsed := time.Since(start)
	metrics.RecordInfer(model, err, elapsed)
	if err != nil {
		c.log.Warn().Err(err).Str("request_id", req.ID).Dur("elapsed", elapsed).Msg("infer failed")
		return nil, err
	}
	c.log.Debug().Str("request_id", req.ID).Int("outputs", len(resp.Outputs)).Dur("elapsed", elapsed).Msg("infer ok")
	return resp, nil
}

func (c *TritonClient) infer(ctx context.Context, model, version string, req *core.InferRequest) (*core.InferResponse, error) {
	body := v2InferRequest{
		ID:         req.ID,
		Inputs:     make([]v2Tensor, 0, len(req.Inputs)),
		Parameters: req.Params,
	}
	for i := range req.Inputs {
		t, err := toV2Tensor(&req.Inputs[i])
		if err != nil {
			return nil, err
		}
		body.Inputs = append(body.Inputs, t)
	}
	for _, name := range req.Outputs {
		body.Outputs = append(body.Outputs, v2RequestOutput{Name: name})
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, core.Errorf(core.ModuleService, core.ErrorCodeInternalError, "marshal request: %v", err)
	}

	respBody, err := c.do(ctx, http.MethodPost, c.modelPath(model, version)+"/infer", jsonData)
	if err != nil {
		return nil, err
	}

	var out v2InferResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, core.Errorf(core.ModuleService, core.ErrorCodeInternalError, "parse response: %v", err)
	}
	resp := &core.InferResponse{
		ID:           out.ID,
		ModelName:    out.ModelName,
		ModelVersion: out.ModelVersion,
		Outputs:      make([]core.Tensor, 0, len(out.Outputs)),
	}
	for i := range out.Outputs {
		t, err := fromV2Tensor(&out.Outputs[i])
		if err != nil {
			return nil, err
		}
		resp.Outputs = append(resp.Outputs, t)
	}
	return resp, nil
}

// InferBatch 把 Batch 编码成输入张量后发送
func (c *TritonClient) InferBatch(ctx context.Context, b *batch.Batch, opts TensorOptions, outputs ...string) (*core.InferResponse, error) {
	inputs, err := EncodeBatch(b, opts)
	if err != nil {
		return nil, err
	}
	return c.Infer(ctx, &core.InferRequest{Inputs: inputs, Outputs: outputs})
}

// Health 实现 core.InferenceService：GET /v2/health/ready
func (c *TritonClient) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, c.Endpoint+"/v2/health/ready", nil)
	return err
}

// ModelReady 检查默认模型是否就绪
func (c *TritonClient) ModelReady(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, c.modelPath(c.ModelName, c.ModelVersion)+"/ready", nil)
	return err
}

// Close 实现 core.InferenceService
func (c *TritonClient) Close(ctx context.Context) error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *TritonClient) modelPath(model, version string) string {
	path := fmt.Sprintf("%s/v2/models/%s", c.Endpoint, model)
	if version != "" {
		path = fmt.Sprintf("%s/versions/%s", path, version)
	}
	return path
}

func (c *TritonClient) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, core.Errorf(core.ModuleService, core.ErrorCodeInvalidInput, "create request: %v", err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	c.addAuth(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.Errorf(core.ModuleService, core.ErrorCodeUnavailable, "%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.Errorf(core.ModuleService, core.ErrorCodeUnavailable, "read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		var e v2Error
		if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		code := core.ErrorCodeUnavailable
		switch resp.StatusCode {
		case http.StatusBadRequest:
			code = core.ErrorCodeInvalidInput
		case http.StatusNotFound:
			code = core.ErrorCodeNotFound
		}
		return nil, core.Errorf(core.ModuleService, code, "status=%d: %s", resp.StatusCode, msg)
	}
	return respBody, nil
}

func (c *TritonClient) addAuth(req *http.Request) {
	if c.Auth == nil {
		return
	}
	switch c.Auth.Type {
	case "basic":
		req.SetBasicAuth(c.Auth.Username, c.Auth.Password)
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+c.Auth.Token)
	case "api_key":
		req.Header.Set("X-API-Key", c.Auth.APIKey)
	}
}

func toV2Tensor(t *core.Tensor) (v2Tensor, error) {
	var (
		data []byte
		err  error
	)
	switch t.Datatype {
	case core.DatatypeINT64, core.DatatypeINT32:
		data, err = json.Marshal(nonNil(t.Ints))
	case core.DatatypeFP32, core.DatatypeFP64:
		data, err = json.Marshal(nonNil(t.Floats))
	default:
		return v2Tensor{}, core.Errorf(core.ModuleService, core.ErrorCodeNotSupported, "tensor %q: unsupported datatype %q", t.Name, t.Datatype)
	}
	if err != nil {
		return v2Tensor{}, core.Errorf(core.ModuleService, core.ErrorCodeInternalError, "tensor %q: %v", t.Name, err)
	}
	return v2Tensor{Name: t.Name, Shape: t.Shape, Datatype: t.Datatype, Data: data}, nil
}

func fromV2Tensor(t *v2Tensor) (core.Tensor, error) {
	out := core.Tensor{Name: t.Name, Shape: t.Shape, Datatype: t.Datatype}
	var err error
	switch t.Datatype {
	case core.DatatypeINT64, core.DatatypeINT32:
		out.Ints = []int64{}
		if len(t.Data) > 0 {
			err = json.Unmarshal(t.Data, &out.Ints)
		}
	case core.DatatypeFP32, core.DatatypeFP64:
		out.Floats = []float64{}
		if len(t.Data) > 0 {
			err = json.Unmarshal(t.Data, &out.Floats)
		}
	default:
		return out, core.Errorf(core.ModuleService, core.ErrorCodeNotSupported, "output %q: unsupported datatype %q", t.Name, t.Datatype)
	}
	if err != nil {
		return out, core.Errorf(core.ModuleService, core.ErrorCodeInternalError, "output %q: %v", t.Name, err)
	}
	return out, nil
}

// nonNil 保证空张量编码成 [] 而不是 null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

var _ core.InferenceService = (*TritonClient)(nil)
