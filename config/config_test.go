package config_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/miguelusque/NVTabular/config"
	_ "github.com/miguelusque/NVTabular/config/builders"
	"github.com/miguelusque/NVTabular/core"
	"github.com/miguelusque/NVTabular/dataset"
	"github.com/miguelusque/NVTabular/service"
)

const ratingsYAML = `
dataset:
  type: ratings_memory
  cache: true
schema:
  name: movielens
  categorical: [userId]
  ragged: [genres]
  continuous: [rating]
  labels: [liked]
loader:
  batch_size: 2
  workers: 2
  prefetch: 1
transforms:
  - type: derive
    config: {name: liked, expr: "row.rating >= 4.0"}
  - type: split_multihot
    config: {column: genres, sep: "|"}
  - type: categorify
    config: {columns: [userId, genres]}
  - type: normalize
    config: {columns: [rating]}
serving:
  type: triton
  endpoint: http://localhost:8000
  model_name: dlrm
  ragged: offsets
store:
  type: memory
  prefix: "test:"
logging:
  level: warn
`

func init() {
	dataset.Register("ratings_memory", func(cfg map[string]any) (core.Source, error) {
		src, err := dataset.NewMemorySource("ratings", ratingsColumns())
		if err != nil {
			return nil, err
		}
		return src, nil
	})
}

func ratingsColumns() *core.Columns {
	return core.NewColumns().
		SetStrings("userId", []string{"u1", "u2", "u1", "u3", "u4"}).
		SetStrings("genres", []string{"Comedy|Drama", "Comedy", "", "Drama|Comedy|Romance", "Horror"}).
		SetFloats("rating", []float64{5, 3, 4, 2, 1})
}

func TestParseYAML(t *testing.T) {
	cfg, err := config.ParseYAML([]byte(ratingsYAML))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	if cfg.Dataset.Type != "ratings_memory" || !cfg.Dataset.Cache || cfg.Loader.BatchSize != 2 || cfg.Loader.Workers != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Schema.Ragged, []string{"genres"}) || cfg.Schema.Label() != "liked" {
		t.Errorf("schema = %+v", cfg.Schema)
	}
	if len(cfg.Transforms) != 4 || cfg.Transforms[2].Type != "categorify" {
		t.Errorf("transforms = %+v", cfg.Transforms)
	}
	if cfg.Serving.Ragged != service.RaggedOffsets || cfg.TensorOptions().Ragged != service.RaggedOffsets {
		t.Errorf("serving = %+v", cfg.Serving)
	}
	if cfg.Store.Prefix != "test:" || cfg.Logging.Level != "warn" {
		t.Errorf("store = %+v logging = %+v", cfg.Store, cfg.Logging)
	}
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.json")
	data := `{
		"dataset": {"type": "parquet", "config": {"path": "ratings.parquet"}},
		"schema": {"categorical": ["movieId"], "ragged": ["genres"]},
		"loader": {"batch_size": 512, "shuffle": true, "seed": 7}
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Dataset.Config["path"] != "ratings.parquet" || !cfg.Loader.Shuffle || cfg.Loader.Seed != 7 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Serving != nil || cfg.Store != nil {
		t.Errorf("optional sections should be nil")
	}
	if _, err := cfg.BuildInferenceService(); !core.IsNotFound(err) {
		t.Errorf("BuildInferenceService() error = %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); !core.IsNotFound(err) {
		t.Errorf("missing file error = %v", err)
	}

	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "dataset: [unclosed"},
		{"no dataset type", "schema: {categorical: [a]}"},
		{"empty schema", "dataset: {type: csv}"},
		{"two labels", "dataset: {type: csv}\nschema: {categorical: [a], labels: [x, y]}"},
		{"negative batch", "dataset: {type: csv}\nschema: {categorical: [a]}\nloader: {batch_size: -1}"},
		{"transform without type", "dataset: {type: csv}\nschema: {categorical: [a]}\ntransforms: [{config: {}}]"},
		{"bad serving", "dataset: {type: csv}\nschema: {categorical: [a]}\nserving: {endpoint: localhost:8000, model_name: m}"},
		{"store without type", "dataset: {type: csv}\nschema: {categorical: [a]}\nstore: {prefix: x}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := config.ParseYAML([]byte(tt.yaml)); err == nil {
				t.Error("ParseYAML() should fail")
			}
		})
	}
}

func TestBuildTransforms_Unsupported(t *testing.T) {
	cfg := &config.Config{Transforms: []config.TransformConfig{{Type: "bucketize"}}}
	if _, err := cfg.BuildTransforms(); !core.IsNotSupported(err) {
		t.Errorf("BuildTransforms() error = %v", err)
	}

	bad := &config.Config{Transforms: []config.TransformConfig{{Type: "derive", Config: map[string]any{"name": "x"}}}}
	if _, err := bad.BuildTransforms(); !core.IsInvalidInput(err) {
		t.Errorf("derive without expr error = %v", err)
	}
}

func TestSupportedTypes(t *testing.T) {
	want := []string{"categorify", "derive", "fill_missing", "normalize", "split_multihot"}
	if got := config.SupportedTypes(); !reflect.DeepEqual(got, want) {
		t.Errorf("SupportedTypes() = %v, want %v", got, want)
	}
}

func TestConfig_EndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg, err := config.ParseYAML([]byte(ratingsYAML))
	if err != nil {
		t.Fatal(err)
	}
	cfg.InitLogging()

	src, err := cfg.BuildSource(ctx)
	if err != nil {
		t.Fatalf("BuildSource() error = %v", err)
	}
	defer src.Close()

	st, err := cfg.BuildStore()
	if err != nil {
		t.Fatalf("BuildStore() error = %v", err)
	}
	defer st.Close()

	wf, err := cfg.BuildTransforms()
	if err != nil {
		t.Fatalf("BuildTransforms() error = %v", err)
	}
	if err := cfg.PrepareWorkflow(ctx, src, wf, st); err != nil {
		t.Fatalf("PrepareWorkflow() error = %v", err)
	}

	vocab, err := st.HGetAll(ctx, "test:vocab:genres")
	if err != nil {
		t.Fatalf("vocabulary not persisted: %v", err)
	}
	if string(vocab["Comedy"]) != "1" || string(vocab["Drama"]) != "2" || string(vocab["Romance"]) != "4" {
		t.Errorf("persisted genres vocabulary = %v", vocab)
	}

	loader, err := cfg.BuildLoader(src, wf)
	if err != nil {
		t.Fatalf("BuildLoader() error = %v", err)
	}
	batches, err := loader.Collect(ctx)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(batches) != 3 || batches[2].Size != 1 {
		t.Fatalf("got %d batches", len(batches))
	}

	first := batches[0]
	if !reflect.DeepEqual(first.Categorical["userId"], []int64{1, 2}) {
		t.Errorf("userId ids = %v", first.Categorical["userId"])
	}
	if !reflect.DeepEqual(first.Ragged["genres"].Rows(), [][]int64{{1, 2}, {1}}) {
		t.Errorf("genres rows = %v", first.Ragged["genres"].Rows())
	}
	if !reflect.DeepEqual(first.Labels, []float64{1, 0}) {
		t.Errorf("labels = %v", first.Labels)
	}
	if v := first.Continuous[0][0]; v <= 0 {
		t.Errorf("normalized rating of a 5-star row = %v", v)
	}

	// 第二个 Workflow 直接从 store 恢复，不需要再扫描数据
	restored, err := cfg.BuildTransforms()
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.PrepareWorkflow(ctx, emptySource{}, restored, st); err != nil {
		t.Fatalf("PrepareWorkflow() from store error = %v", err)
	}
	out, err := restored.Transform(ratingsColumns())
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if !reflect.DeepEqual(out.IntLists["genres"][3], []int64{2, 1, 4}) {
		t.Errorf("restored genres row = %v", out.IntLists["genres"][3])
	}

	svc, err := cfg.BuildInferenceService()
	if err != nil {
		t.Fatalf("BuildInferenceService() error = %v", err)
	}
	if _, ok := svc.(*service.TritonClient); !ok {
		t.Errorf("service = %T", svc)
	}
}

// emptySource 读到任何数据都算失败，用来证明状态来自 store
type emptySource struct{}

func (emptySource) Name() string                            { return "empty" }
func (emptySource) NumRows(ctx context.Context) (int, error) { return 0, nil }
func (emptySource) Read(ctx context.Context, offset, limit int) (*core.Columns, error) {
	return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeInternalError, "unexpected read")
}
func (emptySource) Close() error { return nil }

func TestLoad_MovielensExample(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "examples", "movielens", "movielens.example.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	exprs := make(map[string]string)
	for _, tr := range cfg.Transforms {
		if tr.Type == "derive" {
			name, _ := tr.Config["name"].(string)
			exprs[name], _ = tr.Config["expr"].(string)
		}
	}
	label := cfg.Schema.Label()
	if !strings.Contains(exprs[label], "row.rating") {
		t.Fatalf("label %q expr = %q", label, exprs[label])
	}
	// 标签由 rating 派生，模型输入不能再包含 rating
	for _, name := range cfg.Schema.Columns() {
		if name == label {
			continue
		}
		if name == "rating" || strings.Contains(exprs[name], "row.rating") {
			t.Errorf("input column %q is derived from the label source", name)
		}
	}
}
