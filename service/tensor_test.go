package service

import (
	"reflect"
	"testing"

	"github.com/miguelusque/NVTabular/batch"
	"github.com/miguelusque/NVTabular/core"
)

func testSchema() batch.Schema {
	return batch.Schema{
		Name:        "movielens",
		Categorical: []string{"userId", "movieId"},
		Ragged:      []string{"genres"},
		Continuous:  []string{"age"},
		Labels:      []string{"rating"},
	}
}

func testBatch(t *testing.T) *batch.Batch {
	t.Helper()
	a, err := batch.NewAssembler(testSchema())
	if err != nil {
		t.Fatalf("NewAssembler() error = %v", err)
	}
	b, err := a.Assemble(core.NewColumns().
		SetInts("userId", []int64{1, 2, 3}).
		SetInts("movieId", []int64{10, 20, 30}).
		SetIntLists("genres", [][]int64{{6, 9}, {}, {18, 9, 16}}).
		SetFloats("age", []float64{0.5, -1.0, 2.0}).
		SetFloats("rating", []float64{1, 0, 1}))
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	return b
}

func tensorByName(tensors []core.Tensor, name string) *core.Tensor {
	for i := range tensors {
		if tensors[i].Name == name {
			return &tensors[i]
		}
	}
	return nil
}

func TestEncodeBatch(t *testing.T) {
	b := testBatch(t)

	tests := []struct {
		name       string
		opts       TensorOptions
		wantNames  []string
		second     string
		wantSecond []int64
	}{
		{
			name:       "nnzs by default",
			opts:       TensorOptions{},
			wantNames:  []string{"movieId", "userId", "genres__values", "genres__nnzs", "age"},
			second:     "genres__nnzs",
			wantSecond: []int64{2, 0, 3},
		},
		{
			name:       "offsets with label",
			opts:       TensorOptions{Ragged: RaggedOffsets, IncludeLabel: true},
			wantNames:  []string{"movieId", "userId", "genres__values", "genres__offsets", "age", "rating"},
			second:     "genres__offsets",
			wantSecond: []int64{0, 2, 2, 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensors, err := EncodeBatch(b, tt.opts)
			if err != nil {
				t.Fatalf("EncodeBatch() error = %v", err)
			}
			names := make([]string, len(tensors))
			for i, tensor := range tensors {
				names[i] = tensor.Name
			}
			if !reflect.DeepEqual(names, tt.wantNames) {
				t.Errorf("names = %v, want %v", names, tt.wantNames)
			}

			values := tensorByName(tensors, "genres__values")
			if !reflect.DeepEqual(values.Ints, []int64{6, 9, 18, 9, 16}) || !reflect.DeepEqual(values.Shape, []int64{5}) {
				t.Errorf("values = %v shape %v", values.Ints, values.Shape)
			}
			second := tensorByName(tensors, tt.second)
			if !reflect.DeepEqual(second.Ints, tt.wantSecond) {
				t.Errorf("%s = %v, want %v", tt.second, second.Ints, tt.wantSecond)
			}

			user := tensorByName(tensors, "userId")
			if user.Datatype != core.DatatypeINT64 || !reflect.DeepEqual(user.Shape, []int64{3, 1}) {
				t.Errorf("userId tensor = %+v", user)
			}
			age := tensorByName(tensors, "age")
			if age.Datatype != core.DatatypeFP32 || !reflect.DeepEqual(age.Floats, []float64{0.5, -1.0, 2.0}) {
				t.Errorf("age tensor = %+v", age)
			}
		})
	}
}

func TestEncodeBatch_Invalid(t *testing.T) {
	if _, err := EncodeBatch(nil, TensorOptions{}); !core.IsInvalidInput(err) {
		t.Errorf("nil batch error = %v", err)
	}
	if _, err := EncodeBatch(testBatch(t), TensorOptions{Ragged: "csr"}); !core.IsInvalidInput(err) {
		t.Errorf("unknown encoding error = %v", err)
	}
}

func TestDecodeTensors_RoundTrip(t *testing.T) {
	b := testBatch(t)
	for _, enc := range []RaggedEncoding{RaggedLengths, RaggedOffsets} {
		t.Run(string(enc), func(t *testing.T) {
			tensors, err := EncodeBatch(b, TensorOptions{Ragged: enc, IncludeLabel: true})
			if err != nil {
				t.Fatal(err)
			}
			// 解码时不指定编码，自动识别
			got, err := DecodeTensors(tensors, testSchema(), TensorOptions{})
			if err != nil {
				t.Fatalf("DecodeTensors() error = %v", err)
			}
			if !reflect.DeepEqual(got, b) {
				t.Errorf("DecodeTensors() = %+v, want %+v", got, b)
			}
		})
	}
}

func TestDecodeTensors_WithoutLabel(t *testing.T) {
	tensors, err := EncodeBatch(testBatch(t), TensorOptions{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeTensors(tensors, testSchema(), TensorOptions{})
	if err != nil {
		t.Fatalf("DecodeTensors() error = %v", err)
	}
	if got.LabelName != "" || got.Labels != nil || got.Size != 3 {
		t.Errorf("batch = %+v", got)
	}
	if !reflect.DeepEqual(got.Ragged["genres"].Row(2), []int64{18, 9, 16}) {
		t.Errorf("genres row 2 = %v", got.Ragged["genres"].Row(2))
	}
}

func TestDecodeTensors_Errors(t *testing.T) {
	encode := func(t *testing.T, opts TensorOptions) []core.Tensor {
		tensors, err := EncodeBatch(testBatch(t), opts)
		if err != nil {
			t.Fatal(err)
		}
		return tensors
	}

	tests := []struct {
		name   string
		mutate func([]core.Tensor) []core.Tensor
		opts   TensorOptions
		check  func(error) bool
	}{
		{
			name: "missing categorical",
			mutate: func(ts []core.Tensor) []core.Tensor {
				return ts[1:]
			},
			check: core.IsSchemaMismatch,
		},
		{
			name: "lengths do not sum to nnz",
			mutate: func(ts []core.Tensor) []core.Tensor {
				tensorByName(ts, "genres__nnzs").Ints = []int64{2, 1, 3}
				return ts
			},
			check: core.IsMalformedOffsets,
		},
		{
			name: "negative length",
			mutate: func(ts []core.Tensor) []core.Tensor {
				tensorByName(ts, "genres__nnzs").Ints = []int64{3, -1, 3}
				return ts
			},
			check: core.IsMalformedOffsets,
		},
		{
			name: "row count disagreement",
			mutate: func(ts []core.Tensor) []core.Tensor {
				tensorByName(ts, "age").Floats = []float64{1, 2}
				return ts
			},
			check: core.IsSchemaMismatch,
		},
		{
			name: "wrong datatype",
			mutate: func(ts []core.Tensor) []core.Tensor {
				u := tensorByName(ts, "userId")
				u.Datatype = core.DatatypeFP32
				return ts
			},
			check: core.IsSchemaMismatch,
		},
		{
			name: "offsets required but nnzs sent",
			mutate: func(ts []core.Tensor) []core.Tensor {
				return ts
			},
			opts:  TensorOptions{Ragged: RaggedOffsets},
			check: core.IsSchemaMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensors := tt.mutate(encode(t, TensorOptions{}))
			_, err := DecodeTensors(tensors, testSchema(), tt.opts)
			if !tt.check(err) {
				t.Errorf("DecodeTensors() error = %v (code %s)", err, core.ErrorCode(err))
			}
		})
	}
}

func TestDecodeTensors_BadOffsets(t *testing.T) {
	tensors, err := EncodeBatch(testBatch(t), TensorOptions{Ragged: RaggedOffsets})
	if err != nil {
		t.Fatal(err)
	}
	tensorByName(tensors, "genres__offsets").Ints = []int64{0, 3, 2, 5}
	if _, err := DecodeTensors(tensors, testSchema(), TensorOptions{}); !core.IsMalformedOffsets(err) {
		t.Errorf("DecodeTensors() error = %v", err)
	}
}
