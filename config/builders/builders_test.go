package builders

import (
	"reflect"
	"testing"

	"github.com/miguelusque/NVTabular/core"
	"github.com/miguelusque/NVTabular/feature"
)

func TestBuilders(t *testing.T) {
	tests := []struct {
		name    string
		build   func(map[string]any) (feature.Op, error)
		cfg     map[string]any
		wantErr bool
	}{
		{"split", BuildSplitMultiHot, map[string]any{"column": "genres"}, false},
		{"split without column", BuildSplitMultiHot, map[string]any{}, true},
		{"categorify", BuildCategorify, map[string]any{"columns": []any{"a", "b"}, "num_buckets": 4}, false},
		{"categorify single column", BuildCategorify, map[string]any{"column": "a"}, false},
		{"categorify without columns", BuildCategorify, map[string]any{}, true},
		{"normalize", BuildNormalize, map[string]any{"columns": []any{"x"}}, false},
		{"fill median", BuildFillMissing, map[string]any{"columns": []any{"x"}, "strategy": "median"}, false},
		{"fill bad strategy", BuildFillMissing, map[string]any{"columns": []any{"x"}, "strategy": "mode"}, true},
		{"derive", BuildDerive, map[string]any{"name": "y", "expr": "row.x * 2.0"}, false},
		{"derive bad expr", BuildDerive, map[string]any{"name": "y", "expr": "row.x *"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := tt.build(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && op == nil {
				t.Error("op is nil")
			}
		})
	}
}

func TestBuildCategorify_Options(t *testing.T) {
	op, err := BuildCategorify(map[string]any{"columns": []any{"genre"}, "num_buckets": 3})
	if err != nil {
		t.Fatal(err)
	}
	c := op.(*feature.Categorify)
	if err := c.Fit(core.NewColumns().SetStrings("genre", []string{"Comedy", "Drama", "Comedy"})); err != nil {
		t.Fatal(err)
	}
	if got := c.Cardinality("genre"); got != 6 {
		t.Errorf("Cardinality() = %d, want 6", got)
	}
}

func TestBuildFillMissing_Constant(t *testing.T) {
	op, err := BuildFillMissing(map[string]any{"column": "age", "value": 30})
	if err != nil {
		t.Fatal(err)
	}
	f := op.(*feature.FillMissing)
	if f.Strategy != feature.FillConstant || f.DefaultValue != 30 {
		t.Errorf("fill = %+v", f)
	}
	if !reflect.DeepEqual(f.Columns(), []string{"age"}) {
		t.Errorf("columns = %v", f.Columns())
	}
}
