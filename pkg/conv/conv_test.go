package conv

import (
	"math"
	"reflect"
	"testing"
)

func TestToInt64(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   int64
		wantOK bool
	}{
		{"int64", int64(7), 7, true},
		{"int32", int32(-3), -3, true},
		{"uint8", uint8(200), 200, true},
		{"whole float", 12.0, 12, true},
		{"fractional float", 1.5, 0, false},
		{"bool", true, 1, true},
		{"string", "12", 0, false},
		{"nil", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt64(tt.input)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("ToInt64(%v) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestToFloat64(t *testing.T) {
	if got, ok := ToFloat64(int16(4)); !ok || got != 4 {
		t.Errorf("ToFloat64(int16) = %v, %v", got, ok)
	}
	if got, ok := ToFloat64(nil); ok || !math.IsNaN(got) {
		t.Errorf("ToFloat64(nil) = %v, %v; want NaN, false", got, ok)
	}
	if _, ok := ToFloat64("x"); ok {
		t.Error("ToFloat64(string) should fail")
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		input any
		want  string
	}{
		{"Comedy", "Comedy"},
		{[]byte("Drama"), "Drama"},
		{int64(42), "42"},
		{2.5, "2.5"},
	}
	for _, tt := range tests {
		if got, ok := ToString(tt.input); !ok || got != tt.want {
			t.Errorf("ToString(%v) = %q, %v; want %q", tt.input, got, ok, tt.want)
		}
	}
	if _, ok := ToString(true); ok {
		t.Error("ToString(bool) should fail")
	}
}

func TestToInt64Slice(t *testing.T) {
	got, ok := ToInt64Slice([]any{int32(6), int64(9), 2.0})
	if !ok || !reflect.DeepEqual(got, []int64{6, 9, 2}) {
		t.Errorf("ToInt64Slice() = %v, %v", got, ok)
	}
	if got, ok := ToInt64Slice(nil); !ok || got == nil || len(got) != 0 {
		t.Errorf("ToInt64Slice(nil) = %#v, %v; want empty slice", got, ok)
	}
	if _, ok := ToInt64Slice([]any{"a"}); ok {
		t.Error("ToInt64Slice([]any{string}) should fail")
	}
}

func TestToStringSlice(t *testing.T) {
	got, ok := ToStringSlice([]any{"Comedy", []byte("Drama")})
	if !ok || !reflect.DeepEqual(got, []string{"Comedy", "Drama"}) {
		t.Errorf("ToStringSlice() = %v, %v", got, ok)
	}
	if _, ok := ToStringSlice(42); ok {
		t.Error("ToStringSlice(int) should fail")
	}
}

func TestConfigGet(t *testing.T) {
	cfg := map[string]any{
		"path":       "ratings.parquet",
		"batch_size": 1024,
		"port":       6565.0,
		"ratio":      1,
		"columns":    []any{"userId", "movieId"},
	}
	if got := ConfigGet(cfg, "path", ""); got != "ratings.parquet" {
		t.Errorf("ConfigGet(path) = %q", got)
	}
	if got := ConfigGet(cfg, "missing", "default"); got != "default" {
		t.Errorf("ConfigGet(missing) = %q", got)
	}
	if got := ConfigGetInt64(cfg, "batch_size", 0); got != 1024 {
		t.Errorf("ConfigGetInt64(batch_size) = %d", got)
	}
	if got := ConfigGetInt64(cfg, "port", 0); got != 6565 {
		t.Errorf("ConfigGetInt64(port) = %d", got)
	}
	if got := ConfigGetFloat64(cfg, "ratio", 0); got != 1 {
		t.Errorf("ConfigGetFloat64(ratio) = %v", got)
	}
	if got := ConfigGetStrings(cfg, "columns"); !reflect.DeepEqual(got, []string{"userId", "movieId"}) {
		t.Errorf("ConfigGetStrings(columns) = %v", got)
	}
	if got := ConfigGetInt64(nil, "x", 3); got != 3 {
		t.Errorf("ConfigGetInt64(nil) = %d", got)
	}
}
