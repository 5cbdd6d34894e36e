package dsl

import (
	"sync"
	"testing"
)

func TestExpr_EvalFloat(t *testing.T) {
	row := map[string]any{
		"rating": 4.5,
		"year":   int64(1995),
		"genre":  "Comedy",
		"genres": []string{"Comedy", "Romance"},
	}
	tests := []struct {
		expr string
		want float64
	}{
		{"row.rating >= 4.0", 1},
		{"row.rating < 3.0", 0},
		{"row.year - 1990.0", 5},
		{"row.rating * 2.0", 9},
		{`row.genre == "Comedy" && row.rating > 4.0`, 1},
		{"double(size(row.genres))", 2},
		{`"Drama" in row.genres`, 0},
		{"size(row.genres)", 2},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			e, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			got, err := e.EvalFloat(row)
			if err != nil {
				t.Fatalf("EvalFloat() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("EvalFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpr_EvalBool(t *testing.T) {
	e, err := Compile("row.rating >= 4.0")
	if err != nil {
		t.Fatal(err)
	}
	ok, err := e.EvalBool(map[string]any{"rating": int64(5)})
	if err != nil || !ok {
		t.Errorf("EvalBool() = %v, %v", ok, err)
	}

	num, _ := Compile("row.rating + 1.0")
	if _, err := num.EvalBool(map[string]any{"rating": 1.0}); err == nil {
		t.Error("EvalBool() on numeric result should fail")
	}
}

func TestCompile_Errors(t *testing.T) {
	for _, expr := range []string{"", "row.rating >=", "unknown_var > 1"} {
		if _, err := Compile(expr); err == nil {
			t.Errorf("Compile(%q) should fail", expr)
		}
	}
}

func TestExpr_MissingColumn(t *testing.T) {
	e, err := Compile("row.missing > 1.0")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.EvalFloat(map[string]any{"rating": 1.0}); err == nil {
		t.Error("EvalFloat() with missing column should fail")
	}
}

func TestExpr_Concurrent(t *testing.T) {
	e, err := Compile("row.x * 2.0")
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := e.EvalFloat(map[string]any{"x": i})
			if err != nil || got != float64(2*i) {
				t.Errorf("EvalFloat(%d) = %v, %v", i, got, err)
			}
		}(i)
	}
	wg.Wait()
}
