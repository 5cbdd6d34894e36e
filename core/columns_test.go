package core

import (
	"reflect"
	"testing"
)

func ratings() *Columns {
	return NewColumns().
		SetInts("userId", []int64{1, 2, 3}).
		SetFloats("rating", []float64{4, 3.5, 5}).
		SetStrings("title", []string{"Heat", "Up", "Alien"}).
		SetIntLists("genres", [][]int64{{6, 9}, {}, {18}}).
		SetStringLists("tags", [][]string{{"a"}, {"b", "c"}, {}})
}

func TestColumns_KindAndNames(t *testing.T) {
	c := ratings()
	tests := map[string]ColumnKind{
		"userId": KindInt,
		"rating": KindFloat,
		"title":  KindString,
		"genres": KindIntList,
		"tags":   KindStringList,
	}
	for name, want := range tests {
		if got, ok := c.Kind(name); !ok || got != want {
			t.Errorf("Kind(%s) = %v, %v", name, got, ok)
		}
	}
	if _, ok := c.Kind("missing"); ok {
		t.Error("Kind(missing) should not be found")
	}
	want := []string{"genres", "rating", "tags", "title", "userId"}
	if got := c.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v", got)
	}

	// 同名列换类型时旧列被移除
	c.SetFloats("userId", []float64{1, 2, 3})
	if kind, _ := c.Kind("userId"); kind != KindFloat || c.Ints["userId"] != nil {
		t.Errorf("SetFloats did not replace userId")
	}
}

func TestColumns_Len(t *testing.T) {
	if n, err := ratings().Len(); err != nil || n != 3 {
		t.Errorf("Len() = %d, %v", n, err)
	}
	if n, err := NewColumns().Len(); err != nil || n != 0 {
		t.Errorf("empty Len() = %d, %v", n, err)
	}
	bad := ratings().SetInts("movieId", []int64{1})
	if _, err := bad.Len(); !IsSchemaMismatch(err) {
		t.Errorf("Len() error = %v", err)
	}
}

func TestColumns_SliceCopies(t *testing.T) {
	c := ratings()
	s, err := c.Slice(1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(s.IntLists["genres"], [][]int64{{}, {18}}) {
		t.Errorf("genres = %v", s.IntLists["genres"])
	}
	s.IntLists["genres"][1][0] = 99
	if c.IntLists["genres"][2][0] != 18 {
		t.Error("Slice() shares row memory")
	}
	if _, err := c.Slice(2, 5); !IsInvalidInput(err) {
		t.Errorf("Slice past end error = %v", err)
	}
}

func TestColumns_Value(t *testing.T) {
	c := ratings()
	v, err := c.Value("title", 2)
	if err != nil || v != "Alien" {
		t.Errorf("Value() = %v, %v", v, err)
	}
	if _, err := c.Value("title", 3); err == nil {
		t.Error("Value() out of range should fail")
	}
	if _, err := c.Value("nope", 0); !IsSchemaMismatch(err) {
		t.Errorf("Value(nope) error = %v", err)
	}
}

func TestConcat(t *testing.T) {
	a, _ := ratings().Slice(0, 1)
	b, _ := ratings().Slice(1, 3)
	got, err := Concat(a, b)
	if err != nil {
		t.Fatalf("Concat() error = %v", err)
	}
	if !reflect.DeepEqual(got, ratings()) {
		t.Errorf("Concat() = %+v", got)
	}

	if empty, err := Concat(); err != nil || len(empty.Names()) != 0 {
		t.Errorf("Concat() of nothing = %v, %v", empty, err)
	}

	missing := NewColumns().SetFloats("rating", []float64{1, 2, 3})
	if _, err := Concat(a, missing); !IsSchemaMismatch(err) {
		t.Errorf("Concat() with different columns error = %v", err)
	}
	kind := ratings().SetFloats("userId", []float64{1, 2, 3})
	if _, err := Concat(a, kind); !IsSchemaMismatch(err) {
		t.Errorf("Concat() with different kinds error = %v", err)
	}
}
