package batch

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadSchemaYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	content := `
name: movielens
categorical: [userId, movieId]
ragged:
  - genres
labels: [rating]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSchemaYAML(path)
	if err != nil {
		t.Fatalf("LoadSchemaYAML() error = %v", err)
	}
	if s.Name != "movielens" || s.Label() != "rating" {
		t.Errorf("schema = %+v", s)
	}
	if want := []string{"userId", "movieId", "genres", "rating"}; !reflect.DeepEqual(s.Columns(), want) {
		t.Errorf("Columns() = %v, want %v", s.Columns(), want)
	}
}

func TestLoadSchemaJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	content := `{"name":"criteo","categorical":["C1","C2"],"continuous":["I1"],"labels":["label"]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSchemaJSON(path)
	if err != nil {
		t.Fatalf("LoadSchemaJSON() error = %v", err)
	}
	if !reflect.DeepEqual(s.Categorical, []string{"C1", "C2"}) || s.Label() != "label" {
		t.Errorf("schema = %+v", s)
	}
}

func TestParseSchemaYAML_Errors(t *testing.T) {
	if _, err := ParseSchemaYAML([]byte("labels: [a, b]")); err == nil {
		t.Error("expected error for two label columns")
	}
	if _, err := ParseSchemaYAML([]byte("name: [")); err == nil {
		t.Error("expected yaml parse error")
	}
	if _, err := LoadSchemaYAML(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
