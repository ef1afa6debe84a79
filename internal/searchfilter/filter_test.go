package searchfilter

import (
	"reflect"
	"testing"
)

func sampleRecords() []Record {
	return []Record{
		{"id": float64(1), "nombre": "Ana"},
		{"id": float64(2), "nombre": "Luis"},
	}
}

func TestFilterMatchesSubstringCaseInsensitive(t *testing.T) {
	got := Filter(sampleRecords(), "an", []string{"nombre"})
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %d", len(got))
	}
	if got[0]["nombre"] != "Ana" {
		t.Fatalf("expected Ana, got %v", got[0]["nombre"])
	}
}

func TestFilterEmptyQueryReturnsSourceUnchanged(t *testing.T) {
	source := sampleRecords()
	got := Filter(source, "", []string{"nombre"})
	if !reflect.DeepEqual(got, source) {
		t.Fatalf("empty query must return the source list unchanged")
	}
}

func TestFilterIsSubsetAndStable(t *testing.T) {
	source := []Record{
		{"id": float64(10), "direccion": "Calle Duarte 5"},
		{"id": float64(11), "direccion": "Av. Independencia"},
		{"id": float64(12), "direccion": "calle duarte 9"},
	}
	got := Filter(source, "duarte", []string{"direccion"})
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0]["id"] != float64(10) || got[1]["id"] != float64(12) {
		t.Fatalf("filter must preserve source order, got %v", got)
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	source := sampleRecords()
	once := Filter(source, "an", []string{"nombre"})
	twice := Filter(once, "an", []string{"nombre"})
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("filtering twice with the same query must not change the result")
	}
}

func TestFilterNilFieldsNeverPanic(t *testing.T) {
	source := []Record{
		{"nombre": nil, "apellido": "Pérez"},
		{"apellido": "García"},
		nil,
	}
	got := Filter(source, "pérez", []string{"nombre", "apellido"})
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %d", len(got))
	}
}

func TestFilterStringifiesNumericFields(t *testing.T) {
	source := []Record{
		{"id": float64(1042), "nombre": "Ana"},
		{"id": float64(7), "nombre": "Luis"},
	}
	got := Filter(source, "104", []string{"id"})
	if len(got) != 1 || got[0]["nombre"] != "Ana" {
		t.Fatalf("expected numeric id 1042 to match query 104, got %v", got)
	}
}

func TestFilterWhitespaceQueryIsNotTrimmed(t *testing.T) {
	source := []Record{
		{"nombre": "Ana Maria"},
		{"nombre": "Luis"},
	}
	// A whitespace-only query behaves like any other non-empty query.
	got := Filter(source, " ", []string{"nombre"})
	if len(got) != 1 || got[0]["nombre"] != "Ana Maria" {
		t.Fatalf("expected only the record containing a space, got %v", got)
	}
}
