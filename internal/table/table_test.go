package table

import (
	"testing"
)

func TestTable_AddAndLookup(t *testing.T) {
	tbl := New(3)

	if err := tbl.AddColumn("a", []Value{Num(1), Num(2), Num(3)}); err != nil {
		t.Fatalf("failed to add column: %v", err)
	}
	if err := tbl.AddColumn("b", NullColumn(3)); err != nil {
		t.Fatalf("failed to add column: %v", err)
	}

	if tbl.Len() != 3 {
		t.Errorf("expected 3 rows, got %d", tbl.Len())
	}
	if got := tbl.Cell(1, "a"); got.IsNull() || got.Int() != 2 {
		t.Errorf("expected cell (1, a) = 2, got %+v", got)
	}
	if got := tbl.Cell(0, "b"); !got.IsNull() {
		t.Errorf("expected null cell, got %+v", got)
	}
	if got := tbl.Cell(0, "missing"); !got.IsNull() {
		t.Errorf("expected null for missing column, got %+v", got)
	}

	cols := tbl.Columns()
	if len(cols) != 2 || cols[0] != "a" || cols[1] != "b" {
		t.Errorf("expected column order [a b], got %v", cols)
	}
}

func TestTable_AddColumn_LengthMismatch(t *testing.T) {
	tbl := New(2)
	if err := tbl.AddColumn("a", []Value{Num(1)}); err == nil {
		t.Error("expected error for length mismatch")
	}
}

func TestTable_AddColumn_Duplicate(t *testing.T) {
	tbl := New(1)
	if err := tbl.AddColumn("a", []Value{Num(1)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tbl.AddColumn("a", []Value{Num(2)}); err == nil {
		t.Error("expected error for duplicate column")
	}
}

func TestBuilder(t *testing.T) {
	b := NewBuilder("x", "y")
	if err := b.Append(Num(1), Null); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := b.Append(Num(3), Num(4)); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := b.Append(Num(1)); err == nil {
		t.Error("expected error for short row")
	}

	tbl := b.Table()
	if tbl.Len() != 2 {
		t.Errorf("expected 2 rows, got %d", tbl.Len())
	}
	if got := tbl.Cell(0, "y"); !got.IsNull() {
		t.Errorf("expected null, got %+v", got)
	}
	if got := tbl.Cell(1, "x"); got.Int() != 3 {
		t.Errorf("expected 3, got %+v", got)
	}
}

func TestBuilder_Empty(t *testing.T) {
	tbl := NewBuilder("x").Table()
	if tbl.Len() != 0 {
		t.Errorf("expected empty table, got %d rows", tbl.Len())
	}
	if !tbl.HasColumn("x") {
		t.Error("expected column x to exist")
	}
}
