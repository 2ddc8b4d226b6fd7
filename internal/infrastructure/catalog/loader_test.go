package catalog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadCSVWithRussianHeader(t *testing.T) {
	path := writeFile(t, "catalog.csv", "Товар,Цена,Категория\n"+
		"Короб 200x200,1 500 руб.,кабеленесущие системы\n"+
		"Крышка короба,400,\n"+
		",999,пустая строка\n")

	items, err := NewFileSource(path, quietLogger()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(items), items)
	}
	if items[0].ID != 1 || items[1].ID != 2 {
		t.Fatalf("ids must be sequential from 1: %+v", items)
	}
	if items[0].Cost != 1500 {
		t.Fatalf("Cost = %v, want 1500", items[0].Cost)
	}
	if items[0].NormalizedName != "короб 200x200" {
		t.Fatalf("NormalizedName = %q", items[0].NormalizedName)
	}
	if items[0].Category != "кабеленесущие системы" {
		t.Fatalf("Category = %q", items[0].Category)
	}
}

func TestLoadCSVWithoutHeader(t *testing.T) {
	path := writeFile(t, "catalog.csv", "Короб 200x200,1500,\nКрышка короба,400,\n")

	items, err := NewFileSource(path, quietLogger()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("headerless first row must be kept as data: %+v", items)
	}
	if items[0].Name != "Короб 200x200" || items[0].Cost != 1500 {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
}

func TestLoadCSVStripsGluedPrice(t *testing.T) {
	path := writeFile(t, "catalog.csv", "Товар,Цена\nКороб 100x100 - 61263 руб.,61263\n")

	items, err := NewFileSource(path, quietLogger()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(items) != 1 || items[0].Name != "Короб 100x100" {
		t.Fatalf("glued price not stripped: %+v", items)
	}
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	_ = book.SetCellValue(sheet, "A1", "Название")
	_ = book.SetCellValue(sheet, "B1", "Стоимость")
	_ = book.SetCellValue(sheet, "A2", "Лоток перфорированный")
	_ = book.SetCellValue(sheet, "B2", "2 450 руб.")
	if err := book.SaveAs(path); err != nil {
		t.Fatalf("save xlsx fixture: %v", err)
	}

	items, err := NewFileSource(path, quietLogger()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1: %+v", len(items), items)
	}
	if items[0].Name != "Лоток перфорированный" || items[0].Cost != 2450 {
		t.Fatalf("unexpected item: %+v", items[0])
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "catalog.docx", "whatever")

	if _, err := NewFileSource(path, quietLogger()).Load(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"61 263 руб.", 61263},
		{"61263", 61263},
		{"1 500,50", 1500.50},
		{"руб.", 0},
		{"", 0},
		{"договорная", 0},
	}
	for _, tc := range cases {
		if got := ParsePrice(tc.raw); got != tc.want {
			t.Errorf("ParsePrice(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
