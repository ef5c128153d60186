// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func seededEngine() *MemoryEngine {
	eng := NewMemory()
	eng.Seed("src/Roads", &MemoryDataset{
		Type: TypeFeatureClass,
		Fields: []Field{
			{Name: "OBJECTID", Type: FieldInteger},
			{Name: "Name", Type: FieldString},
		},
		Rows: []map[string]any{
			{"OBJECTID": int64(1), "Name": "first"},
			{"OBJECTID": int64(2), "Name": "second"},
		},
	})
	return eng
}

func TestMemoryCopyIsIndependent(t *testing.T) {
	eng := seededEngine()
	dst := filepath.Join(t.TempDir(), "Roads.shp")
	if err := eng.CopyFeatures("src/Roads", dst, CopyOptions{}); err != nil {
		t.Fatalf("CopyFeatures error: %v", err)
	}

	copy := eng.Dataset(dst)
	if copy == nil {
		t.Fatal("copy not registered")
	}
	copy.Rows[0]["Name"] = "mutated"
	if eng.Dataset("src/Roads").Rows[0]["Name"] != "first" {
		t.Error("mutating the copy must not touch the source")
	}

	// The copy materializes shapefile sidecars on disk.
	for _, ext := range []string{".shp", ".shx", ".dbf", ".prj"} {
		sidecar := filepath.Join(filepath.Dir(dst), "Roads"+ext)
		if _, err := os.Stat(sidecar); err != nil {
			t.Errorf("missing sidecar %s", sidecar)
		}
	}
}

func TestMemoryDropFields(t *testing.T) {
	eng := seededEngine()
	if err := eng.DropFields("src/Roads", []string{"name"}); err != nil {
		t.Fatalf("DropFields error: %v", err)
	}
	d := eng.Dataset("src/Roads")
	if len(d.Fields) != 1 || d.Fields[0].Name != "OBJECTID" {
		t.Errorf("fields = %v", d.Fields)
	}
	if _, ok := d.Rows[0]["Name"]; ok {
		t.Error("dropped field value survived in rows")
	}
}

func TestMemoryCursors(t *testing.T) {
	eng := seededEngine()

	read, err := eng.SearchRows("src/Roads", []string{"Name", "OBJECTID"})
	if err != nil {
		t.Fatal(err)
	}
	defer read.Close()
	vals, ok := read.Next()
	if !ok || vals[0] != "first" || vals[1] != int64(1) {
		t.Errorf("first record = %v", vals)
	}

	update, err := eng.UpdateRows("src/Roads")
	if err != nil {
		t.Fatal(err)
	}
	defer update.Close()
	for update.Next() {
		v, err := update.Value("Name")
		if err != nil {
			t.Fatal(err)
		}
		if v == "second" {
			if err := update.SetValue("Name", ""); err != nil {
				t.Fatal(err)
			}
			if err := update.Update(); err != nil {
				t.Fatal(err)
			}
		}
	}
	if eng.Dataset("src/Roads").Rows[1]["Name"] != "" {
		t.Error("update not applied")
	}
}

func TestMemoryFailInjection(t *testing.T) {
	eng := seededEngine()
	want := errors.New("boom")
	eng.Fail = map[string]error{"ExportCAD": want}

	err := eng.ExportCAD("src/Roads", filepath.Join(t.TempDir(), "Roads.dwg"))
	if !errors.Is(err, want) {
		t.Errorf("injected failure not surfaced: %v", err)
	}
}

func TestMemoryDeleteRemovesChildren(t *testing.T) {
	eng := NewMemory()
	dir := t.TempDir()
	gdb := filepath.Join(dir, "Roads.gdb")
	if err := eng.CreateFileGDB(dir, "Roads", "CURRENT"); err != nil {
		t.Fatal(err)
	}
	eng.Seed(filepath.Join(gdb, "Roads"), &MemoryDataset{Type: TypeFeatureClass})

	if err := eng.Delete(gdb); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if eng.Dataset(filepath.Join(gdb, "Roads")) != nil {
		t.Error("child dataset survived container delete")
	}
	if _, err := os.Stat(gdb); !os.IsNotExist(err) {
		t.Error("container directory survived delete")
	}
}
