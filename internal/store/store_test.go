package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/msto63/etlap/internal/menu"
	"github.com/msto63/etlap/internal/parser"
	apperrors "github.com/msto63/etlap/pkg/core/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{Path: filepath.Join(t.TempDir(), "data", "etlap.db")})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTables() []menu.Table {
	return []menu.Table{
		{
			Index:  1,
			Labels: []string{"A menü", "B menü"},
			Rows: []menu.Row{
				{
					Header: "Hétfő",
					Cells: []menu.Cell{
						{
							Label: "A menü",
							Foods: []parser.Food{
								{Name: "Gulyásleves", Allergens: "1,9"},
								{Name: "Kenyér"},
							},
							Nutrient: &parser.Nutrient{
								Energy: 520, Carbohydrate: 64.2, Protein: 21.5, Sugar: 12,
								Fat: 18.3, Salt: 2.1, SaturatedFat: 6.4,
							},
						},
						{Label: "B menü", Foods: []parser.Food{}},
					},
				},
				{Header: "Kedd", Cells: []menu.Cell{}},
			},
		},
		{Index: 2, Rows: []menu.Row{}},
	}
}

func sampleRun(id string, created time.Time) *Run {
	tables := sampleTables()
	return &Run{
		ID:        id,
		Source:    "menu.docx",
		Output:    "menu.csv",
		Format:    "csv",
		CreatedAt: created,
		Duration:  1500 * time.Millisecond,
		Stats:     menu.Summarize(tables),
		Tables:    tables,
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := sampleRun("", time.Now())
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if run.ID == "" {
		t.Fatal("SaveRun() should assign an ID")
	}

	loaded, err := s.LoadRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("LoadRun() error = %v", err)
	}

	if loaded.Source != run.Source || loaded.Format != run.Format || loaded.Duration != run.Duration {
		t.Errorf("LoadRun() metadata = %+v, want %+v", loaded, run)
	}
	if loaded.Stats != run.Stats {
		t.Errorf("Stats = %+v, want %+v", loaded.Stats, run.Stats)
	}
	if !reflect.DeepEqual(loaded.Tables, run.Tables) {
		t.Errorf("Tables =\n%#v\nwant\n%#v", loaded.Tables, run.Tables)
	}
}

func TestStore_ListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		if err := s.SaveRun(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SaveRun(%s) error = %v", id, err)
		}
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "third" || runs[1].ID != "second" {
		t.Errorf("ListRuns(2) = %v, want [third second]", runIDs(runs))
	}
	if runs[0].Tables != nil {
		t.Error("ListRuns() should not load tables")
	}

	all, err := s.ListRuns(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Errorf("ListRuns(0) = %v, %v; want 3 runs", runIDs(all), err)
	}
}

func runIDs(runs []*Run) []string {
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}

func TestStore_DeleteRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveRun(ctx, sampleRun("gone", time.Now())); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if err := s.DeleteRun(ctx, "gone"); err != nil {
		t.Fatalf("DeleteRun() error = %v", err)
	}

	_, err := s.LoadRun(ctx, "gone")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("LoadRun() after delete error = %v, want NOT_FOUND", err)
	}
	if err := s.DeleteRun(ctx, "gone"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("second DeleteRun() error = %v, want NOT_FOUND", err)
	}

	matches, err := s.FindFoods(ctx, "leves", 0)
	if err != nil {
		t.Fatalf("FindFoods() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("foods of deleted run still found: %+v", matches)
	}
}

func TestStore_FindFoods(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := s.SaveRun(ctx, sampleRun(id, time.Now())); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
	}

	matches, err := s.FindFoods(ctx, "gleves", 10)
	if err != nil {
		t.Fatalf("FindFoods() error = %v", err)
	}
	if len(matches) != 1 || matches[0].Name != "Gulyásleves" || matches[0].Runs != 2 {
		t.Errorf("FindFoods(gleves) = %+v, want Gulyásleves in 2 runs", matches)
	}

	matches, err = s.FindFoods(ctx, "e", 1)
	if err != nil || len(matches) != 1 {
		t.Errorf("FindFoods(e, 1) = %+v, %v; want one match", matches, err)
	}
}
