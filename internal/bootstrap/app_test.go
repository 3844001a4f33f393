package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"formcfg/internal/bootstrap/config"
	domain "formcfg/internal/domain/formconfig"
	"formcfg/internal/infrastructure/persistence/schema"
	"formcfg/internal/infrastructure/persistence/sqlite/model"
)

func TestInitSchemaIsRepeatable(t *testing.T) {
	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "formcfg.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	app := &App{DB: db}
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	ctx := context.Background()

	version, err := app.SchemaVersion(ctx)
	if err != nil || version != "" {
		t.Fatalf("SchemaVersion() before init = %q, %v", version, err)
	}

	for i := 0; i < 2; i++ {
		if err := app.InitSchema(ctx); err != nil {
			t.Fatalf("InitSchema() run %d error = %v", i+1, err)
		}
	}

	version, err = app.SchemaVersion(ctx)
	if err != nil || version != schema.Version {
		t.Fatalf("SchemaVersion() = %q, %v", version, err)
	}

	var metaRows int64
	if err := db.Model(&schema.SchemaMeta{}).Count(&metaRows).Error; err != nil {
		t.Fatalf("count schema meta: %v", err)
	}
	if metaRows != 2 {
		t.Fatalf("schema meta rows = %d, want 2", metaRows)
	}
	for _, table := range model.All() {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("table for %T missing", table)
		}
	}
}

func TestPipelineDomains(t *testing.T) {
	kinds, err := PipelineDomains(config.PipelineConfig{Domains: []string{"forms", "Events"}})
	if err != nil {
		t.Fatalf("PipelineDomains() error = %v", err)
	}
	if len(kinds) != 2 || kinds[0] != domain.TargetForm || kinds[1] != domain.TargetEventConfig {
		t.Fatalf("PipelineDomains() = %v", kinds)
	}

	if _, err := PipelineDomains(config.PipelineConfig{Domains: []string{"orders"}}); err == nil {
		t.Fatalf("PipelineDomains() expected error for unknown domain")
	}
}
