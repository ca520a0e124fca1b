package database

import (
	"fmt"
	"sort"

	"github.com/rpupo63/rpgm-blog/models"
	"gorm.io/gorm"
)

// Models lists every table the service owns, in migration order.
func Models() []any {
	return []any{
		&models.BlogPost{},
		&models.BlogTag{},
		&models.Comment{},
		&models.User{},
		&models.UserGroup{},
		&models.GroupMember{},
		&models.AccessControlEntry{},
		&models.Setting{},
		&models.Asset{},
	}
}

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// ColumnMismatch lists the columns of a table that no model field maps to.
type ColumnMismatch struct {
	Table   string
	Missing bool
	Columns []string
}

// ColumnMismatchReport compares live tables against the models. Tables that
// do not exist yet are reported with Missing set.
func ColumnMismatchReport(db *gorm.DB) ([]ColumnMismatch, error) {
	var report []ColumnMismatch

	for _, model := range Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", model, err)
		}
		table := stmt.Schema.Table

		if !db.Migrator().HasTable(model) {
			report = append(report, ColumnMismatch{Table: table, Missing: true})
			continue
		}

		columnTypes, err := db.Migrator().ColumnTypes(model)
		if err != nil {
			return nil, fmt.Errorf("read columns of %s: %w", table, err)
		}

		known := make(map[string]bool, len(stmt.Schema.DBNames))
		for _, name := range stmt.Schema.DBNames {
			known[name] = true
		}

		var unknown []string
		for _, column := range columnTypes {
			if !known[column.Name()] {
				unknown = append(unknown, column.Name())
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			report = append(report, ColumnMismatch{Table: table, Columns: unknown})
		}
	}

	return report, nil
}
