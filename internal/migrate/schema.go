package migrate

import (
	"database/sql"

	"gdt-helper/internal/logger"
)

// 背景：首次运行自动创建所需表与索引，保障后续写入与查询
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _gdt_projects (
            id SERIAL PRIMARY KEY,
            title TEXT NOT NULL,
            customer TEXT NOT NULL DEFAULT '',
            notes TEXT NOT NULL DEFAULT '',
            units TEXT NOT NULL DEFAULT 'mm',
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE TABLE IF NOT EXISTS _gdt_drawings (
            id SERIAL PRIMARY KEY,
            project_id INT NOT NULL REFERENCES _gdt_projects(id) ON DELETE CASCADE,
            title TEXT NOT NULL DEFAULT '',
            file_name TEXT NOT NULL,
            original_name TEXT NOT NULL DEFAULT '',
            pages INT NOT NULL DEFAULT 1,
            size_bytes BIGINT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_drawings_project ON _gdt_drawings(project_id)`,
		`CREATE TABLE IF NOT EXISTS _gdt_requirements (
            id SERIAL PRIMARY KEY,
            project_id INT NOT NULL REFERENCES _gdt_projects(id) ON DELETE CASCADE,
            drawing_id INT REFERENCES _gdt_drawings(id) ON DELETE SET NULL,
            feature TEXT NOT NULL,
            feature_of_size BOOLEAN NOT NULL DEFAULT FALSE,
            feature_type TEXT NOT NULL DEFAULT '',
            characteristic TEXT NOT NULL,
            fcf_text TEXT NOT NULL,
            nominal_size NUMERIC(10,4),
            size_low NUMERIC(10,4),
            size_high NUMERIC(10,4),
            notes TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_requirements_project ON _gdt_requirements(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_requirements_characteristic ON _gdt_requirements(characteristic)`,
		`CREATE TABLE IF NOT EXISTS _gdt_annotations (
            id SERIAL PRIMARY KEY,
            drawing_id INT NOT NULL REFERENCES _gdt_drawings(id) ON DELETE CASCADE,
            requirement_id INT NOT NULL REFERENCES _gdt_requirements(id) ON DELETE CASCADE,
            page INT NOT NULL DEFAULT 1,
            kind TEXT NOT NULL,
            x DOUBLE PRECISION NOT NULL DEFAULT 0,
            y DOUBLE PRECISION NOT NULL DEFAULT 0,
            w DOUBLE PRECISION NOT NULL DEFAULT 0,
            h DOUBLE PRECISION NOT NULL DEFAULT 0,
            points TEXT NOT NULL DEFAULT '[]',
            z_order INT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_drawing_page ON _gdt_annotations(drawing_id, page)`,
		`CREATE TABLE IF NOT EXISTS _gdt_stats_total (
            id INT PRIMARY KEY,
            total_queries BIGINT NOT NULL DEFAULT 0,
            total_visitors BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS _gdt_stats_daily (
            day DATE PRIMARY KEY,
            queries BIGINT NOT NULL DEFAULT 0,
            visitors BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS _gdt_stats_visitors (
            day DATE NOT NULL,
            visitor TEXT NOT NULL,
            PRIMARY KEY (day, visitor)
        )`,
		`INSERT INTO _gdt_stats_total(id, total_queries, total_visitors)
         VALUES(1, 0, 0)
         ON CONFLICT (id) DO NOTHING`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
