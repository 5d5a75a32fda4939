// 包 store: 提供与 PostgreSQL 的数据访问层，包含项目/图纸/需求/标注的读写与统计
package store

import (
	"context"
	"database/sql"
	"time"

	"gdt-helper/internal/logger"

	_ "github.com/lib/pq"
)

// Store: 数据库访问入口，持有连接池并提供各实体的读写接口
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Open: 使用 DSN 打开数据库连接并配置连接池参数
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	return &Store{db: db}, nil
}

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Project: 项目实体，聚合图纸与需求
type Project struct {
	ID        int64
	Title     string
	Customer  string
	Notes     string
	Units     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Drawing: 图纸实体，file_name 为落盘存储名，original_name 为上传原名
type Drawing struct {
	ID           int64
	ProjectID    int64
	Title        string
	FileName     string
	OriginalName string
	Pages        int
	SizeBytes    int64
	CreatedAt    time.Time
}

// Requirement: 单条公差需求
// 约束：框语义以 fcf_text 为权威存储（速记文本可无损解析回结构），
// characteristic 为冗余列仅供按符号检索；尺寸三列以 NUMERIC 文本形式读出
type Requirement struct {
	ID             int64
	ProjectID      int64
	DrawingID      *int64
	Feature        string
	FeatureOfSize  bool
	FeatureType    string
	Characteristic string
	FCFText        string
	NominalSize    *string
	SizeLow        *string
	SizeHigh       *string
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Annotation: 图纸上的标注区域，points 为多边形顶点 JSON 文本
type Annotation struct {
	ID            int64
	DrawingID     int64
	RequirementID int64
	Page          int
	Kind          string
	X, Y, W, H    float64
	Points        string
	ZOrder        int
	CreatedAt     time.Time
}

func (s *Store) CreateProject(ctx context.Context, p *Project) error {
	if p.Units == "" {
		p.Units = "mm"
	}
	row := s.db.QueryRowContext(ctx, `INSERT INTO _gdt_projects(title, customer, notes, units)
        VALUES($1,$2,$3,$4) RETURNING id, created_at, updated_at`,
		p.Title, p.Customer, p.Notes, p.Units)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	logger.L().Debug("db_project_create", "id", p.ID)
	return nil
}

func (s *Store) GetProject(ctx context.Context, id int64) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, customer, notes, units, created_at, updated_at
        FROM _gdt_projects WHERE id=$1`, id)
	var p Project
	if err := row.Scan(&p.ID, &p.Title, &p.Customer, &p.Notes, &p.Units, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ListProjects: 按关键字模糊检索（标题/客户/备注），q 为空返回全部，最新在前
func (s *Store) ListProjects(ctx context.Context, q string) ([]Project, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if q == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT id, title, customer, notes, units, created_at, updated_at
            FROM _gdt_projects ORDER BY id DESC`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT id, title, customer, notes, units, created_at, updated_at
            FROM _gdt_projects
            WHERE title ILIKE '%'||$1||'%' OR customer ILIKE '%'||$1||'%' OR notes ILIKE '%'||$1||'%'
            ORDER BY id DESC`, q)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Customer, &p.Notes, &p.Units, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) UpdateProject(ctx context.Context, p *Project) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE _gdt_projects
        SET title=$2, customer=$3, notes=$4, units=$5, updated_at=now() WHERE id=$1`,
		p.ID, p.Title, p.Customer, p.Notes, p.Units)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeleteProject: 级联删除由外键负责（图纸/需求/标注随项目消失）
func (s *Store) DeleteProject(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM _gdt_projects WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	logger.L().Debug("db_project_delete", "id", id, "deleted", n > 0)
	return n > 0, nil
}

func (s *Store) CreateDrawing(ctx context.Context, d *Drawing) error {
	row := s.db.QueryRowContext(ctx, `INSERT INTO _gdt_drawings(project_id, title, file_name, original_name, pages, size_bytes)
        VALUES($1,$2,$3,$4,$5,$6) RETURNING id, created_at`,
		d.ProjectID, d.Title, d.FileName, d.OriginalName, d.Pages, d.SizeBytes)
	if err := row.Scan(&d.ID, &d.CreatedAt); err != nil {
		return err
	}
	logger.L().Debug("db_drawing_create", "id", d.ID, "project_id", d.ProjectID, "pages", d.Pages)
	return nil
}

func (s *Store) GetDrawing(ctx context.Context, id int64) (*Drawing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, project_id, title, file_name, original_name, pages, size_bytes, created_at
        FROM _gdt_drawings WHERE id=$1`, id)
	var d Drawing
	if err := row.Scan(&d.ID, &d.ProjectID, &d.Title, &d.FileName, &d.OriginalName, &d.Pages, &d.SizeBytes, &d.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (s *Store) ListDrawings(ctx context.Context, projectID int64) ([]Drawing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, project_id, title, file_name, original_name, pages, size_bytes, created_at
        FROM _gdt_drawings WHERE project_id=$1 ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Drawing
	for rows.Next() {
		var d Drawing
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Title, &d.FileName, &d.OriginalName, &d.Pages, &d.SizeBytes, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) DeleteDrawing(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM _gdt_drawings WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *Store) CreateRequirement(ctx context.Context, r *Requirement) error {
	row := s.db.QueryRowContext(ctx, `INSERT INTO _gdt_requirements
        (project_id, drawing_id, feature, feature_of_size, feature_type, characteristic, fcf_text,
         nominal_size, size_low, size_high, notes)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id, created_at, updated_at`,
		r.ProjectID, r.DrawingID, r.Feature, r.FeatureOfSize, r.FeatureType, r.Characteristic,
		r.FCFText, r.NominalSize, r.SizeLow, r.SizeHigh, r.Notes)
	if err := row.Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return err
	}
	logger.L().Debug("db_requirement_create", "id", r.ID, "project_id", r.ProjectID, "characteristic", r.Characteristic)
	return nil
}

const requirementCols = `id, project_id, drawing_id, feature, feature_of_size, feature_type,
    characteristic, fcf_text, nominal_size, size_low, size_high, notes, created_at, updated_at`

func scanRequirement(row interface{ Scan(...any) error }) (*Requirement, error) {
	var r Requirement
	var drawingID sql.NullInt64
	var nominal, low, high sql.NullString
	err := row.Scan(&r.ID, &r.ProjectID, &drawingID, &r.Feature, &r.FeatureOfSize, &r.FeatureType,
		&r.Characteristic, &r.FCFText, &nominal, &low, &high, &r.Notes, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if drawingID.Valid {
		r.DrawingID = &drawingID.Int64
	}
	if nominal.Valid {
		r.NominalSize = &nominal.String
	}
	if low.Valid {
		r.SizeLow = &low.String
	}
	if high.Valid {
		r.SizeHigh = &high.String
	}
	return &r, nil
}

func (s *Store) GetRequirement(ctx context.Context, id int64) (*Requirement, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requirementCols+` FROM _gdt_requirements WHERE id=$1`, id)
	r, err := scanRequirement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func (s *Store) ListRequirements(ctx context.Context, projectID int64) ([]Requirement, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+requirementCols+` FROM _gdt_requirements
        WHERE project_id=$1 ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Requirement
	for rows.Next() {
		r, err := scanRequirement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) UpdateRequirement(ctx context.Context, r *Requirement) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE _gdt_requirements
        SET drawing_id=$2, feature=$3, feature_of_size=$4, feature_type=$5, characteristic=$6,
            fcf_text=$7, nominal_size=$8, size_low=$9, size_high=$10, notes=$11, updated_at=now()
        WHERE id=$1`,
		r.ID, r.DrawingID, r.Feature, r.FeatureOfSize, r.FeatureType, r.Characteristic,
		r.FCFText, r.NominalSize, r.SizeLow, r.SizeHigh, r.Notes)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *Store) DeleteRequirement(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM _gdt_requirements WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SearchRequirements: 按关键字与符号检索需求，projectID 为 0 时跨项目
// 约束：关键字命中要素名/速记文本/备注；symbol 精确匹配冗余的 characteristic 列
func (s *Store) SearchRequirements(ctx context.Context, q, symbol string, projectID int64) ([]Requirement, error) {
	sqlText := `SELECT ` + requirementCols + ` FROM _gdt_requirements
        WHERE ($1 = '' OR feature ILIKE '%'||$1||'%' OR fcf_text ILIKE '%'||$1||'%' OR notes ILIKE '%'||$1||'%')
          AND ($2 = '' OR characteristic = $2)
          AND ($3 = 0 OR project_id = $3)
        ORDER BY id DESC LIMIT 200`
	rows, err := s.db.QueryContext(ctx, sqlText, q, symbol, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Requirement
	for rows.Next() {
		r, err := scanRequirement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	logger.L().Debug("db_search", "q", q, "symbol", symbol, "project_id", projectID, "hits", len(out))
	return out, rows.Err()
}

func (s *Store) CreateAnnotation(ctx context.Context, a *Annotation) error {
	if a.Points == "" {
		a.Points = "[]"
	}
	row := s.db.QueryRowContext(ctx, `INSERT INTO _gdt_annotations
        (drawing_id, requirement_id, page, kind, x, y, w, h, points, z_order)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id, created_at`,
		a.DrawingID, a.RequirementID, a.Page, a.Kind, a.X, a.Y, a.W, a.H, a.Points, a.ZOrder)
	if err := row.Scan(&a.ID, &a.CreatedAt); err != nil {
		return err
	}
	logger.L().Debug("db_annotation_create", "id", a.ID, "drawing_id", a.DrawingID, "kind", a.Kind)
	return nil
}

func (s *Store) ListAnnotations(ctx context.Context, drawingID int64) ([]Annotation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, drawing_id, requirement_id, page, kind, x, y, w, h, points, z_order, created_at
        FROM _gdt_annotations WHERE drawing_id=$1 ORDER BY id`, drawingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Annotation
	for rows.Next() {
		var a Annotation
		if err := rows.Scan(&a.ID, &a.DrawingID, &a.RequirementID, &a.Page, &a.Kind,
			&a.X, &a.Y, &a.W, &a.H, &a.Points, &a.ZOrder, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAnnotation(ctx context.Context, id int64) (*Annotation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, drawing_id, requirement_id, page, kind, x, y, w, h, points, z_order, created_at
        FROM _gdt_annotations WHERE id=$1`, id)
	var a Annotation
	if err := row.Scan(&a.ID, &a.DrawingID, &a.RequirementID, &a.Page, &a.Kind,
		&a.X, &a.Y, &a.W, &a.H, &a.Points, &a.ZOrder, &a.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) DeleteAnnotation(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM _gdt_annotations WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// AnnotationPages: 某需求被标注到的 1 基页码集合（去重升序），供导出使用
func (s *Store) AnnotationPages(ctx context.Context, requirementID int64) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT page FROM _gdt_annotations
        WHERE requirement_id=$1 ORDER BY page`, requirementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// IncrStats: 核心计算成功后递增总计与当日计数
// 访客计数只在当日首见时递增，以 (day, visitor) 主键去重
func (s *Store) IncrStats(ctx context.Context, visitor string) error {
	_, _ = s.db.ExecContext(ctx, "UPDATE _gdt_stats_total SET total_queries=total_queries+1 WHERE id=1")
	_, _ = s.db.ExecContext(ctx, "INSERT INTO _gdt_stats_daily(day, queries) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET queries=_gdt_stats_daily.queries+1")
	if visitor != "" && s.firstSeenToday(ctx, visitor) {
		_, _ = s.db.ExecContext(ctx, "UPDATE _gdt_stats_total SET total_visitors=total_visitors+1 WHERE id=1")
		_, _ = s.db.ExecContext(ctx, "INSERT INTO _gdt_stats_daily(day, visitors) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET visitors=_gdt_stats_daily.visitors+1")
	}
	logger.L().Debug("stats_incr", "visitor", visitor)
	return nil
}

// firstSeenToday: 落一条访客记录；冲突说明当日已见过
func (s *Store) firstSeenToday(ctx context.Context, visitor string) bool {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO _gdt_stats_visitors(day, visitor) VALUES(current_date, $1) ON CONFLICT DO NOTHING", visitor)
	if err != nil {
		return false
	}
	n, err := res.RowsAffected()
	return err == nil && n == 1
}

// Totals: 统计返回结构，包含累计与当日计算次数
type Totals struct {
	Total int64
	Today int64
}

// GetTotals: 读取累计与当日计算次数，用于接口返回
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	row := s.db.QueryRowContext(ctx, "SELECT total_queries FROM _gdt_stats_total WHERE id=1")
	_ = row.Scan(&t.Total)
	row2 := s.db.QueryRowContext(ctx, "SELECT queries FROM _gdt_stats_daily WHERE day=current_date")
	_ = row2.Scan(&t.Today)
	logger.L().Debug("stats_totals", "total", t.Total, "today", t.Today)
	return &t, nil
}
