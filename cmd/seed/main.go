// 演示数据种子工具：建一个带需求与标注的示例项目，便于本地联调与截图
package main

import (
	"context"
	"fmt"
	"os"

	"gdt-helper/internal/gdt"
	"gdt-helper/internal/logger"
	"gdt-helper/internal/migrate"
	"gdt-helper/internal/store"
	"gdt-helper/internal/utils"

	"github.com/joho/godotenv"
)

type seedReq struct {
	feature       string
	featureOfSize bool
	featureType   string
	frame         gdt.RawFrame
	nominal       string
	low, high     string
	notes         string
}

func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	st := store.AttachDB(db)
	ctx := context.Background()

	p := store.Project{
		Title:    "Demo bracket",
		Customer: "ACME Machining",
		Notes:    "seeded demo project",
		Units:    "mm",
	}
	if err := st.CreateProject(ctx, &p); err != nil {
		l.Error("seed_project_error", "err", err)
		os.Exit(1)
	}
	l.Info("seed_project_ok", "id", p.ID)

	reqs := []seedReq{
		{
			feature: "mounting hole pattern", featureOfSize: true, featureType: "internal",
			frame: gdt.RawFrame{Characteristic: "position", Tolerance: "0.1", Cylindrical: true, Material: "MMC",
				Datums: []gdt.RawDatum{{Label: "A"}, {Label: "B"}, {Label: "C"}}},
			nominal: "10", low: "9.9", high: "10.0",
			notes: "four-hole pattern, dowel locating",
		},
		{
			feature: "datum face A",
			frame:   gdt.RawFrame{Characteristic: "flatness", Tolerance: "0.05"},
		},
		{
			feature: "pilot bore", featureOfSize: true, featureType: "internal",
			frame: gdt.RawFrame{Characteristic: "perpendicularity", Tolerance: "0.2", Material: "LMC",
				Datums: []gdt.RawDatum{{Label: "A", Material: "MMC"}}},
			nominal: "25", low: "24.95", high: "25.05",
		},
		{
			feature: "keyway slot",
			frame: gdt.RawFrame{Characteristic: "symmetry", Tolerance: "0.3",
				Datums: []gdt.RawDatum{{Label: "A"}}},
			notes: "legacy callout carried over from the 2009 drawing",
		},
	}
	for _, sr := range reqs {
		frame, errs := gdt.Build(sr.frame)
		if errs != nil {
			l.Error("seed_frame_error", "feature", sr.feature, "err", errs)
			os.Exit(1)
		}
		row := store.Requirement{
			ProjectID:      p.ID,
			Feature:        sr.feature,
			FeatureOfSize:  sr.featureOfSize,
			FeatureType:    sr.featureType,
			Characteristic: string(frame.Characteristic),
			FCFText:        gdt.Render(frame),
			Notes:          sr.notes,
		}
		if sr.nominal != "" {
			row.NominalSize = &sr.nominal
		}
		if sr.low != "" {
			row.SizeLow = &sr.low
		}
		if sr.high != "" {
			row.SizeHigh = &sr.high
		}
		if err := st.CreateRequirement(ctx, &row); err != nil {
			l.Error("seed_requirement_error", "feature", sr.feature, "err", err)
			os.Exit(1)
		}
		l.Info("seed_requirement_ok", "id", row.ID, "fcf", row.FCFText)
	}
	fmt.Printf("seeded project %d with %d requirements\n", p.ID, len(reqs))
}
