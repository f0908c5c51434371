package catalog

import (
	"code212/models/formation"
	"code212/services/apperror"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// ImportReport summarizes a catalogue import.
type ImportReport struct {
	FormationsCreated int
	FormationsUpdated int
	ModulesCreated    int
	ModulesUpdated    int
	Skipped           int
}

// ImportOptions tunes ImportCSV.
type ImportOptions struct {
	Publish bool // publish every formation touched by the import
}

// ImportCSV loads formations and modules from a CSV with one row per module.
// Recognized headers: formation, description, level, category, duration,
// objectives (separated by "|"), module, module_description, module_order,
// module_duration. Formations and modules are matched by title, so running
// the same file twice updates in place.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader, opts ImportOptions) (ImportReport, error) {
	var report ImportReport

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return report, fmt.Errorf("csv is empty")
		}
		return report, fmt.Errorf("read csv header: %w", err)
	}
	headerIndex := make(map[string]int, len(header))
	for i, h := range header {
		headerIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := headerIndex["formation"]; !ok {
		return report, fmt.Errorf("csv has no formation column")
	}

	touched := map[string]uint{}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, fmt.Errorf("read csv line %d: %w", line, err)
		}
		field := func(name string) string { return getField(row, headerIndex, name) }

		title := field("formation")
		if title == "" {
			report.Skipped++
			continue
		}

		formationID, ok := touched[title]
		if !ok {
			duration, err := parseCount(field("duration"))
			if err != nil {
				return report, fmt.Errorf("line %d: duration: %w", line, err)
			}
			id, created, err := s.upsertFormation(ctx, FormationInput{
				Title:       title,
				Description: field("description"),
				Level:       strings.ToLower(field("level")),
				Category:    field("category"),
				Duration:    duration,
				Objectives:  splitList(field("objectives")),
			})
			if err != nil {
				return report, fmt.Errorf("line %d: %w", line, err)
			}
			if created {
				report.FormationsCreated++
			} else {
				report.FormationsUpdated++
			}
			touched[title] = id
			formationID = id
		}

		moduleTitle := field("module")
		if moduleTitle == "" {
			continue
		}
		moduleDuration, err := parseCount(field("module_duration"))
		if err != nil {
			return report, fmt.Errorf("line %d: module_duration: %w", line, err)
		}
		in := ModuleInput{
			Title:       moduleTitle,
			Description: field("module_description"),
			Duration:    moduleDuration,
		}
		if raw := field("module_order"); raw != "" {
			order, err := parseCount(raw)
			if err != nil {
				return report, fmt.Errorf("line %d: module_order: %w", line, err)
			}
			in.Order = &order
		}
		created, err := s.upsertModule(ctx, formationID, in)
		if err != nil {
			return report, fmt.Errorf("line %d: %w", line, err)
		}
		if created {
			report.ModulesCreated++
		} else {
			report.ModulesUpdated++
		}
	}

	if opts.Publish {
		for _, id := range touched {
			if _, err := s.PublishFormation(ctx, id); err != nil {
				return report, err
			}
		}
	}

	s.log.Info("catalogue imported",
		"formations_created", report.FormationsCreated,
		"formations_updated", report.FormationsUpdated,
		"modules_created", report.ModulesCreated,
		"modules_updated", report.ModulesUpdated,
		"skipped", report.Skipped)
	return report, nil
}

func (s *Service) upsertFormation(ctx context.Context, in FormationInput) (uint, bool, error) {
	var existing formation.Formation
	err := s.db.WithContext(ctx).
		Where("title = ? AND is_deleted = ?", in.Title, false).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		f, err := s.CreateFormation(ctx, in)
		return f.ID, true, err
	}
	if err != nil {
		return 0, false, fmt.Errorf("find formation %q: %w", in.Title, err)
	}

	patch := FormationPatch{}
	if in.Description != "" {
		patch.Description = &in.Description
	}
	if in.Level != "" {
		patch.Level = &in.Level
	}
	if in.Category != "" {
		patch.Category = &in.Category
	}
	if in.Duration > 0 {
		patch.Duration = &in.Duration
	}
	if len(in.Objectives) > 0 {
		patch.Objectives = &in.Objectives
	}
	_, err = s.UpdateFormation(ctx, existing.ID, patch)
	return existing.ID, false, err
}

func (s *Service) upsertModule(ctx context.Context, formationID uint, in ModuleInput) (bool, error) {
	var existing formation.Module
	err := s.db.WithContext(ctx).
		Where("formation_id = ? AND title = ? AND is_deleted = ?", formationID, in.Title, false).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_, err := s.CreateModule(ctx, formationID, in)
		return true, err
	}
	if err != nil {
		return false, fmt.Errorf("find module %q: %w", in.Title, err)
	}

	patch := ModulePatch{Order: in.Order}
	if in.Description != "" {
		patch.Description = &in.Description
	}
	if in.Duration > 0 {
		patch.Duration = &in.Duration
	}
	_, err = s.UpdateModule(ctx, existing.ID, patch)
	return false, err
}

func getField(row []string, headerIndex map[string]int, name string) string {
	if idx, ok := headerIndex[name]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

// parseCount reads a non negative integer cell; a blank cell is zero.
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%q is not a non-negative integer: %w", s, apperror.ErrInvalid)
	}
	return v, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
