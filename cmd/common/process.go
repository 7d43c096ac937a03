// Package common contains shared functionality for command handlers
package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/batch"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/factory"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/importer"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/mapping"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/validation"

	"github.com/spf13/pflag"
)

// ReviewPolicy resolves review items when nobody is there to answer them.
type ReviewPolicy string

const (
	// ReviewKeep leaves the cities the build applied.
	ReviewKeep ReviewPolicy = "keep"
	// ReviewAcceptAll takes every extracted city.
	ReviewAcceptAll ReviewPolicy = "accept"
	// ReviewRejectAll drops every extracted city and restores descriptions.
	ReviewRejectAll ReviewPolicy = "reject"
)

var _ pflag.Value = (*ReviewPolicy)(nil)

func (p *ReviewPolicy) String() string {
	if *p == "" {
		return string(ReviewKeep)
	}
	return string(*p)
}

// Set implements pflag.Value.
func (p *ReviewPolicy) Set(s string) error {
	switch ReviewPolicy(strings.ToLower(s)) {
	case ReviewKeep, ReviewAcceptAll, ReviewRejectAll:
		*p = ReviewPolicy(strings.ToLower(s))
		return nil
	default:
		return fmt.Errorf("must be one of keep, accept, reject")
	}
}

// Type implements pflag.Value.
func (p *ReviewPolicy) Type() string {
	return "policy"
}

// Decisions answers every item according to the policy.
func (p ReviewPolicy) Decisions(items []models.ReviewItem) []models.ReviewDecision {
	var action models.ReviewAction
	switch p {
	case ReviewAcceptAll:
		action = models.ReviewAccept
	case ReviewRejectAll:
		action = models.ReviewReject
	default:
		return nil
	}

	decisions := make([]models.ReviewDecision, 0, len(items))
	for _, item := range items {
		decisions = append(decisions, models.ReviewDecision{RowIndex: item.Row(), Action: action})
	}
	return decisions
}

// ProcessOptions drives ProcessFile.
type ProcessOptions struct {
	Parse   factory.Options
	Mode    importer.Mode
	Policy  ReviewPolicy
	Columns map[string]int
}

// ProcessFile runs an unattended import of inputFile through session: it
// loads the file, applies the proposed mapping with the Columns overrides,
// and answers review with the policy. The snapshot is returned even when a
// step fails.
func ProcessFile(ctx context.Context, session *importer.Session, inputFile string, opts ProcessOptions, log logging.Logger) (importer.Snapshot, error) {
	log = logging.OrDefault(log)

	if err := validation.StatementFile(inputFile); err != nil {
		return session.Snapshot(), err
	}
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return session.Snapshot(), fmt.Errorf("error reading input file: %w", err)
	}

	if err := session.Load(ctx, filepath.Base(inputFile), data, opts.Parse); err != nil {
		return session.Snapshot(), err
	}
	if err := session.OpenMapping(ctx); err != nil {
		return session.Snapshot(), err
	}

	snap := session.Snapshot()
	columns, err := OverrideColumns(snap.Mapping, snap.ColumnCount, snap.SampleRows, opts.Columns)
	if err != nil {
		return snap, err
	}

	log.Debug("Applying column mapping",
		logging.F(logging.FieldInputFile, inputFile),
		logging.F(logging.FieldColumns, len(columns)),
		logging.F("mapping_reused", snap.MappingReused))
	if err := session.ApplyMapping(ctx, columns, opts.Mode); err != nil {
		return session.Snapshot(), err
	}

	if session.State() == importer.StateReviewPending {
		pending := session.Snapshot()
		log.Info("Resolving review items",
			logging.F(logging.FieldCount, len(pending.ReviewItems)),
			logging.F("policy", string(opts.Policy)))
		if err := session.Confirm(ctx, opts.Policy.Decisions(pending.ReviewItems)); err != nil {
			return session.Snapshot(), err
		}
	}
	return session.Snapshot(), nil
}

// ProcessDir gathers every statement of dir into session, each file in
// preview mode, then commits once when opts.Mode is direct. The returned
// range spans the gathered rows.
func ProcessDir(ctx context.Context, session *importer.Session, dir string, opts ProcessOptions, log logging.Logger) (importer.Snapshot, batch.DateRange, error) {
	if err := validation.Directory(dir); err != nil {
		return session.Snapshot(), batch.DateRange{}, err
	}
	files, err := batch.ListStatements(dir)
	if err != nil {
		return session.Snapshot(), batch.DateRange{}, err
	}

	perFile := opts
	perFile.Mode = importer.ModePreview
	_, err = batch.NewAggregator(log).Gather(ctx, files, func(ctx context.Context, file string) error {
		_, err := ProcessFile(ctx, session, file, perFile, log)
		return err
	})
	if err != nil {
		return session.Snapshot(), batch.DateRange{}, err
	}

	dr := batch.RangeOf(session.Snapshot().Rows)
	if opts.Mode == importer.ModeDirect {
		err = session.Commit(ctx)
	}
	return session.Snapshot(), dr, err
}

// OverrideColumns moves each named field onto the given column of the
// proposed mapping.
func OverrideColumns(columns []models.ColumnMapping, columnCount int, sample [][]string, overrides map[string]int) ([]models.ColumnMapping, error) {
	if len(overrides) == 0 {
		return columns, nil
	}

	editor, ok := mapping.Load(columns, columnCount)
	if !ok {
		editor = mapping.NewEditor(columnCount)
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field, ok := models.ParseField(strings.ToLower(name))
		if !ok {
			return nil, fmt.Errorf("unknown field %q in column override", name)
		}
		editor.Unassign(field)
		if err := editor.Assign(field, overrides[name]); err != nil {
			return nil, fmt.Errorf("column override %s=%d: %w", name, overrides[name], err)
		}
	}

	var preview []string
	if len(sample) > 0 {
		preview = sample[0]
	}
	return editor.Serialize(preview), nil
}
