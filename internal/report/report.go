// Package report splits row outcomes into processed / mapping-error /
// submission-error buckets and writes each non-empty bucket to an XLSX
// artifact alongside the original raw values.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/getpulpo/fleet-importer/internal/model"
)

// Summary is the final accounting of one run.
type Summary struct {
	RunID            string
	Processed        int
	MappingErrors    int
	SubmissionErrors int
	Artifacts        []string
}

// Reporter writes run artifacts. Processed rows go to processedDir, both
// error buckets to errorDir.
type Reporter struct {
	processedDir string
	errorDir     string
	now          func() time.Time
}

// New creates a Reporter over the two output directories.
func New(processedDir, errorDir string) *Reporter {
	return &Reporter{processedDir: processedDir, errorDir: errorDir, now: time.Now}
}

var bucketNames = map[model.OutcomeKind]string{
	model.OutcomeProcessed:       "processed",
	model.OutcomeMappingError:    "mapping_error",
	model.OutcomeSubmissionError: "submission_error",
}

// Write buckets the outcomes and persists each non-empty bucket. header is
// the source sheet's column order; artifacts carry those columns followed
// by the _row, _sheet, _error, and _api_id diagnostics. Returns the run
// summary with the artifact paths.
func (r *Reporter) Write(outcomes []model.RowOutcome, header []string) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}

	buckets := map[model.OutcomeKind][]model.RowOutcome{}
	for _, o := range outcomes {
		buckets[o.Kind] = append(buckets[o.Kind], o)
	}
	summary.Processed = len(buckets[model.OutcomeProcessed])
	summary.MappingErrors = len(buckets[model.OutcomeMappingError])
	summary.SubmissionErrors = len(buckets[model.OutcomeSubmissionError])

	stamp := r.now().Format("20060102150405")
	for _, kind := range []model.OutcomeKind{model.OutcomeProcessed, model.OutcomeMappingError, model.OutcomeSubmissionError} {
		bucket := buckets[kind]
		if len(bucket) == 0 {
			continue
		}

		dir := r.errorDir
		if kind == model.OutcomeProcessed {
			dir = r.processedDir
		}
		path := filepath.Join(dir, artifactName(bucket[0].Raw, bucketNames[kind], stamp))
		if err := writeArtifact(path, header, bucket); err != nil {
			return nil, err
		}
		summary.Artifacts = append(summary.Artifacts, path)
		zap.L().Info("artifact written",
			zap.String("bucket", bucketNames[kind]),
			zap.Int("rows", len(bucket)),
			zap.String("path", path),
		)
	}

	zap.L().Info("run complete",
		zap.String("run_id", summary.RunID),
		zap.Int("processed", summary.Processed),
		zap.Int("mapping_errors", summary.MappingErrors),
		zap.Int("submission_errors", summary.SubmissionErrors),
	)
	return summary, nil
}

// artifactName builds <source>_<sheet>_<bucket>_<timestamp>.xlsx; the sheet
// segment is dropped for single-sheet sources.
func artifactName(raw model.RawRow, bucket, stamp string) string {
	base := filepath.Base(raw.Source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	parts := []string{base}
	if raw.Sheet != "" {
		parts = append(parts, raw.Sheet)
	}
	parts = append(parts, bucket, stamp)
	return strings.Join(parts, "_") + ".xlsx"
}

func writeArtifact(path string, header []string, bucket []model.RowOutcome) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "report: create artifact dir")
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("rows")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	headerRow := sheet.AddRow()
	for _, h := range header {
		headerRow.AddCell().SetString(h)
	}
	for _, h := range []string{"_row", "_sheet", "_error", "_api_id"} {
		headerRow.AddCell().SetString(h)
	}

	for _, o := range bucket {
		row := sheet.AddRow()
		for _, h := range header {
			row.AddCell().SetString(o.Raw.Cells[h])
		}
		row.AddCell().SetString(fmt.Sprintf("%d", o.Raw.Index))
		row.AddCell().SetString(o.Raw.Sheet)
		row.AddCell().SetString(o.Err)
		if o.Kind == model.OutcomeProcessed && o.APIID != 0 {
			row.AddCell().SetString(fmt.Sprintf("%d", o.APIID))
		} else {
			row.AddCell().SetString("")
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "report: save artifact")
	}
	return nil
}
