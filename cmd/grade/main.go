// Command grade scores scanned sheets from a JSON file without a database.
//
//	grade -file batch.json [-report]
//
// The file holds the question groups, the sheets and optionally a scheme;
// without one the SCORE_* environment defaults apply.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/omrgrade/omr-backend/internal/config"
	"github.com/omrgrade/omr-backend/internal/grading"
	"github.com/omrgrade/omr-backend/internal/logger"
	"github.com/omrgrade/omr-backend/internal/model"
	"github.com/omrgrade/omr-backend/internal/service"
)

type batchFile struct {
	Scheme *model.SchemeValues      `json:"scheme"`
	Groups []model.QuestionGroupDef `json:"groups"`
	Sheets []struct {
		Label string         `json:"label"`
		Marks model.MarkGrid `json:"marks"`
	} `json:"sheets"`
}

func main() {
	var (
		path   string
		report bool
	)
	flag.StringVar(&path, "file", "", "Path to the JSON batch file")
	flag.BoolVar(&report, "report", false, "Print the full per-question report as JSON")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if path == "" {
		flag.Usage()
		os.Exit(2)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to read batch file")
	}

	var batch batchFile
	if err := json.Unmarshal(raw, &batch); err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to decode batch file")
	}
	if err := service.ValidateGroups(batch.Groups); err != nil {
		log.Fatal().Err(err).Msg("Invalid answer key")
	}

	scheme, err := resolveScheme(cfg, batch.Scheme)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid scheme")
	}

	reports := make([]grading.Report, len(batch.Sheets))
	for i, sheet := range batch.Sheets {
		reports[i], err = service.GradeMarks(scheme, batch.Groups, sheet.Marks)
		if err != nil {
			log.Fatal().Err(err).Str("label", sheet.Label).Msg("Failed to grade sheet")
		}
	}

	if report {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for i, sheet := range batch.Sheets {
			_ = enc.Encode(struct {
				Label  string         `json:"label"`
				Report grading.Report `json:"report"`
			}{sheet.Label, reports[i]})
		}
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tTOTAL\tCORRECT\tINCORRECT\tMULTIPLE\tBLANK")
	for i, sheet := range batch.Sheets {
		c := reports[i].Counts()
		fmt.Fprintf(tw, "%s\t%g\t%d\t%d\t%d\t%d\n", sheet.Label, reports[i].Total,
			c[grading.OutcomeCorrect], c[grading.OutcomeIncorrect], c[grading.OutcomeMultiple], c[grading.OutcomeBlank])
	}
	_ = tw.Flush()
}

func resolveScheme(cfg *config.Config, values *model.SchemeValues) (grading.Scheme, error) {
	if values == nil {
		d, err := cfg.ScoreDefaults()
		if err != nil {
			return grading.Scheme{}, err
		}
		return grading.DefaultScheme(d)
	}
	if values.CorrectScore == nil || values.IncorrectScore == nil || values.DefaultScore == nil ||
		values.MultipleSelectedScore == nil || values.MinScore == nil || values.MaxScore == nil {
		return grading.Scheme{}, fmt.Errorf("%w: all six scores are required", service.ErrInvalidScheme)
	}
	return values.ToGrading()
}
