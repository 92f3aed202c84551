package mirror

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/spf13/afero"
	"golang.org/x/exp/maps"
)

// ReportFilename is the summary artifact written at the store root after a
// run.  Its content is deterministic for a given remote tree state, so
// repeated runs don't churn it.
const ReportFilename = "mirror-report.md"

// WriteReport renders the run summary to <storePath>/mirror-report.md.
func WriteReport(fs afero.Fs, storePath string, rootID string, stats *RunStats) error {
	var buf bytes.Buffer

	md := markdown.NewMarkdown(&buf)
	md.H1("Mirror report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Root page", rootID},
			{"Pages mirrored", strconv.FormatInt(stats.PagesProcessed(), 10)},
			{"Errors", strconv.FormatInt(stats.Errors(), 10)},
		},
	})
	md.PlainText("")

	perLevel := stats.PagesPerLevel()
	if len(perLevel) > 0 {
		levels := maps.Keys(perLevel)
		sort.Ints(levels)

		rows := make([][]string, 0, len(levels))
		for _, level := range levels {
			rows = append(rows, []string{
				strconv.Itoa(level),
				strconv.FormatInt(perLevel[level], 10),
			})
		}

		md.H2("Pages per depth")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Depth", "Pages"},
			Rows:   rows,
		})
	}

	if err := md.Build(); err != nil {
		return fmt.Errorf("mirror: couldn't render report: %w", err)
	}

	target := filepath.Join(storePath, ReportFilename)
	if err := afero.WriteFile(fs, target, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("mirror: couldn't write report %s: %w", target, err)
	}

	return nil
}
