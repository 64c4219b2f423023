package domain

import (
	"path/filepath"
	"strings"
)

const (
	ResultExt           = ".csv"
	SummaryFileName     = "comparison_summary.csv"
	SummaryChartName    = "summary_comparison_log.png"
	reportsDirName      = "reports"
	plotsDirName        = "plots"
	timingSummarySuffix = "_summary"
)

// Layout names every directory and file under a results root.
type Layout struct {
	Root       string
	Relational string
	Graph      string
	Reports    string
	Plots      string
}

func NewLayout(root string) Layout {
	return Layout{
		Root:       root,
		Relational: filepath.Join(root, RelationalSide),
		Graph:      filepath.Join(root, GraphSide),
		Reports:    filepath.Join(root, reportsDirName),
		Plots:      filepath.Join(root, plotsDirName),
	}
}

// Dirs lists every directory of the layout below the root.
func (l Layout) Dirs() []string {
	return []string{l.Relational, l.Graph, l.Reports, l.Plots}
}

// BackendDir returns the raw results directory of a side label.
func (l Layout) BackendDir(side string) string {
	if side == GraphSide {
		return l.Graph
	}
	return l.Relational
}

// ResultPath is the last-result file of a query for a side.
func (l Layout) ResultPath(side, query string) string {
	return filepath.Join(l.BackendDir(side), query+ResultExt)
}

// RunsPath is the per-execution timing file of a query for a side.
func (l Layout) RunsPath(side, query string) string {
	return filepath.Join(l.BackendDir(side), side+"_"+query+ResultExt)
}

// TimingSummaryPath is the cumulative timing summary of a side.
func (l Layout) TimingSummaryPath(side string) string {
	return filepath.Join(l.BackendDir(side), side+timingSummarySuffix+ResultExt)
}

func (l Layout) DiffPath(query string) string {
	return filepath.Join(l.Reports, DiffFileName(query))
}

func (l Layout) SummaryPath() string {
	return filepath.Join(l.Reports, SummaryFileName)
}

func (l Layout) LinePlotPath(query string) string {
	return filepath.Join(l.Plots, query+"_lineplot.png")
}

func (l Layout) SummaryChartPath() string {
	return filepath.Join(l.Plots, SummaryChartName)
}

func DiffFileName(query string) string {
	return "diff_" + query + ResultExt
}

// QueryName returns the stem of a result file name.
func QueryName(fileName string) string {
	return strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
}
