package pbar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ostafen/trailscan/pkg/util/format"
)

const MinRefreshRate = time.Millisecond * 500

// ProgressBarState holds all the data needed to render the progress bar
type ProgressBarState struct {
	Out io.Writer

	TotalBytes         int64
	ProcessedBytes     int64
	TotalFiles         int
	FilesScanned       int
	Detections         int
	StartTime          time.Time
	LastUpdateTime     time.Time
	LastProcessedBytes int64
}

// NewProgressBarState initializes a new ProgressBarState
func NewProgressBarState(out io.Writer, totalFiles int, totalBytes int64) *ProgressBarState {
	return &ProgressBarState{
		Out:            out,
		TotalBytes:     totalBytes,
		TotalFiles:     totalFiles,
		StartTime:      time.Now(),
		LastUpdateTime: time.Unix(0, 0),
	}
}

// Add accounts for one scanned file and the number of detections it produced.
func (pbs *ProgressBarState) Add(size int64, detections int) {
	pbs.FilesScanned++
	pbs.ProcessedBytes += size
	pbs.Detections += detections
}

// Render updates and prints the progress bar line
func (pbs *ProgressBarState) Render(force bool) {
	if !force && time.Since(pbs.LastUpdateTime) < MinRefreshRate {
		return
	}

	var percentage float64
	if pbs.TotalBytes > 0 {
		percentage = float64(pbs.ProcessedBytes) / float64(pbs.TotalBytes) * 100
	} else if pbs.TotalFiles > 0 {
		percentage = float64(pbs.FilesScanned) / float64(pbs.TotalFiles) * 100
	}
	percentage = min(percentage, 100)

	barLength := 20
	filledLen := int(float64(barLength) * percentage / 100)
	var bar string
	if filledLen == barLength {
		bar = strings.Repeat("=", barLength)
	} else {
		bar = strings.Repeat("=", filledLen) + ">" + strings.Repeat(" ", barLength-filledLen-1)
	}

	elapsed := time.Since(pbs.LastUpdateTime).Seconds()
	var speed float64
	if elapsed > 0 {
		speed = float64(pbs.ProcessedBytes-pbs.LastProcessedBytes) / elapsed
	}

	var etaStr string
	if pbs.ProcessedBytes > 0 && speed > 0 {
		etaSeconds := float64(pbs.TotalBytes-pbs.ProcessedBytes) / speed
		etaStr = fmt.Sprintf("%02d:%02d:%02d remaining",
			int(etaSeconds/3600),
			int(etaSeconds/60)%60,
			int(etaSeconds)%60)
	} else {
		etaStr = "calculating..."
	}

	pbs.LastUpdateTime = time.Now()
	pbs.LastProcessedBytes = pbs.ProcessedBytes

	// \r rewinds to the start of the line; trailing spaces clear leftovers
	fmt.Fprintf(pbs.Out, "\r[INFO] Progress: [%s] %3.0f%% (%d/%d files, %s) | Detections: %d | @ %.2fMB/s [%s]    ",
		bar,
		percentage,
		pbs.FilesScanned,
		pbs.TotalFiles,
		format.FormatBytes(pbs.ProcessedBytes),
		pbs.Detections,
		speed/(1024*1024),
		etaStr)
}

// Finish terminates the progress line.
func (pbs *ProgressBarState) Finish() {
	fmt.Fprintln(pbs.Out)
}
