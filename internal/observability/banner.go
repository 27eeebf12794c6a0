package observability

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

var startTime = time.Now()

const (
	colorReset    = "\033[0m"
	colorBold     = "\033[1m"
	colorPurple   = "\033[35m"
	colorNeonCyan = "\033[96m"
	colorNeonMag  = "\033[95m"
)

var pulseFrames = []string{"◜", "◝", "◞", "◟"}
var pulseIdx = 0

// termMu synchronizes ALL terminal output so that the cursor
// save/restore in PrintLiveStatus can never be interrupted by a log write.
var termMu sync.Mutex

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

var (
	stdout     io.Writer = os.Stdout
	isTerminal           = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
)

// IsTerminal reports whether stdout is an interactive terminal. The banner,
// scroll region and live status line are only drawn when it is.
func IsTerminal() bool {
	return isTerminal()
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// termWriter is a mutex-guarded io.Writer for log output, so log lines never
// interleave with the status line escape sequences.
type termWriter struct{}

func (tw termWriter) Write(p []byte) (n int, err error) {
	termMu.Lock()
	defer termMu.Unlock()
	return os.Stderr.Write(p)
}

// NewTermWriter returns an io.Writer suitable for log.SetOutput().
func NewTermWriter() *termWriter {
	return &termWriter{}
}

var bannerLines = []string{
	"    _   ___ ___ _  _ ___   _   ___  ___ _____",
	"   /_\\ / __| __| \\| |   \\ /_\\ | _ )/ _ \\_   _|",
	"  / _ \\ (_ | _|| .  | |) / _ \\| _ \\ (_) || |",
	" /_/ \\_\\___|___|_|\\_|___/_/ \\_\\___/\\___/ |_|",
	"",
	"      >> PERSONAL AGENDA ASSISTANT <<",
}

func PrintBanner() {
	if !IsTerminal() {
		return
	}
	fmt.Fprint(stdout, "\033[2J\033[H")

	width := termWidth()
	fmt.Fprintln(stdout)
	for _, l := range bannerLines {
		padding := (width - len(l)) / 2
		if padding < 0 {
			padding = 0
		}
		fmt.Fprintf(stdout, "%s%s%s\n", strings.Repeat(" ", padding), colorNeonCyan+l, colorReset)
	}
}

func InitializeTerminal() {
	if !IsTerminal() {
		return
	}
	// 1-8 banner, 10 status line, 12+ scrolling logs
	fmt.Fprint(stdout, "\033[12;r")
	fmt.Fprint(stdout, "\033[12;1H")
}

func CleanupTerminal() {
	if !IsTerminal() {
		return
	}
	fmt.Fprint(stdout, "\033[r\033[2J\033[H")
}

// PrintLiveStatus redraws the status line: pulse, active sessions, commit
// count, last workflow, uptime and heap usage.
func PrintLiveStatus() {
	if !IsTerminal() {
		return
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(startTime).Round(time.Second)
	memMB := float64(m.Alloc) / 1024 / 1024

	s := Snapshot()

	pulseIcon := "🔴"
	pulseText := "OFFLINE"
	pulseColor := colorNeonMag

	delta := time.Since(s.LastHeartbeat)
	if delta < 40*time.Second {
		pulseIcon = "🟢"
		pulseText = "HEALTHY"
		pulseColor = colorNeonCyan
	} else if delta < 90*time.Second {
		pulseIcon = "🟡"
		pulseText = "LAGGING"
		pulseColor = colorPurple
	}

	spinner := " "
	if s.ActiveSessions > 0 {
		spinner = pulseFrames[pulseIdx]
		pulseIdx = (pulseIdx + 1) % len(pulseFrames)
	}

	last := s.LastWorkflow
	if last == "" {
		last = "Waiting..."
	}

	totalMB := float64(m.Sys) / 1024 / 1024
	memPercent := memMB / totalMB
	barWidth := 20
	filled := clamp(int(memPercent*float64(barWidth)), 0, barWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("▒", barWidth-filled)

	statusStr := fmt.Sprintf(
		"\033[s\033[10;1H\033[K%s[%s] %s%s %-8s%s | %s%d active%s %s | commits %d | last %-8s | [%v] [%s %.1fMB]\033[u",
		colorReset,
		s.LastHeartbeat.Format("15:04:05"),
		pulseColor, pulseIcon, pulseText, colorReset,
		colorBold, s.ActiveSessions, colorReset, spinner,
		s.Commits,
		last,
		uptime,
		bar, memMB,
	)

	termMu.Lock()
	fmt.Fprint(stdout, statusStr)
	termMu.Unlock()
}
