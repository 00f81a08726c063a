package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/multilink-dev/multilink/internal/errors"
)

// report is the end-of-run summary of one node.
type report struct {
	Node       string `yaml:"node"`
	State      string `yaml:"state"`
	Role       string `yaml:"role"`
	Sessions   uint64 `yaml:"sessions"`
	TxFrames   uint64 `yaml:"tx_frames"`
	RxFrames   uint64 `yaml:"rx_frames"`
	TxLoss     uint64 `yaml:"tx_loss"`
	RxLoss     uint64 `yaml:"rx_loss"`
	Saturation int    `yaml:"saturation_percent"`
	Sent       uint64 `yaml:"events_sent"`
	Received   uint64 `yaml:"events_received"`
	PeerPoses  uint64 `yaml:"peer_poses"`
	QuickChats uint64 `yaml:"quick_chats"`
	Levels     int    `yaml:"levels"`
	Seed       string `yaml:"seed"`
	Result     string `yaml:"result"`
}

func (n *node) report() report {
	st := n.link.State()
	c := n.link.Counters()
	d := n.session.Dispatcher().Stats()

	role := "-"
	if n.session.Connected() {
		role = st.Role.String()
	}
	result := "ok"
	switch {
	case n.lastSession != nil:
		result = errors.FromLink(n.lastSession).Code
	case n.session.PeerLeft():
		result = "peer left"
	}

	return report{
		Node:       n.name,
		State:      st.State.String(),
		Role:       role,
		Sessions:   c.Sessions,
		TxFrames:   c.TxCount,
		RxFrames:   c.RxCount,
		TxLoss:     c.TxLoss,
		RxLoss:     c.RxLoss,
		Saturation: n.window.SaturationPercent,
		Sent:       d.Sent,
		Received:   d.Received,
		PeerPoses:  n.peerPoses,
		QuickChats: n.quickChats,
		Levels:     n.levels,
		Seed:       fmt.Sprintf("%08x", n.gen.State()),
		Result:     result,
	}
}

var (
	headerCellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			PaddingRight(1)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			PaddingRight(1)

	// altRowStyle stripes every other row.
	altRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Background(lipgloss.Color("236")).
			PaddingRight(1)
)

// stateColor returns the foreground colour for a link state.
func stateColor(state string) lipgloss.Color {
	switch state {
	case "connected":
		return lipgloss.Color("2") // green
	case "negotiating":
		return lipgloss.Color("3") // yellow
	case "disconnected":
		return lipgloss.Color("1") // red
	default:
		return lipgloss.Color("8") // grey
	}
}

var reportColumns = []struct {
	title string
	width int
	value func(r report) string
}{
	{"NODE", 8, func(r report) string { return r.Node }},
	{"STATE", 13, func(r report) string { return r.State }},
	{"ROLE", 6, func(r report) string { return r.Role }},
	{"SESS", 5, func(r report) string { return strconv.FormatUint(r.Sessions, 10) }},
	{"TX", 8, func(r report) string { return strconv.FormatUint(r.TxFrames, 10) }},
	{"RX", 8, func(r report) string { return strconv.FormatUint(r.RxFrames, 10) }},
	{"LOSS", 9, func(r report) string { return fmt.Sprintf("%d/%d", r.TxLoss, r.RxLoss) }},
	{"SAT", 5, func(r report) string { return fmt.Sprintf("%d%%", r.Saturation) }},
	{"EVENTS", 11, func(r report) string { return fmt.Sprintf("%d/%d", r.Sent, r.Received) }},
	{"LEVELS", 7, func(r report) string { return strconv.Itoa(r.Levels) }},
	{"SEED", 9, func(r report) string { return r.Seed }},
	{"RESULT", 10, func(r report) string { return r.Result }},
}

// renderReports lays the reports out as a striped table.
func renderReports(reports []report) string {
	cells := make([]string, len(reportColumns))
	for i, col := range reportColumns {
		cells[i] = headerCellStyle.Width(col.width).Render(col.title)
	}
	rows := []string{strings.Join(cells, "")}

	for i, r := range reports {
		style := rowStyle
		if i%2 == 0 {
			style = altRowStyle
		}
		cells := make([]string, len(reportColumns))
		for j, col := range reportColumns {
			v := truncate(col.value(r), col.width-1)
			if col.title == "STATE" {
				cells[j] = lipgloss.NewStyle().
					Width(col.width).
					Foreground(stateColor(r.State)).
					Render(v)
				continue
			}
			cells[j] = style.Width(col.width).Render(v)
		}
		rows = append(rows, strings.Join(cells, ""))
	}
	return strings.Join(rows, "\n")
}

// writeReports prints reports in the given format: table or yaml.
func writeReports(w io.Writer, format string, reports []report) error {
	switch format {
	case "", "table":
		fmt.Fprintln(w, renderReports(reports))
		return nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	default:
		return checkOutput(format)
	}
}

// checkOutput validates an --output flag before a run starts.
func checkOutput(format string) error {
	switch format {
	case "", "table", "yaml":
		return nil
	}
	return errors.New("L203").
		WithField("output", format).
		WithDetail("The output format must be table or yaml.")
}

// truncate shortens s to maxLen runes, marking the cut with an ellipsis.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen == 1 {
		return string(runes[:1])
	}
	return string(runes[:maxLen-1]) + "…"
}
