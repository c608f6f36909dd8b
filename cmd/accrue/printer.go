package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/accrue"
	"github.com/mattn/go-runewidth"
)

// detailWidth bounds the printed detail of one event, in terminal cells.
const detailWidth = 96

// printer writes one line per event. Styles degrade to plain text when w is
// not a terminal.
type printer struct {
	w     io.Writer
	label lipgloss.Style
	dim   lipgloss.Style
	fail  lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:     w,
		label: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		dim:   r.NewStyle().Foreground(lipgloss.Color("245")),
		fail:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
}

func (p *printer) event(evt accrue.Event) {
	name, detail := describe(evt)
	p.line(p.label.Render(name), detail)
}

func (p *printer) serverError(err *accrue.ServerError) {
	p.line(p.fail.Render("error"), fmt.Sprintf("kind=%s message=%q", err.Kind, err.Message))
}

func (p *printer) toolInput(ti accrue.ToolInput) {
	head := p.label.Render(fmt.Sprintf("[%d] %s", ti.Index, ti.Name))
	if ti.Done {
		p.line(head, fmt.Sprintf("id=%s input=%s", ti.ID, ti.Input))
		return
	}
	p.line(head, p.dim.Render("+"+ti.Fragment))
}

func (p *printer) line(head, detail string) {
	detail = runewidth.Truncate(detail, detailWidth, "...")
	if detail == "" {
		fmt.Fprintln(p.w, head)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", head, detail)
}

// describe returns the wire name of evt and a one-line summary of its fields.
func describe(evt accrue.Event) (string, string) {
	switch e := evt.(type) {
	case accrue.EventMessageStart:
		return "message_start", fmt.Sprintf("id=%s model=%s", e.Message.ID, e.Message.Model)
	case accrue.EventContentBlockStart:
		return "content_block_start", fmt.Sprintf("index=%d %s", e.Index, describeBlock(e.Block))
	case accrue.EventContentBlockDelta:
		return "content_block_delta", fmt.Sprintf("index=%d %s", e.Index, describeDelta(e.Delta))
	case accrue.EventContentBlockStop:
		return "content_block_stop", fmt.Sprintf("index=%d", e.Index)
	case accrue.EventMessageDelta:
		var b strings.Builder
		if e.StopReason != "" {
			fmt.Fprintf(&b, "stop_reason=%s ", e.StopReason)
		}
		if e.StopSequence != nil {
			fmt.Fprintf(&b, "stop_sequence=%q ", *e.StopSequence)
		}
		if e.Usage.OutputTokens != nil {
			fmt.Fprintf(&b, "output_tokens=%d", *e.Usage.OutputTokens)
		}
		return "message_delta", strings.TrimSpace(b.String())
	case accrue.EventMessageStop:
		return "message_stop", ""
	case accrue.EventPing:
		return "ping", ""
	case accrue.EventUnrecognized:
		return e.Type, string(e.Data)
	default:
		return fmt.Sprintf("%T", evt), ""
	}
}

func describeBlock(b accrue.ContentBlock) string {
	switch b := b.(type) {
	case accrue.TextBlock:
		return fmt.Sprintf("text=%q", b.Text)
	case accrue.ToolUseBlock:
		return fmt.Sprintf("tool_use id=%s name=%s", b.ID, b.Name)
	case accrue.ImageBlock:
		return "image"
	case accrue.UnknownBlock:
		return b.Type
	default:
		return fmt.Sprintf("%T", b)
	}
}

func describeDelta(d accrue.Delta) string {
	switch d := d.(type) {
	case accrue.TextDelta:
		return fmt.Sprintf("text=%q", d.Text)
	case accrue.InputJSONDelta:
		return fmt.Sprintf("partial_json=%q", d.PartialJSON)
	case accrue.UnknownDelta:
		return d.Type
	default:
		return fmt.Sprintf("%T", d)
	}
}
