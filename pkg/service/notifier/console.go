package notifier

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/secmon-lab/notifyme/pkg/domain/event"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
)

// ConsoleNotifier prints notice workflow events to the console with color
// formatting. Used by the CLI and for local development.
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleNotifier creates a console notifier writing to w. A nil w
// writes to color.Output.
func NewConsoleNotifier(w io.Writer) interfaces.Notifier {
	if w == nil {
		w = color.Output
	}
	return &ConsoleNotifier{w: w}
}

func (n *ConsoleNotifier) NotifyNoticeCreated(ctx context.Context, ev *event.NoticeCreatedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	printNoticeCreated(n.w, ev)
}

func (n *ConsoleNotifier) NotifyNoticeAssigned(ctx context.Context, ev *event.NoticeAssignedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	printNoticeAssigned(n.w, ev)
}

func (n *ConsoleNotifier) NotifyNoticeStatusChanged(ctx context.Context, ev *event.NoticeStatusChangedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	printNoticeStatusChanged(n.w, ev)
}

func (n *ConsoleNotifier) NotifyError(ctx context.Context, ev *event.ErrorEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	printError(n.w, ev)
}

func printNoticeCreated(w io.Writer, e *event.NoticeCreatedEvent) {
	blue := color.New(color.FgBlue, color.Bold)
	gray := color.New(color.FgHiBlack)

	blue.Fprintf(w, "New Notice: ")
	fmt.Fprintf(w, "%s\n", e.Notice.Title)
	printNoticeDetails(w, e.Notice)
	if e.Notice.Description != "" {
		gray.Fprintf(w, "  %s\n", e.Notice.Description)
	}
}

func printNoticeAssigned(w io.Writer, e *event.NoticeAssignedEvent) {
	cyan := color.New(color.FgCyan, color.Bold)

	cyan.Fprintf(w, "Notice Assigned: ")
	fmt.Fprintf(w, "%s -> %s\n", e.Notice.Title, e.OrgName)
	printNoticeDetails(w, e.Notice)
}

func printNoticeStatusChanged(w io.Writer, e *event.NoticeStatusChangedEvent) {
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow)

	green.Fprintf(w, "Status Changed: ")
	fmt.Fprintf(w, "%s\n", e.Notice.Title)
	yellow.Fprintf(w, "  %s -> %s\n", e.From, e.To)
}

func printNoticeDetails(w io.Writer, n *notice.Notice) {
	yellow := color.New(color.FgYellow)

	yellow.Fprintf(w, "  Category: ")
	fmt.Fprintf(w, "%s\n", n.Category)
	yellow.Fprintf(w, "  Location: ")
	fmt.Fprintf(w, "%s\n", n.Location)
	if n.Author != "" {
		yellow.Fprintf(w, "  Author: ")
		fmt.Fprintf(w, "%s\n", n.Author)
	}
	yellow.Fprintf(w, "  Posted: ")
	fmt.Fprintf(w, "%s\n", notice.FormatTimestamp(n.Timestamp))
}

func printError(w io.Writer, e *event.ErrorEvent) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(w, "Error: %s\n", e.Message)

	if e.Error != nil {
		gray := color.New(color.FgHiBlack)
		gray.Fprintf(w, "  %v\n", e.Error)
	}
}
