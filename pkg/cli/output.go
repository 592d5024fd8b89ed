package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notification"
	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/service/feed"
)

var toastColors = map[types.MessageType]*color.Color{
	types.MessageSuccess: color.New(color.FgGreen, color.Bold),
	types.MessageError:   color.New(color.FgRed, color.Bold),
	types.MessageWarning: color.New(color.FgYellow, color.Bold),
	types.MessageInfo:    color.New(color.FgBlue, color.Bold),
}

func printToast(w io.Writer, t notification.Toast) {
	c, ok := toastColors[t.Type]
	if !ok {
		c = toastColors[types.MessageInfo]
	}
	c.Fprintf(w, "[%s] ", t.Type)
	if t.Title != "" {
		fmt.Fprintf(w, "%s: ", t.Title)
	}
	fmt.Fprintln(w, t.Message)
}

func printSession(w io.Writer, s session.Session) {
	if !s.IsAuthenticated() {
		color.New(color.FgHiBlack).Fprintln(w, "Not logged in")
		return
	}

	bold := color.New(color.Bold)
	bold.Fprintf(w, "%s", s.User.Name)
	fmt.Fprintf(w, " <%s>\n", s.User.Email)
	fmt.Fprintf(w, "  Role: %s\n", s.Role.Label())
	if s.OrgName != "" {
		fmt.Fprintf(w, "  Organization: %s\n", s.OrgName)
	}
	fmt.Fprintf(w, "  ID: %s\n", s.User.ID)
}

func printNotices(w io.Writer, now time.Time, notices notice.Notices) {
	if len(notices) == 0 {
		color.New(color.FgHiBlack).Fprintln(w, "No notices")
		return
	}
	for _, n := range notices {
		printNoticeLine(w, now, n)
	}
	color.New(color.FgHiBlack).Fprintf(w, "%s notices\n", humanize.Comma(int64(len(notices))))
}

func printNoticeLine(w io.Writer, now time.Time, n *notice.Notice) {
	gray := color.New(color.FgHiBlack)
	if n.IsPinned {
		color.New(color.FgMagenta).Fprint(w, "[pinned] ")
	}
	color.New(color.Bold).Fprint(w, n.Title)
	fmt.Fprintf(w, "  %s", n.EffectiveStatus().Label())
	if n.AssignedOrg != "" {
		fmt.Fprintf(w, " (%s)", n.AssignedOrg)
	}
	fmt.Fprintln(w)
	gray.Fprintf(w, "  %s | %s | %s | %s\n", n.ID, n.Category, n.Location, n.Age(now))
}

func printNotice(w io.Writer, now time.Time, n *notice.Notice) {
	printNoticeLine(w, now, n)
	if n.Author != "" {
		fmt.Fprintf(w, "  Author: %s\n", n.Author)
	}
	fmt.Fprintf(w, "  Posted: %s\n", notice.FormatTimestamp(n.Timestamp))
	if n.Description != "" {
		fmt.Fprintf(w, "\n  %s\n", n.Description)
	}
}

func printFeedState(w io.Writer, now time.Time, state feed.State) {
	switch {
	case state.Err != nil:
		color.New(color.FgRed).Fprintf(w, "Feed error: %s\n", state.Error())
	case state.Loading:
		color.New(color.FgHiBlack).Fprintln(w, "Loading notices...")
	default:
		color.New(color.FgCyan, color.Bold).Fprintf(w, "--- %s ---\n", now.Local().Format("15:04:05"))
		printNotices(w, now, state.Notices)
	}
}

func printFieldError(w io.Writer, field, message string) {
	color.New(color.FgRed).Fprintf(w, "  %s: ", field)
	fmt.Fprintln(w, message)
}
