package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/utils/clock"
	"github.com/urfave/cli/v3"
)

func cmdNotice() *cli.Command {
	return &cli.Command{
		Name:    "notice",
		Aliases: []string{"n"},
		Usage:   "Post, browse and manage notices",
		Commands: []*cli.Command{
			cmdNoticePost(),
			cmdNoticeList(),
			cmdNoticeShow(),
			cmdNoticeWatch(),
			cmdNoticeAssign(),
			cmdNoticeStatus(),
		},
	}
}

// queryFlags binds the store query of list and watch.
func queryFlags(q *notice.Query, category, author, direction *string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "category",
			Aliases:     []string{"c"},
			Usage:       "Only notices of this category",
			Destination: category,
		},
		&cli.StringFlag{
			Name:        "author",
			Usage:       "Only notices by this user ID",
			Destination: author,
		},
		&cli.StringFlag{
			Name:        "order-by",
			Usage:       "Order field [timestamp|createdAt|updatedAt|title]",
			Destination: &q.OrderByField,
		},
		&cli.StringFlag{
			Name:        "direction",
			Usage:       "Order direction [asc|desc]",
			Destination: direction,
		},
	}
}

func buildQuery(q notice.Query, category, author, direction string) notice.Query {
	q.Category = types.Category(category)
	q.AuthorID = types.UserID(author)
	q.OrderDirection = types.SortDirection(direction)
	return q
}

func cmdNoticePost() *cli.Command {
	var (
		app      appConfig
		form     notice.Form
		category string
	)

	return &cli.Command{
		Name:  "post",
		Usage: "Submit a notice",
		Flags: joinFlags([]cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Title (at least 5 characters)", Destination: &form.Title},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Description (at least 10 characters)", Destination: &form.Description},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category", Destination: &category},
			&cli.StringFlag{Name: "location", Aliases: []string{"l"}, Usage: "Location", Destination: &form.Location},
			&cli.StringFlag{Name: "tag", Usage: "Optional tag", Destination: &form.Tag},
		}, app.Flags()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer
			form.Category = types.Category(category)

			rt, err := app.build(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()
			defer rt.printToasts(w)()

			created, err := rt.uc.SubmitNotice(ctx, rt.sessions.Session(), form)
			if err != nil {
				for _, v := range errs.ValidationErrorsOf(err) {
					printFieldError(w, v.Field, v.Message)
				}
				return err
			}
			printNotice(w, clock.Now(ctx), created)
			return nil
		},
	}
}

func cmdNoticeList() *cli.Command {
	var (
		app                         appConfig
		q                           notice.Query
		category, author, direction string
		tags                        string
		sortBy                      string
		hidePinned, mine, org       bool
	)

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List notices",
		Flags: joinFlags(queryFlags(&q, &category, &author, &direction), []cli.Flag{
			&cli.StringFlag{Name: "tags", Usage: "Comma separated tags or categories to show", Destination: &tags},
			&cli.StringFlag{Name: "sort", Usage: "Display order [newest|oldest]", Value: string(notice.SortNewest), Destination: &sortBy},
			&cli.BoolFlag{Name: "hide-pinned", Usage: "Hide pinned notices", Destination: &hidePinned},
			&cli.BoolFlag{Name: "mine", Usage: "Only notices posted by the current user", Destination: &mine},
			&cli.BoolFlag{Name: "org", Usage: "Unassigned notices and those assigned to the current organization", Destination: &org},
		}, app.Flags()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer
			rt, err := app.build(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()
			defer rt.printToasts(w)()

			current := rt.sessions.Session()
			var notices notice.Notices
			switch {
			case mine:
				notices, err = rt.uc.ListMyNotices(ctx, current)
			case org:
				notices, err = rt.uc.ListOrgNotices(ctx, current)
			default:
				view := notice.FilterOptions{
					Tags:       splitTags(tags),
					SortBy:     notice.SortBy(sortBy),
					ShowPinned: !hidePinned,
				}
				notices, err = rt.uc.ListNotices(ctx, buildQuery(q, category, author, direction), view)
			}
			if err != nil {
				return err
			}

			printNotices(w, clock.Now(ctx), notices)
			return nil
		},
	}
}

func splitTags(s string) []string {
	var tags []string
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func noticeIDArg(cmd *cli.Command) (types.NoticeID, error) {
	id := types.NoticeID(cmd.Args().First())
	if err := id.Validate(); err != nil {
		return "", goerr.Wrap(err, "notice ID argument is required", goerr.T(errs.TagInvalidRequest))
	}
	return id, nil
}

func cmdNoticeShow() *cli.Command {
	var app appConfig

	return &cli.Command{
		Name:      "show",
		Usage:     "Show a notice",
		ArgsUsage: "NOTICE_ID",
		Flags:     app.Flags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := noticeIDArg(cmd)
			if err != nil {
				return err
			}

			rt, err := app.build(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			n, err := rt.uc.GetNotice(ctx, rt.sessions.Session(), id)
			if err != nil {
				return err
			}
			printNotice(cmd.Root().Writer, clock.Now(ctx), n)
			return nil
		},
	}
}

func cmdNoticeWatch() *cli.Command {
	var (
		app                         appConfig
		q                           notice.Query
		category, author, direction string
	)

	return &cli.Command{
		Name:  "watch",
		Usage: "Follow the realtime notice feed until interrupted",
		Flags: joinFlags(queryFlags(&q, &category, &author, &direction), app.Flags()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer
			filter := buildQuery(q, category, author, direction)
			if err := filter.Validate(); err != nil {
				return goerr.Wrap(err, "invalid filter", goerr.T(errs.TagInvalidRequest))
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := app.build(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()
			defer rt.printToasts(w)()

			sub := rt.feed.Subscribe(ctx, filter)
			defer sub.Close()

			for {
				select {
				case <-ctx.Done():
					return nil
				case state, ok := <-sub.Updates():
					if !ok {
						return nil
					}
					printFeedState(w, clock.Now(ctx), state)
				}
			}
		},
	}
}

func cmdNoticeAssign() *cli.Command {
	var app appConfig

	return &cli.Command{
		Name:      "assign",
		Usage:     "Claim a notice for the current organization",
		ArgsUsage: "NOTICE_ID",
		Flags:     app.Flags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer
			id, err := noticeIDArg(cmd)
			if err != nil {
				return err
			}

			rt, err := app.build(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()
			defer rt.printToasts(w)()

			n, err := rt.uc.AssignNotice(ctx, rt.sessions.Session(), id)
			if err != nil {
				return err
			}
			printNotice(w, clock.Now(ctx), n)
			return nil
		},
	}
}

func cmdNoticeStatus() *cli.Command {
	var app appConfig

	return &cli.Command{
		Name:      "status",
		Usage:     "Advance the status of an assigned notice",
		ArgsUsage: "NOTICE_ID STATUS",
		Flags:     app.Flags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer
			id, err := noticeIDArg(cmd)
			if err != nil {
				return err
			}
			status := types.NoticeStatus(cmd.Args().Get(1))

			rt, err := app.build(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()
			defer rt.printToasts(w)()

			n, err := rt.uc.UpdateNoticeStatus(ctx, rt.sessions.Session(), id, status)
			if err != nil {
				return err
			}
			printNotice(w, clock.Now(ctx), n)
			return nil
		},
	}
}
