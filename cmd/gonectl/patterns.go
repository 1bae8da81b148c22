package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"go_gone/internal/bootstrap"
	"go_gone/internal/gone"

	"github.com/urfave/cli/v3"
)

var addCmd = &cli.Command{
	Name:      "add",
	Usage:     "Add a pattern",
	ArgsUsage: "<pattern>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "regex",
			Usage:   "Treat the pattern as a regular expression",
			Aliases: []string{"r"},
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		if cmd.Args().Len() != 1 {
			return fmt.Errorf("exactly one pattern required")
		}
		return withWriteApp(ctx, cmd, func(ctx context.Context, app *bootstrap.App) error {
			id, err := app.Store.Add(ctx, cmd.Args().First(), cmd.Bool("regex"))
			if err != nil {
				return err
			}
			fmt.Printf("Added pattern %d\n", id)
			return nil
		})
	},
}

var listCmd = &cli.Command{
	Name:  "list",
	Usage: "List patterns, newest first",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print JSON instead of a table",
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		return withApp(ctx, cmd, func(ctx context.Context, app *bootstrap.App) error {
			rows, err := app.Store.ListAll(ctx)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tPATTERN\tCREATED")
			for _, r := range rows {
				kind := "exact"
				if r.IsRegex {
					kind = "regex"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, kind, r.URLPattern, r.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		})
	},
}

var deleteCmd = &cli.Command{
	Name:      "delete",
	Usage:     "Delete a pattern by id",
	ArgsUsage: "<id>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		ids, err := parseIDs(cmd.Args().Slice())
		if err != nil {
			return err
		}
		if len(ids) != 1 {
			return fmt.Errorf("exactly one id required")
		}
		return withWriteApp(ctx, cmd, func(ctx context.Context, app *bootstrap.App) error {
			removed, err := app.Store.Delete(ctx, ids[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("pattern %d not found", ids[0])
			}
			fmt.Printf("Deleted pattern %d\n", ids[0])
			return nil
		})
	},
}

var bulkDeleteCmd = &cli.Command{
	Name:      "bulk-delete",
	Usage:     "Delete several patterns by id",
	ArgsUsage: "<id> [id...]",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		ids, err := parseIDs(cmd.Args().Slice())
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return fmt.Errorf("at least one id required")
		}
		return withWriteApp(ctx, cmd, func(ctx context.Context, app *bootstrap.App) error {
			n, err := app.Store.DeleteBulk(ctx, ids)
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d of %d patterns\n", n, len(ids))
			return nil
		})
	},
}

var importCmd = &cli.Command{
	Name:      "import",
	Usage:     "Import patterns from a CSV file (url_pattern,is_regex_flag)",
	ArgsUsage: "<file.csv>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		if cmd.Args().Len() != 1 {
			return fmt.Errorf("CSV file path required")
		}

		f, err := os.Open(cmd.Args().First())
		if err != nil {
			return fmt.Errorf("failed to open CSV: %w", err)
		}
		defer f.Close()

		rows, err := gone.ParseCSV(f)
		if err != nil {
			return err
		}

		return withWriteApp(ctx, cmd, func(ctx context.Context, app *bootstrap.App) error {
			res := app.Store.ImportBatch(ctx, rows)
			for _, fail := range res.Failures {
				fmt.Fprintf(os.Stderr, "line %d: %s: %s\n", fail.Line, fail.Pattern, fail.Reason)
			}
			if res.SuccessCount == 0 {
				fmt.Println("No patterns imported")
			}
			fmt.Printf("Imported %d, failed %d, skipped %d\n", res.SuccessCount, res.ErrorCount, res.Skipped)
			return nil
		})
	},
}

var checkCmd = &cli.Command{
	Name:      "check",
	Usage:     "Report whether a path would be answered with 410",
	ArgsUsage: "<path>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		if cmd.Args().Len() != 1 {
			return fmt.Errorf("exactly one path required")
		}
		path := cmd.Args().First()
		return withApp(ctx, cmd, func(ctx context.Context, app *bootstrap.App) error {
			if app.Engine.IsGone(ctx, gone.RequestContext{Method: "GET", URI: path}) {
				fmt.Printf("%s: gone (410)\n", path)
			} else {
				fmt.Printf("%s: live\n", path)
			}
			return nil
		})
	},
}

var convert404Cmd = &cli.Command{
	Name:      "convert-404",
	Usage:     "Show or switch promotion of 404 responses to 410",
	ArgsUsage: "[on|off]",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		arg := cmd.Args().First()
		if arg == "" {
			return withApp(ctx, cmd, func(ctx context.Context, app *bootstrap.App) error {
				fmt.Printf("convert_404_to_410: %s\n", onOff(app.Store.Convert404(ctx)))
				return nil
			})
		}

		enabled, err := parseSwitch(arg)
		if err != nil {
			return err
		}
		return withWriteApp(ctx, cmd, func(ctx context.Context, app *bootstrap.App) error {
			if err := app.Store.SetConvert404(ctx, enabled); err != nil {
				return err
			}
			fmt.Printf("convert_404_to_410: %s\n", onOff(enabled))
			return nil
		})
	},
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil || id < 1 {
				return nil, fmt.Errorf("invalid id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "1", "true", "yes":
		return true, nil
	case "off", "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
