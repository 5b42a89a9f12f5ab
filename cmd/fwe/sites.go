package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/knowledge-engine/fwe/internal/sites"
)

func newSitesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "Inspect the configured crawl sites",
	}
	cmd.AddCommand(newSitesListCommand(a), newSitesCheckCommand(a))
	return cmd
}

func newSitesListCommand(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List crawl sites with their feed files and job directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := sites.Load(a.cfg.Sites.Path)
			if err != nil {
				return err
			}

			list := set.Enabled()
			if all {
				list = set.All()
			}
			renderSites(cmd.OutOrStdout(), list, a.cfg.Sites.FeedDir, a.cfg.Sites.CrawlDir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include disabled sites")
	return cmd
}

func renderSites(w io.Writer, list []sites.Site, feedDir, crawlDir string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Start URLs", "Domains", "Allow", "Deny", "Enabled", "Feed", "Job"})
	for _, s := range list {
		t.AppendRow(table.Row{
			s.Name,
			strings.Join(s.StartURLs, "\n"),
			strings.Join(s.AllowedDomains, "\n"),
			len(s.Allow),
			len(s.Deny) + len(s.DenyDomains),
			!s.Disabled,
			s.FeedPath(feedDir),
			s.JobPath(crawlDir),
		})
	}
	t.Render()
}

func newSitesCheckCommand(a *app) *cobra.Command {
	var siteName, robotsFile string

	cmd := &cobra.Command{
		Use:   "check URL",
		Short: "Report whether a site's crawl would follow a link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := sites.Load(a.cfg.Sites.Path)
			if err != nil {
				return err
			}

			target := args[0]
			var site sites.Site
			if siteName != "" {
				site, err = set.Lookup(siteName)
				if err != nil {
					return err
				}
			} else {
				var ok bool
				site, ok = set.Match(target)
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: no site covers this host\n", target)
					return nil
				}
			}

			policy, err := sitePolicy(site, robotsFile)
			if err != nil {
				return err
			}

			if ok, reason := policy.Check(target); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: allowed by %s\n", target, site.Name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: refused by %s (%s)\n", target, site.Name, reason)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&siteName, "site", "", "site to check against (default: matched by host)")
	cmd.Flags().StringVar(&robotsFile, "robots", "", "robots.txt file to apply")
	return cmd
}

func sitePolicy(site sites.Site, robotsFile string) (*sites.Policy, error) {
	policy, err := site.Policy()
	if err != nil {
		return nil, err
	}
	if robotsFile == "" {
		return policy, nil
	}
	data, err := os.ReadFile(robotsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read robots.txt: %w", err)
	}
	return policy.WithRobots(data, "")
}
