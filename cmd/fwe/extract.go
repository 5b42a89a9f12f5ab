package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/knowledge-engine/fwe/internal/feed"
	"github.com/knowledge-engine/fwe/internal/page"
	"github.com/knowledge-engine/fwe/internal/sites"
)

func newExtractCommand(a *app) *cobra.Command {
	var siteName, pageURL, robotsFile string
	var minTokens int

	cmd := &cobra.Command{
		Use:   "extract FILE.html...",
		Short: "Append the text of saved HTML pages to a site's feed file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := sites.Load(a.cfg.Sites.Path)
			if err != nil {
				return err
			}
			site, err := set.Lookup(siteName)
			if err != nil {
				return err
			}
			if len(args) > 1 && pageURL != "" {
				return fmt.Errorf("--url applies to a single page, got %d files", len(args))
			}
			policy, err := sitePolicy(site, robotsFile)
			if err != nil {
				return err
			}

			w, err := feed.OpenWriter(a.cfg.Sites.FeedDir, site.Name)
			if err != nil {
				return err
			}
			defer w.Close()

			log := a.log().WithFields(logrus.Fields{"component": "extract", "site": site.Name})
			for _, path := range args {
				u := pageURL
				if u == "" {
					u = "file://" + path
				}

				p, err := parsePage(path, u, minTokens)
				if err != nil {
					return err
				}
				if err := w.Write(p.Record()); err != nil {
					return err
				}

				follow := 0
				for _, link := range p.Links {
					if policy.Allows(link) {
						follow++
					}
				}
				log.WithFields(logrus.Fields{
					"url":    u,
					"texts":  len(p.Texts),
					"links":  len(p.Links),
					"follow": follow,
				}).Info("Page extracted")
			}

			if err := w.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d pages appended to %s\n", len(args), w.Path())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&siteName, "site", "", "site the pages belong to")
	f.StringVar(&pageURL, "url", "", "URL the page was fetched from")
	f.StringVar(&robotsFile, "robots", "", "robots.txt file used when counting followable links")
	f.IntVar(&minTokens, "min-tokens", page.DefaultMinTokens, "minimum tokens per text node")
	_ = cmd.MarkFlagRequired("site")
	return cmd
}

func parsePage(path, rawURL string, minTokens int) (*page.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()
	return page.Parse(rawURL, f, minTokens)
}
