package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	errs "github.com/scijava/javadoc-wrangler/pkg/errors"
	"github.com/scijava/javadoc-wrangler/pkg/javadoc"
	"github.com/scijava/javadoc-wrangler/pkg/linkcheck"
)

// auditCommand lists links to legacy javadoc hosts left in the site.
func (c *CLI) auditCommand() *cobra.Command {
	var (
		showURLs bool
		fail     bool
	)

	cmd := &cobra.Command{
		Use:   "audit [dir]",
		Short: "List links to legacy javadoc hosts left in the site",
		Long: `Scan the HTML pages of the site (or of dir) for links to the legacy
javadoc hosts. Such links remain in components whose POM declares no parent.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, c.configPath)
			if err != nil {
				return err
			}
			pc := cfg.Pipeline()
			root := pc.SiteDir
			if len(args) == 1 {
				root = args[0]
			}

			checker := linkcheck.New(javadoc.NewRewriter(pc.LegacyHosts).Pattern(), c.Logger)
			spinner := newSpinner(cmd.Context(), cmd.ErrOrStderr(), "Scanning "+root)
			spinner.Start()
			report, err := checker.Scan(cmd.Context(), root)
			spinner.Stop()
			if err != nil {
				return err
			}

			files := report.Files()
			if len(files) == 0 {
				printSuccess("No legacy links in %d pages", report.Pages)
				return nil
			}

			printWarning("%d legacy links in %d of %d pages", len(report.Findings), len(files), report.Pages)
			for i, f := range report.Findings {
				if i == 0 || report.Findings[i-1].File != f.File {
					printFile(f.File)
				}
				if showURLs {
					printDetail("    <%s> %s", f.Element, f.URL)
				}
			}
			if report.Errors > 0 {
				printDetail("%d pages could not be parsed", report.Errors)
			}
			if !showURLs {
				printNextStep("Show each link", fmt.Sprintf("%s audit --urls %s", appName, root))
			}
			if fail {
				return errs.New(errs.ErrCodeInvalidInput, "%d legacy links found", len(report.Findings))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showURLs, "urls", false, "print every legacy link")
	cmd.Flags().BoolVar(&fail, "fail", false, "exit with an error when legacy links are found")
	return cmd
}
