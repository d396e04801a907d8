package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/payroll-batch/internal/batch"
	"github.com/ginjaninja78/payroll-batch/internal/ingest"
	"github.com/ginjaninja78/payroll-batch/internal/xlsxparser"
	"github.com/ginjaninja78/payroll-batch/internal/xmlwriter"
)

var (
	templateOut     string
	templateProfile string
	templateRows    int
	templateXSD     string
)

// templateCmd represents the 'template' command.
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write an XLSX template for a profile",
	Long: `The template command writes a workbook whose header row holds the profile's
column labels, followed by --rows blank rows with their defaults filled in
(today's date, generated identifiers). The workbook imports back unchanged.

With --xsd, an XSD describing the XML output of the profile is written too.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile := templateProfile
		if profile == "" {
			profile = appConfig.DefaultProfile
		}
		s, err := registry.Lookup(profile)
		if err != nil {
			return err
		}

		b := batch.New(s, ingest.NewBatchID(appConfig.BatchIDPrefix, timeNow()), batch.WithClock(timeNow), batch.WithLogger(logger))
		for i := 0; i < templateRows; i++ {
			b.AddRow()
		}

		f, err := os.Create(templateOut)
		if err != nil {
			return fmt.Errorf("failed to create template: %w", err)
		}
		defer f.Close()

		if err := xlsxparser.WriteTemplate(f, s, b.Rows()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Template for profile %s written to %s\n", s.Name, templateOut)

		if templateXSD != "" {
			if err := os.WriteFile(templateXSD, xmlwriter.GenerateXSD(s), 0644); err != nil {
				return fmt.Errorf("failed to write XSD: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "XSD written to %s\n", templateXSD)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)

	templateCmd.Flags().StringVarP(&templateOut, "out", "o", "", "Path of the workbook to write")
	templateCmd.Flags().StringVarP(&templateProfile, "profile", "p", "", "Batch profile (default from config)")
	templateCmd.Flags().IntVar(&templateRows, "rows", 0, "Number of blank rows to include")
	templateCmd.Flags().StringVar(&templateXSD, "xsd", "", "Also write an XSD for the XML output to this path")
	templateCmd.MarkFlagRequired("out")
}
