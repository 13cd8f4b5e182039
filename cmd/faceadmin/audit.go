package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"faceauth/pkg/di"
)

var errAuditFailed = errors.New("descriptor audit found integrity problems")

func newAuditCmd() *cobra.Command {
	var asJSON, strict bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check stored descriptors for integrity problems",
		Long: `Reports descriptors whose length differs from DESCRIPTOR_DIMENSION and
identities that have no descriptor. With --strict the command exits non-zero
when problems are found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(c *di.Container) error {
				report, err := c.AuditService.AuditDescriptors(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					if err := enc.Encode(report); err != nil {
						return err
					}
				} else {
					fmt.Fprintf(out, "Identities:               %d\n", report.TotalIdentities)
					fmt.Fprintf(out, "Descriptors:              %d\n", report.TotalDescriptors)
					fmt.Fprintf(out, "Expected dimension:       %d\n", report.ExpectedDimension)
					fmt.Fprintf(out, "Mismatched descriptors:   %d\n", len(report.MismatchedDescriptors))
					for _, id := range report.MismatchedDescriptors {
						fmt.Fprintf(out, "  - %s\n", id)
					}
					fmt.Fprintf(out, "Identities without faces: %d\n", report.IdentitiesWithoutFaces)
				}

				if strict && !report.Healthy() {
					return errAuditFailed
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when problems are found")
	return cmd
}
