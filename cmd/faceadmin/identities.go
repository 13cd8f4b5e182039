package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"faceauth/domain/dto"
	"faceauth/pkg/di"
)

func newIdentitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identities",
		Short: "List and rename enrolled identities",
	}
	cmd.AddCommand(newIdentitiesListCmd())
	cmd.AddCommand(newIdentitiesShowCmd())
	cmd.AddCommand(newIdentitiesRenameCmd())
	return cmd
}

func newIdentitiesListCmd() *cobra.Command {
	var offset, limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List identities in enrollment order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(c *di.Container) error {
				identities, total, err := c.IdentityRepository.List(cmd.Context(), offset, limit)
				if err != nil {
					return fmt.Errorf("failed to list identities: %w", err)
				}
				resp := dto.IdentitiesToListResponse(identities, total)

				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(resp)
				}

				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tNEW\tCREATED")
				for _, i := range resp.Identities {
					fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", i.ID, i.DisplayName, i.IsNewlyEnrolled, i.CreatedAt.Format("2006-01-02 15:04"))
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(out, "\nShowing %d of %d identities\n", len(resp.Identities), resp.Total)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "Number of identities to skip")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of identities to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newIdentitiesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <identity-id>",
		Short: "Show an identity and its enrolled descriptors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid identity id %q: %w", args[0], err)
			}
			return withContainer(func(c *di.Container) error {
				identity, err := c.FaceAuthService.GetIdentity(cmd.Context(), id)
				if err != nil {
					return err
				}
				descriptors, err := c.DescriptorRepository.GetByIdentity(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("failed to load descriptors: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:       %s\n", identity.ID)
				fmt.Fprintf(out, "Name:     %s\n", identity.Name())
				fmt.Fprintf(out, "New:      %v\n", identity.IsNewlyEnrolled)
				fmt.Fprintf(out, "Created:  %s\n", identity.CreatedAt.Format("2006-01-02 15:04"))
				fmt.Fprintf(out, "\nDescriptors: %d\n", len(descriptors))

				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tDIMENSION\tCREATED")
				for _, d := range descriptors {
					fmt.Fprintf(w, "%s\t%d\t%s\n", d.ID, len(d.Vector.Slice()), d.CreatedAt.Format("2006-01-02 15:04"))
				}
				return w.Flush()
			})
		},
	}
}

func newIdentitiesRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <identity-id> <display-name>",
		Short: "Set the display name of an identity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid identity id %q: %w", args[0], err)
			}

			return withContainer(func(c *di.Container) error {
				identity, err := c.FaceAuthService.RenameIdentity(cmd.Context(), id, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", identity.ID, identity.Name())
				return nil
			})
		},
	}
}
