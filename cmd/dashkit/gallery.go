package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/dashkit/pkg/upload"
)

func galleryCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Manage gallery images",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload images to the gallery",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, board, err := c.mount(cmd)
			if err != nil {
				return err
			}
			defer board.Close()

			sel := upload.NewSelection()
			defer sel.Clear()
			for _, path := range args {
				f, err := upload.Open(path)
				if err != nil {
					return err
				}
				sel.Add(f)
			}

			urls, err := board.Gallery.Upload(ctx, sel)
			if err != nil {
				return failed(cmd, err, "upload images")
			}
			success(cmd.OutOrStdout(), "Uploaded %d image(s)", len(urls))
			for _, u := range urls {
				info(cmd.OutOrStdout(), "%s", u)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List gallery images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, board, err := c.mount(cmd)
			if err != nil {
				return err
			}
			defer board.Close()

			if err := board.Gallery.Fetch(ctx); err != nil {
				return failed(cmd, err, "load gallery")
			}
			for _, u := range board.Gallery.Data().Images {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		},
	})
	return cmd
}
