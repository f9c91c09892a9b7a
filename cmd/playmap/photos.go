package main

import (
	"context"
	"fmt"

	"playmap/internal/app"

	"github.com/spf13/cobra"
)

// photo command
var photoCmd = &cobra.Command{
	Use:   "photo",
	Short: "Manage playground photos",
}

var photoAddCmd = &cobra.Command{
	Use:   "add ID FILE",
	Short: "Attach a photo to a playground",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		thumbnail, _ := cmd.Flags().GetString("thumbnail")

		return withApp(cmd, func(ctx context.Context, a *app.PlaymapApp) error {
			uri, err := a.AddPhoto(ctx, args[0], args[1], thumbnail)
			if err != nil {
				return err
			}
			fmt.Printf("Stored %s\n", uri)
			return nil
		})
	},
}

var photoListCmd = &cobra.Command{
	Use:   "list ID",
	Short: "List the photos of a playground",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.PlaymapApp) error {
			photos, err := a.ListPhotos(ctx, args[0])
			if err != nil {
				return err
			}
			if len(photos) == 0 {
				fmt.Println("No photos.")
				return nil
			}
			for _, p := range photos {
				thumb := ""
				if p.Thumbnail != "" {
					thumb = "  [thumbnail]"
				}
				fmt.Printf("%s  %s%s\n", p.Timestamp.Local().Format("2006-01-02 15:04:05"), p.URI, thumb)
			}
			return nil
		})
	},
}

var photoRemoveCmd = &cobra.Command{
	Use:   "remove ID URI",
	Short: "Detach and delete a photo",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.PlaymapApp) error {
			if err := a.RemovePhoto(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", args[1])
			return nil
		})
	},
}

func init() {
	photoCmd.AddCommand(photoAddCmd)
	photoCmd.AddCommand(photoListCmd)
	photoCmd.AddCommand(photoRemoveCmd)
	photoAddCmd.Flags().StringP("thumbnail", "t", "", "Thumbnail file to store alongside the photo")
}
