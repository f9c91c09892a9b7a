package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"playmap/internal/app"
	"playmap/internal/playmap"

	"github.com/spf13/cobra"
)

// add command
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a playground",
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := locationFromFlags(cmd)
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		rating, _ := cmd.Flags().GetInt("rating")
		notes, _ := cmd.Flags().GetString("notes")

		return withApp(cmd, func(ctx context.Context, a *app.PlaymapApp) error {
			p, err := a.AddPlayground(ctx, playmap.Draft{
				Name:     name,
				Location: loc,
				Rating:   rating,
				Notes:    notes,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Added playground %s\n", p.ID)
			return nil
		})
	},
}

// update command
var updateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Update a playground",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var u playmap.Update
		flags := cmd.Flags()

		if flags.Changed("name") {
			name, _ := flags.GetString("name")
			u.Name = &name
		}
		if flags.Changed("rating") {
			rating, _ := flags.GetInt("rating")
			u.Rating = &rating
		}
		if flags.Changed("notes") {
			notes, _ := flags.GetString("notes")
			u.Notes = &notes
		}
		if flags.Changed("address") || flags.Changed("coords") {
			loc, err := locationFromFlags(cmd)
			if err != nil {
				return err
			}
			u.Location = &loc
		}

		return withApp(cmd, func(ctx context.Context, a *app.PlaymapApp) error {
			p, err := a.UpdatePlayground(ctx, args[0], u)
			if err != nil {
				return err
			}
			fmt.Printf("Updated playground %s\n", p.ID)
			return nil
		})
	},
}

// delete command
var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a playground and its photos",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.PlaymapApp) error {
			if err := a.DeletePlayground(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted playground %s\n", args[0])
			return nil
		})
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List playgrounds",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()

		sortFlag, _ := flags.GetString("sort")
		sortBy, err := playmap.ParseSortOption(sortFlag)
		if err != nil {
			return err
		}

		var filter playmap.Filter
		filter.Ratings, _ = flags.GetIntSlice("rating")
		if flags.Changed("has-photos") {
			hasPhotos, _ := flags.GetBool("has-photos")
			filter.HasPhotos = &hasPhotos
		}

		var ref *playmap.Coordinates
		if near, _ := flags.GetString("near"); near != "" {
			c, err := parseCoordinates(near)
			if err != nil {
				return err
			}
			ref = &c
		}

		return withApp(cmd, func(ctx context.Context, a *app.PlaymapApp) error {
			list := a.ListPlaygrounds(sortBy, filter, ref)
			if len(list) == 0 {
				fmt.Println("No playgrounds.")
				return nil
			}
			for _, p := range list {
				distance := ""
				if ref != nil && p.HasCoordinates() {
					distance = fmt.Sprintf("  %.2f km", playmap.Distance(*ref, *p.Location.Coordinates))
				}
				fmt.Printf("%s  %d/5  %-30s  %d photo(s)%s\n", p.ID, p.Rating, p.Name, len(p.Photos), distance)
			}
			return nil
		})
	},
}

// show command
var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a playground",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.PlaymapApp) error {
			p, err := a.GetPlayground(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("ID:        %s\n", p.ID)
			fmt.Printf("Name:      %s\n", p.Name)
			fmt.Printf("Rating:    %d/5\n", p.Rating)
			if p.Location.Address != "" {
				fmt.Printf("Address:   %s\n", p.Location.Address)
			}
			if c := p.Location.Coordinates; c != nil {
				fmt.Printf("Location:  %.6f, %.6f\n", c.Latitude, c.Longitude)
			}
			if p.Notes != "" {
				fmt.Printf("Notes:     %s\n", p.Notes)
			}
			fmt.Printf("Added:     %s\n", p.DateAdded.Local().Format("2006-01-02 15:04:05"))
			fmt.Printf("Modified:  %s\n", p.DateModified.Local().Format("2006-01-02 15:04:05"))
			for _, uri := range p.Photos {
				fmt.Printf("Photo:     %s\n", uri)
			}
			return nil
		})
	},
}

// locationFromFlags builds a location from --address and --coords.
func locationFromFlags(cmd *cobra.Command) (playmap.Location, error) {
	var loc playmap.Location
	loc.Address, _ = cmd.Flags().GetString("address")

	if raw, _ := cmd.Flags().GetString("coords"); raw != "" {
		c, err := parseCoordinates(raw)
		if err != nil {
			return playmap.Location{}, err
		}
		loc.Coordinates = &c
	}
	return loc, nil
}

// parseCoordinates parses "lat,lng".
func parseCoordinates(s string) (playmap.Coordinates, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return playmap.Coordinates{}, fmt.Errorf("coordinates must be lat,lng: %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return playmap.Coordinates{}, fmt.Errorf("invalid latitude %q: %w", parts[0], err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return playmap.Coordinates{}, fmt.Errorf("invalid longitude %q: %w", parts[1], err)
	}
	return playmap.Coordinates{Latitude: lat, Longitude: lng}, nil
}

func init() {
	for _, cmd := range []*cobra.Command{addCmd, updateCmd} {
		cmd.Flags().StringP("name", "n", "", "Playground name")
		cmd.Flags().StringP("address", "a", "", "Street address")
		cmd.Flags().String("coords", "", "GPS position as lat,lng")
		cmd.Flags().IntP("rating", "r", 0, "Rating from 1 to 5")
		cmd.Flags().String("notes", "", "Free-form notes")
	}

	listCmd.Flags().StringP("sort", "s", "dateAdded", "Sort by name, rating, dateAdded or distance")
	listCmd.Flags().IntSliceP("rating", "r", nil, "Only show these ratings (repeatable)")
	listCmd.Flags().Bool("has-photos", false, "Only show playgrounds with (or, with =false, without) photos")
	listCmd.Flags().String("near", "", "Reference position as lat,lng for distance sorting")
}
