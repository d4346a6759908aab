package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/facetrack/internal/geometry"
)

var videoboxCmd = &cobra.Command{
	Use:   "videobox SURFACE APERTURE",
	Short: "Print the letterbox of an aperture on a display surface",
	Long: `Print the aspect-fill video box of a camera aperture on a display surface.
Sizes are given as WIDTHxHEIGHT, for example:

  facetrack videobox 400x800 640x480`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		surface, err := parseSize(args[0])
		if err != nil {
			return err
		}
		aperture, err := parseSize(args[1])
		if err != nil {
			return err
		}

		box, err := geometry.VideoBox(surface, aperture)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatRect(box))
		return nil
	},
}

var mapCmd = &cobra.Command{
	Use:   "map RECT SURFACE APERTURE",
	Short: "Map a sensor-space face rectangle onto a display surface",
	Long: `Map a face bounding box from camera sensor coordinates onto a display surface.
RECT is X,Y,WIDTH,HEIGHT; sizes are WIDTHxHEIGHT, for example:

  facetrack map 100,50,200,160 400x800 640x480

A RECT with a negative origin must follow "--" so it is not read as a flag:

  facetrack map -- -5,-5,10,10 400x800 640x480`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := parseRect(args[0])
		if err != nil {
			return err
		}
		surface, err := parseSize(args[1])
		if err != nil {
			return err
		}
		aperture, err := parseSize(args[2])
		if err != nil {
			return err
		}

		rect, err := geometry.MapToDisplay(raw, surface, aperture)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatRect(rect))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(videoboxCmd)
	rootCmd.AddCommand(mapCmd)
}

// parseSize parses "WIDTHxHEIGHT".
func parseSize(s string) (geometry.Size, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return geometry.Size{}, fmt.Errorf("size %q: expected WIDTHxHEIGHT", s)
	}
	values, err := parseFloats(parts)
	if err != nil {
		return geometry.Size{}, fmt.Errorf("size %q: %w", s, err)
	}
	return geometry.Size{Width: values[0], Height: values[1]}, nil
}

// parseRect parses "X,Y,WIDTH,HEIGHT".
func parseRect(s string) (geometry.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geometry.Rect{}, fmt.Errorf("rect %q: expected X,Y,WIDTH,HEIGHT", s)
	}
	values, err := parseFloats(parts)
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("rect %q: %w", s, err)
	}
	return geometry.Rect{X: values[0], Y: values[1], Width: values[2], Height: values[3]}, nil
}

func parseFloats(parts []string) ([]float64, error) {
	values := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func formatRect(r geometry.Rect) string {
	return fmt.Sprintf("x=%g y=%g width=%g height=%g", r.X, r.Y, r.Width, r.Height)
}
