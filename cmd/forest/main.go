// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Command forest is a small demo driver: build a connectivity, refine
// every tree to a uniform level, coarsen everything back down and
// report the octant counts along the way.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gaissmai/forest"
)

var (
	connName  string
	level     int
	recursive bool
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "forest",
	Short: "drive a refine/coarsen cycle over a forest of octrees",
	Long: `forest builds one of the example connectivities, refines every
tree to a uniform level, coarsens everything back down to the roots
and reports the octant counts along the way.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		lvl := slog.LevelInfo
		if verbose {
			lvl = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	},
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&connName, "conn", "c", "rotcubes",
		"connectivity: star, unit, brick or rotcubes")
	rootCmd.Flags().IntVarP(&level, "level", "l", 4, "uniform refinement level")
	rootCmd.Flags().BoolVarP(&recursive, "recursive", "r", true, "coarsen recursively")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "per-tree log messages")

	viper.SetEnvPrefix("FOREST")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlag("conn", rootCmd.Flags().Lookup("conn"))
	_ = viper.BindPFlag("level", rootCmd.Flags().Lookup("level"))
}

func run(cmd *cobra.Command, args []string) error {
	connName = viper.GetString("conn")
	if viper.IsSet("level") {
		level = viper.GetInt("level")
	}

	var conn *forest.Connectivity
	switch connName {
	case "star":
		conn = forest.NewStar()
	case "unit":
		conn = forest.NewUnitCube()
	case "brick":
		conn = forest.NewBrick(2, 2, 2)
	case "rotcubes":
		conn = forest.NewRotCubes()
	default:
		return fmt.Errorf("unknown connectivity %q", connName)
	}

	f, err := forest.New(conn, nil)
	if err != nil {
		return err
	}

	ts := time.Now()
	if err := f.RefineUniform(int8(level), nil); err != nil {
		return err
	}
	fmt.Printf("refined %d trees to level %d: %d quadrants in %v\n",
		f.NumTrees(), level, f.GlobalNumQuadrants, time.Since(ts))

	ts = time.Now()
	if err := f.Coarsen(recursive, func(forest.TreeID, []forest.Octant) bool { return true }, nil); err != nil {
		return err
	}
	fmt.Printf("coarsened back to %d quadrants in %v\n",
		f.GlobalNumQuadrants, time.Since(ts))

	return f.Destroy()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
