package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ops-suite/internal/includegraph"
)

func newIncludesCmd() *cobra.Command {
	var cachePath string
	var top int
	var focus string
	var depth int
	var reverse bool
	var showEdges bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "includes [path]",
		Short: "Analyze the include graph between ops files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) == 1 {
				target = args[0]
			}

			idx, err := loadOrBuild(cachePath, target)
			if err != nil {
				return err
			}

			report, err := includegraph.Build(idx, includegraph.Options{
				Top:          top,
				Focus:        focus,
				Depth:        depth,
				Reverse:      reverse,
				IncludeEdges: showEdges,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return emitJSON(report)
			}

			fmt.Printf("includes: nodes=%d edges=%d internal=%d external=%d root=%s\n",
				report.NodeCount, report.EdgeCount, report.InternalEdgeCount, report.ExternalEdgeCount, report.Root)
			if len(report.TopOutgoing) > 0 {
				fmt.Println("top outgoing:")
				for _, node := range report.TopOutgoing {
					fmt.Printf("  %s out=%d in=%d\n", node.Node, node.Outgoing, node.Incoming)
				}
			}
			if len(report.TopIncoming) > 0 {
				fmt.Println("top incoming:")
				for _, node := range report.TopIncoming {
					fmt.Printf("  %s in=%d out=%d\n", node.Node, node.Incoming, node.Outgoing)
				}
			}
			if report.Focus != "" {
				fmt.Printf("focus %s (%s, depth=%d): %s\n",
					report.Focus, report.FocusDirection, report.FocusDepth, strings.Join(report.FocusWalk, ", "))
			}
			if showEdges {
				for _, edge := range report.Edges {
					marker := ""
					if !edge.Internal {
						marker = " (external)"
					}
					fmt.Printf("  %s -> %s%s\n", edge.From, edge.To, marker)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cachePath, "cache", "", "load index from cache instead of parsing")
	cmd.Flags().IntVar(&top, "top", 10, "number of nodes in fan-in/fan-out rankings")
	cmd.Flags().StringVar(&focus, "focus", "", "file to walk the graph from")
	cmd.Flags().IntVar(&depth, "depth", 1, "traversal depth from the focus node")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "walk incoming edges instead of outgoing")
	cmd.Flags().BoolVar(&showEdges, "edges", false, "list every include edge")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
	return cmd
}
