package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/multilink-dev/multilink/pkg/link"
	"github.com/multilink-dev/multilink/pkg/protocol"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print version, commit, and build information, and the version announced to peers.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, version)
				return
			}

			printBanner(out)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  Version:    %s\n", version)
			fmt.Fprintf(out, "  Commit:     %s\n", commit)
			fmt.Fprintf(out, "  Built:      %s\n", date)
			fmt.Fprintf(out, "  Announced:  %s\n", programVersion())
			fmt.Fprintf(out, "  Handshake:  %q\n", link.DefaultHandshake)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Fprintln(out)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}

// programVersion is the version exchanged at session start. Development
// builds announce 0.0.0.0 and only match each other.
func programVersion() protocol.ProgramVersion {
	v, err := protocol.ParseProgramVersion(strings.TrimPrefix(version, "v"))
	if err != nil {
		return protocol.ProgramVersion{}
	}
	return v
}
