package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pkt.systems/ctrconsole/internal/commit"
	"pkt.systems/ctrconsole/schema"
	"pkt.systems/pslog"
)

type commitEngine interface {
	commit.Engine
	InspectContainer(ctx context.Context, id schema.ContainerID) (schema.ContainerInfo, error)
}

func newCommitCmd() *cobra.Command {
	var cfgPath string
	var opts schema.CommitOptions
	var force bool
	cmd := &cobra.Command{
		Use:   "commit <container>",
		Short: "Commit a container to a new image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, eng, err := loadEngine(cmd.Context(), cfgPath)
			if err != nil {
				return err
			}
			commandSet := cmd.Flags().Changed("command")
			return runCommit(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), eng, schema.ContainerID(args[0]), opts, commandSet, force)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVarP(&opts.ImageName, "name", "n", "", "image name (required)")
	cmd.Flags().StringVarP(&opts.Tag, "tag", "t", "", "image tag (default: latest)")
	cmd.Flags().StringVarP(&opts.Author, "author", "a", "", "image author")
	cmd.Flags().StringVar(&opts.Command, "command", "", "image command (default: the container's command)")
	cmd.Flags().BoolVarP(&opts.Pause, "pause", "p", false, "pause the container while committing")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing image with the same name")
	return cmd
}

// runCommit inspects the container, fills in its command unless one was given
// and submits the commit once.
func runCommit(ctx context.Context, stdout, stderr io.Writer, eng commitEngine, id schema.ContainerID, opts schema.CommitOptions, commandSet, force bool) error {
	logger := pslog.Ctx(ctx).With("container", id)
	info, err := eng.InspectContainer(ctx, id)
	if err != nil {
		return err
	}
	if !commandSet {
		opts.Command = commit.QuoteCmdline(info.Config.Cmd)
	}
	req, err := commit.NewSubmitter(eng).Submit(ctx, info, opts, force)
	if err != nil {
		var commitErr *commit.CommitError
		if errors.As(err, &commitErr) {
			_, _ = fmt.Fprintln(stderr, commitErr.Message)
			if commitErr.Detail != "" {
				_, _ = fmt.Fprintln(stderr, commitErr.Detail)
			}
		}
		return err
	}
	image := commit.NormalizeName(req.Repo, req.Tag)
	logger.Debug("commit submitted", "image", image)
	_, err = fmt.Fprintln(stdout, image)
	return err
}
