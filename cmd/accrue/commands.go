package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fwojciec/accrue"
	"github.com/fwojciec/accrue/anthropic"
	accruejson "github.com/fwojciec/accrue/json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// commander holds state shared by all subcommands.
type commander struct {
	cfg config
	log zerolog.Logger

	requestPath     string
	filterRateLimit bool
}

func newRootCmd(cfg config, logger zerolog.Logger) *cobra.Command {
	c := &commander{cfg: cfg, log: logger}

	root := &cobra.Command{
		Use:           "accrue",
		Short:         "Read Messages API event streams",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.requestPath, "request", "", "POST the JSON request body in this file instead of reading a capture")
	root.PersistentFlags().BoolVar(&c.filterRateLimit, "filter-rate-limit", false, "Hide rate_limit_error and overloaded_error events")

	root.AddCommand(
		c.newEventsCmd(),
		c.newTextCmd(),
		c.newToolsCmd(),
		c.newCollectCmd(),
	)
	return root
}

func (c *commander) newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events [FILE]",
		Short: "Print each classified event on its own line",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStream(cmd, args)
			if err != nil {
				return err
			}
			defer s.Close()

			p := newPrinter(cmd.OutOrStdout())
			for {
				evt, err := s.Next()
				if err == io.EOF {
					return nil
				}
				if err != nil {
					// Transient server errors are shown and read past;
					// anything else ends the listing.
					var serr *accrue.ServerError
					if errors.As(err, &serr) && serr.Retryable() {
						p.serverError(serr)
						continue
					}
					return err
				}
				p.event(evt)
			}
		},
	}
}

func (c *commander) newTextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "text [FILE]",
		Short: "Print text deltas as they arrive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStream(cmd, args)
			if err != nil {
				return err
			}
			ts := accrue.NewTextStream(s)
			defer ts.Close()

			out := cmd.OutOrStdout()
			for {
				frag, err := ts.Next()
				if err == io.EOF {
					_, err = fmt.Fprintln(out)
					return err
				}
				if err != nil {
					return err
				}
				if _, err := io.WriteString(out, frag.Text); err != nil {
					return err
				}
			}
		},
	}
}

func (c *commander) newToolsCmd() *cobra.Command {
	var final bool
	cmd := &cobra.Command{
		Use:   "tools [FILE]",
		Short: "Print tool input fragments and final inputs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStream(cmd, args)
			if err != nil {
				return err
			}
			ts := accrue.NewToolInputStream(s)
			defer ts.Close()

			p := newPrinter(cmd.OutOrStdout())
			for {
				ti, err := ts.Next()
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				if final && !ti.Done {
					continue
				}
				p.toolInput(ti)
			}
		},
	}
	cmd.Flags().BoolVar(&final, "final", false, "Print only finished inputs")
	return cmd
}

func (c *commander) newCollectCmd() *cobra.Command {
	var noStream bool
	cmd := &cobra.Command{
		Use:   "collect [FILE]",
		Short: "Print the accumulated message as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				msg accrue.Message
				err error
			)
			if noStream {
				msg, err = c.message(cmd, args)
			} else {
				var s accrue.Stream
				s, err = c.openStream(cmd, args)
				if err != nil {
					return err
				}
				msg, err = accrue.Collect(cmd.Context(), s)
			}
			if err != nil {
				return err
			}

			data, err := accruejson.MarshalMessage(msg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
			return err
		},
	}
	cmd.Flags().BoolVar(&noStream, "no-stream", false, "Send the request without streaming (requires --request)")
	return cmd
}

// openStream opens the stream named by args or --request.
func (c *commander) openStream(cmd *cobra.Command, args []string) (accrue.Stream, error) {
	ctx := cmd.Context()
	var s accrue.Stream
	if c.requestPath != "" {
		if len(args) > 0 {
			return nil, errors.New("--request cannot be combined with a capture file")
		}
		client, body, err := c.client()
		if err != nil {
			return nil, err
		}
		s, err = client.Stream(ctx, body)
		if err != nil {
			return nil, err
		}
	} else {
		rc, err := openCapture(cmd, args)
		if err != nil {
			return nil, err
		}
		s = anthropic.NewStream(ctx, rc, anthropic.WithStreamLogger(c.log))
	}
	if c.filterRateLimit {
		s = accrue.FilterRateLimit(s)
	}
	return s, nil
}

// message sends --request without streaming.
func (c *commander) message(cmd *cobra.Command, args []string) (accrue.Message, error) {
	if c.requestPath == "" || len(args) > 0 {
		return accrue.Message{}, errors.New("--no-stream requires --request and no capture file")
	}
	client, body, err := c.client()
	if err != nil {
		return accrue.Message{}, err
	}
	return client.Message(cmd.Context(), body)
}

func (c *commander) client() (*anthropic.Client, []byte, error) {
	if c.cfg.APIKey == "" {
		return nil, nil, errors.New("ANTHROPIC_API_KEY not set")
	}
	body, err := os.ReadFile(c.requestPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read request: %w", err)
	}
	client := anthropic.New(c.cfg.APIKey,
		anthropic.WithBaseURL(c.cfg.BaseURL),
		anthropic.WithHTTPClient(&http.Client{Timeout: c.cfg.HTTPTimeout}),
		anthropic.WithLogger(c.log),
	)
	return client, body, nil
}

func openCapture(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	return f, nil
}
