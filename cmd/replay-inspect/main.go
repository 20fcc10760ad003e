package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/reallyoldfogie/fortnite-replay-go/replay"
)

var version = "dev"

func main() {
	var format string
	var verbose bool

	cmd := &cobra.Command{
		Use:          "replay-inspect <file.replay>",
		Short:        "Print the match data of a Fortnite replay",
		Args:         cobra.ExactArgs(1),
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

			r, err := replay.Open(args[0], replay.WithLogger(logger))
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, newReplayView(r))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every chunk and event")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type playerView struct {
	Kind string `json:"kind" yaml:"kind"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
}

func newPlayerView(p replay.Player) playerView {
	v := playerView{Name: p.Name(), ID: p.ID()}
	switch p.(type) {
	case replay.Bot:
		v.Kind = "bot"
	case replay.NamedBot:
		v.Kind = "namedBot"
	default:
		v.Kind = "player"
	}
	return v
}

type eliminationView struct {
	Eliminated playerView    `json:"eliminated" yaml:"eliminated"`
	Eliminator playerView    `json:"eliminator" yaml:"eliminator"`
	Weapon     replay.Weapon `json:"weapon" yaml:"weapon"`
	Cause      uint8         `json:"cause" yaml:"cause"`
	Time       time.Time     `json:"time" yaml:"time"`
	Knocked    bool          `json:"knocked" yaml:"knocked"`
	text       string
}

type replayView struct {
	Meta         *replay.Meta       `json:"meta" yaml:"meta"`
	Header       *replay.Header     `json:"header,omitempty" yaml:"header,omitempty"`
	Stats        *replay.MatchStats `json:"stats,omitempty" yaml:"stats,omitempty"`
	TeamStats    *replay.TeamStats  `json:"teamStats,omitempty" yaml:"teamStats,omitempty"`
	Eliminations []eliminationView  `json:"eliminations" yaml:"eliminations"`
	Chunks       int                `json:"chunks" yaml:"chunks"`
}

func newReplayView(r *replay.Replay) replayView {
	v := replayView{
		Meta:         r.Meta,
		Header:       r.Header,
		Stats:        r.Stats,
		TeamStats:    r.TeamStats,
		Eliminations: make([]eliminationView, 0, len(r.Eliminations)),
		Chunks:       len(r.Chunks),
	}
	for _, e := range r.Eliminations {
		v.Eliminations = append(v.Eliminations, eliminationView{
			Eliminated: newPlayerView(e.Eliminated),
			Eliminator: newPlayerView(e.Eliminator),
			Weapon:     e.Weapon,
			Cause:      e.Cause,
			Time:       e.Time,
			Knocked:    e.Knocked,
			text:       e.String(),
		})
	}
	return v
}

func render(w io.Writer, format string, v replayView) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer func() { _ = enc.Close() }()
		return enc.Encode(v)
	case "text":
		return renderText(w, v)
	}
	return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
}

func renderText(w io.Writer, v replayView) error {
	fmt.Fprintf(w, "%s (%s, file version %d)\n", v.Meta.FriendlyName, v.Meta.Duration(), v.Meta.FileVersion)
	if h := v.Header; h != nil {
		fmt.Fprintf(w, "branch %s, release %s, engine network version %d\n", h.Branch, h.Release, h.EngineNetworkVersion)
	}
	if s := v.Stats; s != nil {
		fmt.Fprintf(w, "eliminations %d, assists %d, accuracy %d%%, damage %d/%d, traveled %d km\n",
			s.Eliminations, s.Assists, s.Accuracy, s.WeaponDamage, s.DamageTaken, s.TotalTraveled)
	}
	if t := v.TeamStats; t != nil {
		fmt.Fprintf(w, "placed #%d of %d\n", t.Position, t.TotalPlayers)
	}
	for _, e := range v.Eliminations {
		fmt.Fprintf(w, "%s  %s\n", e.Time.Format(time.TimeOnly), e.text)
	}
	return nil
}
