package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/emilio-vasquez/digitaltwin/internal/idgen"
	"github.com/emilio-vasquez/digitaltwin/internal/persona"
	"github.com/emilio-vasquez/digitaltwin/internal/twin"
	"github.com/emilio-vasquez/digitaltwin/internal/validation"
)

// stateFlags are the form fields shared by derive, explain and persona.
type stateFlags struct {
	preset    string
	age       string
	interest  string
	social    int
	location  bool
	lateNight bool
	password  string
	devices   []string
}

func (f *stateFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.preset, "preset", "", "start from a preset ("+strings.Join(twin.PresetNames(), ", ")+")")
	fs.StringVar(&f.age, "age", "", "age range ("+joinNames(twin.AgeRanges)+")")
	fs.StringVar(&f.interest, "interest", "", "major interest ("+joinNames(twin.Interests)+")")
	fs.IntVar(&f.social, "social", 0, "social media use, 0-10")
	fs.BoolVar(&f.location, "location", false, "location sharing on")
	fs.BoolVar(&f.lateNight, "late-night", false, "late-night activity on")
	fs.StringVar(&f.password, "password", "", "password habits ("+joinNames(twin.PasswordHabits)+")")
	fs.StringSliceVar(&f.devices, "devices", nil, "devices in use ("+joinNames(twin.Devices)+")")
}

// state starts from the preset (or base) and applies only the flags the user
// set.
func (f *stateFlags) state(cmd *cobra.Command, base twin.InputState) (twin.InputState, error) {
	s := base
	if f.preset != "" {
		p, err := twin.Preset(f.preset)
		if err != nil {
			return twin.InputState{}, fmt.Errorf("--preset must be one of %s", strings.Join(twin.PresetNames(), ", "))
		}
		s = p
	}

	changed := cmd.Flags().Changed
	if changed("age") {
		s.AgeRange = twin.AgeRange(f.age)
	}
	if changed("interest") {
		s.Interest = twin.Interest(f.interest)
	}
	if changed("social") {
		s.SocialUse = f.social
	}
	if changed("location") {
		s.LocationSharing = f.location
	}
	if changed("late-night") {
		s.LateNight = f.lateNight
	}
	if changed("password") {
		s.PasswordHabit = twin.PasswordHabit(f.password)
	}
	if changed("devices") {
		s.Devices = make([]twin.Device, len(f.devices))
		for i, d := range f.devices {
			s.Devices[i] = twin.Device(strings.TrimSpace(d))
		}
	}

	errs := validation.Validate(
		validation.OneOf("age", s.AgeRange, twin.AgeRanges),
		validation.OneOf("interest", s.Interest, twin.Interests),
		validation.OneOf("password", s.PasswordHabit, twin.PasswordHabits),
		validation.IntRange("social", s.SocialUse, twin.MinSocialUse, twin.MaxSocialUse),
		validation.EachOneOf("devices", s.Devices, twin.Devices),
	)
	if err := errs.Err(); err != nil {
		return twin.InputState{}, fmt.Errorf("--%w", err)
	}
	return s.Normalize(), nil
}

func joinNames[T ~string](values []T) string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "twin",
		Short:         "Explore the digital twin formulas from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDeriveCmd(), newExplainCmd(), newPresetsCmd(), newPersonaCmd())
	return root
}

func newDeriveCmd() *cobra.Command {
	var flags stateFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Compute the twin metrics for a set of inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.state(cmd, twin.Default())
			if err != nil {
				return err
			}
			m := twin.Derive(s)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, map[string]any{"state": s, "metrics": m})
			}
			writeState(out, s)
			fmt.Fprintln(out)
			writeMetrics(out, m)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print state and metrics as JSON")
	return cmd
}

func newExplainCmd() *cobra.Command {
	var flags stateFlags
	var from string

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Explain what changed between a preset and an edited state",
		Example: "  twin explain --from late --late-night=false\n" +
			"  twin explain --from private --preset social",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := twin.Preset(from)
			if err != nil {
				return fmt.Errorf("--from must be one of %s", strings.Join(twin.PresetNames(), ", "))
			}
			after, err := flags.state(cmd, before)
			if err != nil {
				return err
			}

			prev := twin.SnapshotOf(before)
			fmt.Fprintln(cmd.OutOrStdout(), twin.Explain(&prev, twin.SnapshotOf(after)))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&from, "from", "", "preset describing the state before the change")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			states := make(map[string]twin.InputState)
			for _, name := range twin.PresetNames() {
				s, err := twin.Preset(name)
				if err != nil {
					return err
				}
				states[name] = s
			}
			if asJSON {
				return writeJSON(out, states)
			}
			for i, name := range twin.PresetNames() {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, name)
				writeState(out, states[name])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print presets as JSON")
	return cmd
}

func newPersonaCmd() *cobra.Command {
	var flags stateFlags
	var proxyURL, origin, twinID string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "persona",
		Short: "Ask a running persona proxy to describe the twin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.state(cmd, twin.Default())
			if err != nil {
				return err
			}
			if twinID == "" {
				twinID = idgen.TwinID()
			}

			client := persona.NewClient(persona.ClientConfig{BaseURL: proxyURL, Origin: origin, Timeout: timeout})
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			resp, err := client.FetchPersona(ctx, persona.BuildPayload(twinID, s, twin.Derive(s)))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.PersonaText)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Twin ID: %s | Model: %s\n", twinID, resp.Model)
			return nil
		},
	}
	flags.register(cmd)
	fs := cmd.Flags()
	fs.StringVar(&proxyURL, "proxy", "http://localhost:8787", "persona proxy base URL")
	fs.StringVar(&origin, "origin", "http://localhost:8787", "Origin header to send")
	fs.StringVar(&twinID, "twin-id", "", "twin identifier (generated when empty)")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	return cmd
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func writeState(w io.Writer, s twin.InputState) {
	fmt.Fprintf(w, "  Age range:           %s\n", twin.AgeLabel(s.AgeRange))
	fmt.Fprintf(w, "  Interest:            %s\n", twin.InterestLabel(s.Interest))
	fmt.Fprintf(w, "  Social media use:    %d/10\n", s.SocialUse)
	fmt.Fprintf(w, "  Location sharing:    %s\n", onOff(s.LocationSharing))
	fmt.Fprintf(w, "  Late-night activity: %s\n", onOff(s.LateNight))
	fmt.Fprintf(w, "  Password habits:     %s\n", s.PasswordHabit)
	fmt.Fprintf(w, "  Devices:             %s\n", listOrNone(s.DeviceNames()))
}

func writeMetrics(w io.Writer, m twin.Metrics) {
	fmt.Fprintf(w, "Security risk:         %d/100 (%s)\n", m.Risk, m.RiskLevel.Label)
	fmt.Fprintf(w, "Targeting confidence:  %d/100 (%s)\n", m.Confidence, m.ConfidenceLevel.Label)
	fmt.Fprintf(w, "Ad profile:            %s\n", m.AdProfile)
	fmt.Fprintf(w, "Mirroring strength:    %s\n", m.Strength.Label)
	fmt.Fprintf(w, "Recreation likelihood: %s\n", m.Likelihood.Label)
	fmt.Fprintf(w, "Likely interests:      %s\n", listOrNone(m.LikelyInterests))
	for _, a := range m.RecommendedActions {
		fmt.Fprintf(w, "  - %s\n", a)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
