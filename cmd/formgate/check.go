// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/formgate/internal/forms"
	"github.com/holomush/formgate/internal/schema"
)

// checkConfig holds flags shared by the check subcommands.
type checkConfig struct {
	jsonFile string
	noColor  bool
}

// NewCheckCmd creates the check subcommand.
func NewCheckCmd() *cobra.Command {
	cfg := &checkConfig{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate form values without serving",
		Long: `Validate login or registration values from flags or a JSON file and
print each field error. Exits non-zero when validation fails.`,
	}

	cmd.PersistentFlags().StringVar(&cfg.jsonFile, "json", "", "read field values from a JSON file (- for stdin)")
	cmd.PersistentFlags().BoolVar(&cfg.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(newCheckRegisterCmd(cfg))
	cmd.AddCommand(newCheckLoginCmd(cfg))

	return cmd
}

func newCheckRegisterCmd(cfg *checkConfig) *cobra.Command {
	var in forms.RegistrationInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Validate registration values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := mergeInput(cmd, cfg, in)
			if err != nil {
				return err
			}
			res := forms.ValidateRegistration(input)
			return report(cmd.OutOrStdout(), cfg, forms.Registration.Name, forms.Registration.Schema, res.Errors,
				fmt.Sprintf("name=%s email=%s", res.Value.Name, res.Value.Email))
		},
	}

	cmd.Flags().StringVar(&in.Name, forms.FieldName, "", "display name")
	cmd.Flags().StringVar(&in.Email, forms.FieldEmail, "", "email address")
	cmd.Flags().StringVar(&in.Password, forms.FieldPassword, "", "password")
	cmd.Flags().StringVar(&in.Confirm, forms.FieldConfirm, "", "password confirmation")

	return cmd
}

func newCheckLoginCmd(cfg *checkConfig) *cobra.Command {
	var in forms.LoginInput

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Validate login values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := mergeInput(cmd, cfg, in)
			if err != nil {
				return err
			}
			res := forms.ValidateLogin(input)
			return report(cmd.OutOrStdout(), cfg, forms.Login.Name, forms.Login.Schema, res.Errors,
				fmt.Sprintf("email=%s", res.Value.Email))
		},
	}

	cmd.Flags().StringVar(&in.Email, forms.FieldEmail, "", "email address")
	cmd.Flags().StringVar(&in.Password, forms.FieldPassword, "", "password")

	return cmd
}

// mergeInput loads the JSON file if given, then applies any flags the user
// set explicitly on top of it.
func mergeInput[T any](cmd *cobra.Command, cfg *checkConfig, fromFlags T) (T, error) {
	if cfg.jsonFile == "" {
		return fromFlags, nil
	}

	var in T
	var r io.Reader
	if cfg.jsonFile == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(cfg.jsonFile)
		if err != nil {
			return in, oops.Code("CHECK_READ_FAILED").With("path", cfg.jsonFile).Wrap(err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return in, oops.Code("CHECK_INVALID_JSON").With("path", cfg.jsonFile).Wrap(err)
	}

	// Re-encode the flag values and overlay only the changed ones.
	flagValues := map[string]string{}
	raw, err := json.Marshal(fromFlags)
	if err != nil {
		return in, oops.Code("CHECK_INVALID_JSON").Wrap(err)
	}
	if err := json.Unmarshal(raw, &flagValues); err != nil {
		return in, oops.Code("CHECK_INVALID_JSON").Wrap(err)
	}
	overlay := map[string]string{}
	for name, v := range flagValues {
		if cmd.Flags().Changed(name) {
			overlay[name] = v
		}
	}
	if len(overlay) == 0 {
		return in, nil
	}
	raw, err = json.Marshal(overlay)
	if err != nil {
		return in, oops.Code("CHECK_INVALID_JSON").Wrap(err)
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, oops.Code("CHECK_INVALID_JSON").Wrap(err)
	}
	return in, nil
}

func report(w io.Writer, cfg *checkConfig, form string, rules *schema.ObjectSchema, errs schema.Errors, summary string) error {
	ok := color.New(color.FgGreen, color.Bold)
	bad := color.New(color.FgRed, color.Bold)
	field := color.New(color.FgYellow)
	if cfg.noColor {
		ok.DisableColor()
		bad.DisableColor()
		field.DisableColor()
	}

	if len(errs) == 0 {
		_, _ = ok.Fprintf(w, "%s: valid", form)
		_, _ = fmt.Fprintf(w, " (%s)\n", summary)
		return nil
	}

	_, _ = bad.Fprintf(w, "%s: invalid\n", form)
	for _, name := range rules.FieldNames() {
		issue, has := errs[name]
		if !has {
			continue
		}
		_, _ = fmt.Fprint(w, "  ")
		_, _ = field.Fprint(w, name)
		_, _ = fmt.Fprintf(w, ": %s\n", issue.Message)
	}
	return oops.Code("CHECK_INVALID").
		With("form", form).
		With("fields", errs.Fields()).
		Errorf("%s form has %d invalid field(s)", form, len(errs))
}
