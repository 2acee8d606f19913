package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"profile_portal_backend/internal/client"
	"profile_portal_backend/internal/countdown"
	"profile_portal_backend/platform/i18n"
	"profile_portal_backend/platform/phone"

	"github.com/spf13/cobra"
)

func newClient(g *globalFlags, withToken bool) (*client.Client, error) {
	opts := []client.Option{client.WithLanguage(g.lang)}
	if withToken {
		token, err := loadToken(g.tokenFile)
		if err != nil {
			return nil, codeError(exitInput, "%s", err)
		}
		opts = append(opts, client.WithToken(token))
	}
	c, err := client.New(g.baseURL, opts...)
	if err != nil {
		return nil, codeError(exitInput, "%s", err)
	}
	return c, nil
}

// apiFailure turns a client error into an exit error carrying the message a
// user should see.
func apiFailure(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return codeError(exitAPI, "%s", apiErr.Message())
	}
	var verr *phone.ValidationError
	if errors.As(err, &verr) {
		return codeError(exitInput, "%s", err)
	}
	return err
}

func newLoginCmd(g *globalFlags) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				password, err = readLine(cmd.InOrStdin())
				if err != nil {
					return codeError(exitInput, "reading password: %s", err)
				}
			}
			c, err := newClient(g, false)
			if err != nil {
				return err
			}
			token, err := c.SignIn(cmd.Context(), email, password)
			if err != nil {
				return apiFailure(err)
			}
			if err := saveToken(g.tokenFile, token); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed in")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newProfileCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print the current profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(g, true)
			if err != nil {
				return err
			}
			p, err := c.GetProfile(cmd.Context())
			if err != nil {
				return apiFailure(err)
			}
			printProfile(cmd.OutOrStdout(), p)
			return nil
		},
	}

	var (
		realName, nickname, address, phoneNumber, portraitPath string
		dryRun, removePortrait                                 bool
	)
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Submit the profile form",
		Long: "Submit the profile form. Only flags that are given are sent. " +
			"The current portrait is kept unless --portrait or --remove-portrait is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(g, true)
			if err != nil {
				return err
			}

			var upd client.ProfileUpdate
			flags := cmd.Flags()
			if flags.Changed("real-name") {
				upd.RealName = &realName
			}
			if flags.Changed("nickname") {
				upd.Nickname = &nickname
			}
			if flags.Changed("address") {
				upd.Address = &address
			}
			if flags.Changed("phone") {
				upd.Phone = &phoneNumber
			}
			upd.RemovePortrait = removePortrait
			if portraitPath != "" {
				f, err := os.Open(portraitPath)
				if err != nil {
					return codeError(exitInput, "opening portrait: %s", err)
				}
				defer f.Close()
				upd.Portrait = &client.PortraitFile{
					FileName:    filepath.Base(portraitPath),
					ContentType: mime.TypeByExtension(filepath.Ext(portraitPath)),
					Reader:      f,
				}
			}

			if dryRun {
				current, err := c.GetProfile(cmd.Context())
				if err != nil {
					return apiFailure(err)
				}
				submitted := ""
				if upd.Phone != nil {
					submitted, _ = phone.ForSubmission(*upd.Phone)
				}
				before := profileLines(current.RealName, current.Nickname, current.Address, current.Phone, current.Portrait)
				fmt.Fprint(cmd.OutOrStdout(), lineDiff(before, submittedLines(current, upd, submitted)))
				return nil
			}

			p, err := c.UpdateProfile(cmd.Context(), upd)
			if err != nil {
				return apiFailure(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18nCatalog().T(i18nCatalog().Match(g.lang), "profile.updated", nil))
			printProfile(cmd.OutOrStdout(), p)
			return nil
		},
	}
	f := updateCmd.Flags()
	f.StringVar(&realName, "real-name", "", "Real name")
	f.StringVar(&nickname, "nickname", "", "Nickname")
	f.StringVar(&address, "address", "", "Address")
	f.StringVar(&phoneNumber, "phone", "", "Mobile number in national form, e.g. 0912345678")
	f.StringVar(&portraitPath, "portrait", "", "Portrait image file")
	f.BoolVar(&removePortrait, "remove-portrait", false, "Remove the current portrait")
	f.BoolVar(&dryRun, "dry-run", false, "Print a diff of the change instead of submitting it")
	updateCmd.MarkFlagsMutuallyExclusive("portrait", "remove-portrait")

	cmd.AddCommand(getCmd, updateCmd)
	return cmd
}

func newPasswordCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Manage your password",
	}

	var oldPassword, newPassword string
	changeCmd := &cobra.Command{
		Use:   "change",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(g, true)
			if err != nil {
				return err
			}
			if err := c.ChangePassword(cmd.Context(), oldPassword, newPassword); err != nil {
				return apiFailure(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18nCatalog().T(i18nCatalog().Match(g.lang), "password.updated", nil))
			return nil
		},
	}
	changeCmd.Flags().StringVar(&oldPassword, "old", "", "Current password")
	changeCmd.Flags().StringVar(&newPassword, "new", "", "New password")
	_ = changeCmd.MarkFlagRequired("old")
	_ = changeCmd.MarkFlagRequired("new")

	cmd.AddCommand(changeCmd)
	return cmd
}

func newPhoneCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phone",
		Short: "Verify your mobile number",
	}

	var wait bool
	verifyCmd := &cobra.Command{
		Use:   "verify <number>",
		Short: "Send a verification code to a number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCode(cmd, g, args[0], wait, false)
		},
	}
	verifyCmd.Flags().BoolVar(&wait, "wait", false, "Count down until a new code may be requested")

	var resendWait bool
	resendCmd := &cobra.Command{
		Use:   "resend <number>",
		Short: "Send the verification code again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCode(cmd, g, args[0], resendWait, true)
		},
	}
	resendCmd.Flags().BoolVar(&resendWait, "wait", false, "Count down until a new code may be requested")

	confirmCmd := &cobra.Command{
		Use:   "confirm <number> <code>",
		Short: "Confirm a number with the received code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(g, true)
			if err != nil {
				return err
			}
			verified, err := c.ConfirmPhone(cmd.Context(), args[0], args[1])
			if err != nil {
				return apiFailure(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
				i18nCatalog().T(i18nCatalog().Match(g.lang), "otp.verified", nil),
				phone.ForDisplay(verified))
			return nil
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check <number>",
		Short: "Validate a number offline and print its international form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkPhone(cmd.OutOrStdout(), g.lang, args[0])
		},
	}

	cmd.AddCommand(verifyCmd, resendCmd, confirmCmd, checkCmd)
	return cmd
}

func sendCode(cmd *cobra.Command, g *globalFlags, number string, wait, resend bool) error {
	c, err := newClient(g, true)
	if err != nil {
		return err
	}

	send := c.VerifyPhone
	if resend {
		send = c.ResendPhone
	}
	sent, err := send(cmd.Context(), number)
	if err != nil {
		var verr *phone.ValidationError
		if errors.As(err, &verr) {
			res := phone.Result{Kind: verr.Kind, Actual: verr.Actual}
			return codeError(exitInput, "%s", i18nCatalog().Phone(i18nCatalog().Match(g.lang), res))
		}
		return apiFailure(err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, sent.Detail)

	if !wait || sent.RetryAfter <= 0 {
		return nil
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return waitCooldown(ctx, out, sent.RetryAfter, time.Second)
}

// waitCooldown prints the remaining cooldown every tick and returns when it
// is over or ctx is cancelled.
func waitCooldown(ctx context.Context, out io.Writer, d, tick time.Duration) error {
	var timer countdown.Timer
	done := make(chan struct{})
	err := timer.Start(ctx, d, tick,
		func(left time.Duration) { fmt.Fprintf(out, "\rresend available in %3ds", int(left.Seconds())) },
		func() { close(done) },
	)
	if err != nil {
		return err
	}

	select {
	case <-done:
		fmt.Fprintln(out, "\rresend available now     ")
		return nil
	case <-ctx.Done():
		timer.Stop()
		fmt.Fprintln(out)
		return ctx.Err()
	}
}

func checkPhone(out io.Writer, lang, raw string) error {
	national := phone.Sanitize(raw)
	res := phone.ValidateNational(national)
	if !res.OK() {
		return codeError(exitInput, "%s: %s", res.Kind, i18nCatalog().Phone(i18nCatalog().Match(lang), res))
	}
	international := phone.ToInternational(national)
	fmt.Fprintf(out, "national:      %s\ninternational: %s\n", national, international)
	return nil
}

func printProfile(out io.Writer, p client.Profile) {
	verified := ""
	if p.PhoneVerified {
		verified = " (verified)"
	}
	fmt.Fprintf(out, "email:     %s\n", p.Email)
	fmt.Fprintf(out, "real name: %s\n", p.RealName)
	fmt.Fprintf(out, "nickname:  %s\n", p.Nickname)
	fmt.Fprintf(out, "address:   %s\n", p.Address)
	fmt.Fprintf(out, "phone:     %s%s\n", p.DisplayPhone(), verified)
	fmt.Fprintf(out, "portrait:  %s\n", p.PortraitURL)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty input")
	}
	return line, nil
}

var i18nCatalog = sync.OnceValue(i18n.MustLoad)
