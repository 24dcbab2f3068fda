package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/candidates"
	"github.com/spigell/hh-interviewer/internal/resume"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage candidates and the job description",
}

var adminAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a candidate and print the assigned id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnv(func(e *env) error {
			flags := cmd.Flags()
			name, _ := flags.GetString("name")
			email, _ := flags.GetString("email")
			phone, _ := flags.GetString("phone")
			text, _ := flags.GetString("resume")
			file, _ := flags.GetString("resume-file")

			if file != "" {
				if text != "" {
					return errors.New("--resume and --resume-file are mutually exclusive")
				}
				var err error
				if text, err = resume.ReadFile(file); err != nil {
					return err
				}
			}

			return addCandidate(cmd.Context(), e.registry, cmd.OutOrStdout(), name, email, phone, text)
		})
	},
}

var adminSetJDCmd = &cobra.Command{
	Use:   "set-jd",
	Short: "Replace the job description",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		file, _ := flags.GetString("file")

		if flags.Changed("text") == (file != "") {
			return errors.New("exactly one of --text or --file is required")
		}

		text, _ := flags.GetString("text")
		if file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading job description: %w", err)
			}
			text = string(data)
		}

		return withEnv(func(e *env) error {
			if err := e.registry.UpdateJobDescription(cmd.Context(), text); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Job description updated successfully!")
			return nil
		})
	},
}

var adminShowJDCmd = &cobra.Command{
	Use:   "show-jd",
	Short: "Print the current job description",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnv(func(e *env) error {
			jd, err := e.registry.JobDescription(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), jd)
			return nil
		})
	},
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered candidates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnv(func(e *env) error {
			return listCandidates(cmd.Context(), e.registry, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminAddCmd, adminSetJDCmd, adminShowJDCmd, adminListCmd)

	adminAddCmd.Flags().String("name", "", "candidate name")
	adminAddCmd.Flags().String("email", "", "candidate email")
	adminAddCmd.Flags().String("phone", "", "candidate phone")
	adminAddCmd.Flags().String("resume", "", "resume text")
	adminAddCmd.Flags().String("resume-file", "", "resume file (.txt, .md, .pdf, .docx, .doc, .rtf, .odt)")

	adminSetJDCmd.Flags().String("text", "", "job description text, may be empty")
	adminSetJDCmd.Flags().String("file", "", "file with the job description")
}

func withEnv(fn func(e *env) error) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer func() {
		if err := e.close(); err != nil {
			e.logger.Warn("closing store", zap.Error(err))
		}
	}()

	return fn(e)
}

func addCandidate(ctx context.Context, registry *candidates.Registry, out io.Writer, name, email, phone, text string) error {
	candidate, err := registry.Register(ctx, name, email, phone, text)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Candidate registered successfully! ID: %s\n", candidate.ID)
	return nil
}

func listCandidates(ctx context.Context, registry *candidates.Registry, out io.Writer) error {
	list, err := registry.List(ctx)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Fprintln(out, "No candidates registered.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tID")
	for _, c := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.Email, c.ID)
	}
	return w.Flush()
}
