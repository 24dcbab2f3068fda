package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spigell/hh-interviewer/internal/candidates"
	"github.com/spigell/hh-interviewer/internal/common"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/narration"
)

const quitCommand = "/quit"

var errQuit = errors.New("quit requested")

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Start an interview as a candidate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, _ := cmd.Flags().GetString("id")

		return withEnv(func(e *env) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			gateway, err := newGateway(ctx, e.config.AI, e.logger)
			if err != nil {
				return fmt.Errorf("building completion gateway: %w", err)
			}

			q := &quiz{
				registry:    e.registry,
				interviewer: interview.NewInterviewer(gateway, e.logger, e.config.AI.Timeout),
				narrator:    newNarrator(e.config.Narration, e.logger),
				in:          newLineReader(os.Stdin),
				out:         cmd.OutOrStdout(),
				logger:      e.logger,
			}

			return q.run(ctx, id)
		})
	},
}

func init() {
	rootCmd.AddCommand(quizCmd)

	quizCmd.Flags().String("id", "", "candidate id, prompted for when empty")
}

func newNarrator(cfg *NarrationConfig, logger *zap.Logger) narration.Narrator {
	if cfg == nil || !cfg.Enabled {
		return narration.Nop{}
	}

	cmd, err := narration.NewCommand(cfg.Command)
	if err != nil {
		logger.Warn("narration disabled", zap.Error(err))
		return narration.Nop{}
	}

	return cmd
}

// lineReader reads one line of candidate input. It returns errQuit when input is over.
type lineReader interface {
	ReadLine(label string) (string, error)
}

func newLineReader(f *os.File) lineReader {
	if term.IsTerminal(int(f.Fd())) {
		return promptReader{}
	}
	return &scanReader{scanner: bufio.NewScanner(f)}
}

type promptReader struct{}

func (promptReader) ReadLine(label string) (string, error) {
	prompt := promptui.Prompt{Label: label}

	line, err := prompt.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return "", errQuit
	}

	return line, err
}

type scanReader struct {
	scanner *bufio.Scanner
}

func (r *scanReader) ReadLine(string) (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return r.scanner.Text(), nil
}

type quiz struct {
	registry    *candidates.Registry
	interviewer *interview.Interviewer
	narrator    narration.Narrator
	in          lineReader
	out         io.Writer
	logger      *zap.Logger
}

func (q *quiz) run(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		line, err := q.in.ReadLine("Enter your ID")
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}
		id = strings.TrimSpace(line)
	}

	candidate, ok, err := q.registry.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(q.out, "Invalid ID. Please check your ID and try again.")
		return nil
	}

	jd, err := q.registry.JobDescription(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(q.out, "Welcome, %s!\n\nJob Description:\n%s\n\n", candidate.Name, jd)
	fmt.Fprintf(q.out, "Type your answers, %s to finish.\n", quitCommand)

	session := interview.NewSession(candidate.ID, jd)
	log := q.logger.With(zap.String("candidate_id", candidate.ID))
	log.Info("interview started")

	for {
		line, err := q.in.ReadLine("You")
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			return err
		}

		if strings.TrimSpace(line) == quitCommand {
			break
		}

		reply, next, err := q.interviewer.Advance(ctx, session, line)
		switch {
		case errors.Is(err, common.ErrValidation):
			fmt.Fprintln(q.out, "Please type a message.")
			continue
		case err != nil:
			fmt.Fprintf(q.out, "Error: %v\nYou can send your message again.\n", err)
			continue
		}

		session = next
		fmt.Fprintf(q.out, "AI: %s\n", reply)

		if err := q.narrator.Narrate(ctx, reply); err != nil {
			log.Warn("narration failed", zap.Error(err))
		}
	}

	log.Info("interview finished",
		zap.Int("total_tokens", session.TotalTokens()),
		zap.Int("transcript_length", session.Len()),
	)
	fmt.Fprintf(q.out, "Thank you, %s! Total tokens used: %d\n", candidate.Name, session.TotalTokens())

	return nil
}
