package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/events"
	"timed-quiz-service/internal/transport/console"
)

// NewPlayCmd runs one quiz session on the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		userID   string
		courseID int64
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Take a timed quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			var course *int64
			if cmd.Flags().Changed("course") {
				course = &courseID
			}
			return runPlay(cmd.Context(), *configPath, userID, course)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "student name the score is recorded under")
	cmd.Flags().Int64Var(&courseID, "course", 0, "course ID; omit for questions from every course")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runPlay(ctx context.Context, configPath, userID string, courseID *int64) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg, os.Stderr)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := buildStack(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()
	if st.local != nil {
		go func() { _ = events.LogSessions(ctx, st.local, cfg.Kafka.Topic, log) }()
	}

	var (
		src       *app.ReaderSource
		presenter *console.Presenter
	)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		// Raw mode delivers keystrokes immediately; Ctrl-C arrives as a byte.
		state, err := term.MakeRaw(fd)
		if err != nil {
			return err
		}
		defer term.Restore(fd, state)
		src = app.NewReaderSource(os.Stdin, app.WithEcho(os.Stdout), app.WithInterrupt(cancel))
		presenter = console.NewPresenter(os.Stdout, console.WithRawNewlines())
	} else {
		src = app.NewReaderSource(os.Stdin)
		presenter = console.NewPresenter(os.Stdout)
	}
	defer src.Close()

	session, err := st.service.Begin(ctx, userID, courseID)
	if err != nil {
		return err
	}
	presenter.Welcome(userID, session.Total(), session.Config().TimePerQuestion)

	summary, err := st.service.Run(ctx, session, src, presenter)
	switch {
	case errors.Is(err, domain.ErrSessionAborted):
		presenter.Aborted(len(session.Results()), session.Total())
		return nil
	case err != nil:
		return err
	}
	presenter.Summary(summary)
	return nil
}
