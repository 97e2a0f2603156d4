package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"starmatch/internal/apiclient"
	"starmatch/internal/domain"
	"starmatch/internal/logger"
	"starmatch/internal/service"
	"starmatch/internal/session"
	"starmatch/internal/util"
	"starmatch/internal/validation"

	"github.com/spf13/cobra"
)

const (
	cmdBack   = ":back"
	cmdSubmit = ":submit"
	cmdQuit   = ":quit"
	cmdCamera = ":camera"
)

var errQuit = errors.New("quit")

// NewPlayCmd builds the subcommand that runs the quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Take the quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			client := apiclient.New(cfg.BackendOrigin(), cfg.Backend.Timeout, cfg.Backend.Auth)
			device := newCameraDevice(cfg.Camera, cfg.Backend.Timeout)
			sess := session.New(util.NewULID(), newFactory(client, device, cfg.Camera.JPEGQuality))
			defer sess.Close()

			p := newPlayer(cmd.InOrStdin(), cmd.OutOrStdout(), sess)
			err = p.run(cmd.Context())
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		},
	}
}

// player walks one session through quiz, selfie and result on a line
// oriented terminal.
type player struct {
	in        *bufio.Scanner
	out       io.Writer
	sess      *session.Session
	validator *validation.Validator
	readFile  func(string) ([]byte, error)
	writeFile func(string, []byte) error
}

func newPlayer(in io.Reader, out io.Writer, sess *session.Session) *player {
	return &player{
		in:        bufio.NewScanner(in),
		out:       out,
		sess:      sess,
		validator: validation.NewValidator(),
		readFile:  os.ReadFile,
		writeFile: func(path string, data []byte) error { return os.WriteFile(path, data, 0o644) },
	}
}

func (p *player) run(ctx context.Context) error {
	match, err := p.playQuiz(ctx)
	if err != nil {
		return err
	}
	composite, err := p.playSelfie(ctx, match)
	if err != nil {
		return err
	}
	return p.showResult(ctx, composite)
}

func (p *player) playQuiz(ctx context.Context) (domain.Handoff, error) {
	flow := p.sess.Quiz(true)
	if err := flow.Load(ctx); err != nil {
		return domain.Handoff{}, fmt.Errorf("%s: %w", flow.View().Message, err)
	}
	if v := flow.View(); v.Phase == service.QuizEmpty {
		return domain.Handoff{}, errors.New(v.Message)
	}

	for {
		v := flow.View()
		p.printQuestion(v)

		line, err := p.prompt("Answer (option id), " + cmdBack + ", " + cmdSubmit + " or " + cmdQuit + ": ")
		if err != nil {
			return domain.Handoff{}, err
		}
		switch line {
		case cmdQuit:
			return domain.Handoff{}, errQuit
		case cmdBack:
			if !flow.Back() {
				p.printf("Already at the first question.\n")
			}
			continue
		case cmdSubmit:
			if !v.CanSubmit {
				p.printf("Answer every question before submitting.\n")
				continue
			}
			match, err := flow.Submit(ctx)
			if err != nil {
				p.printf("%s\n", flow.View().Message)
				continue
			}
			return match, nil
		}

		if err := flow.Select(v.Current.ID, line); err != nil {
			p.printf("Unknown option %q.\n", line)
			continue
		}
		if !flow.Next() && flow.View().CanSubmit {
			p.printf("All questions answered. Type %s to see your match.\n", cmdSubmit)
		}
	}
}

func (p *player) printQuestion(v service.QuizView) {
	p.printf("\nQuestion %d of %d (%d%% answered)\n", v.Index+1, v.Total, v.Percent)
	p.printf("%s\n", v.Current.Text)
	for _, opt := range v.Current.Options {
		mark := " "
		if opt.ID == v.Selected {
			mark = "*"
		}
		p.printf(" %s [%s] %s\n", mark, opt.ID, opt.Text)
	}
}

func (p *player) playSelfie(ctx context.Context, match domain.Handoff) (domain.Handoff, error) {
	p.printf("\nYou matched: %s\n", match.Character)
	if match.Description != "" {
		p.printf("%s\n", match.Description)
	}

	capture := p.sess.Upload("", func() domain.Handoff { return match })
	for {
		line, err := p.prompt("Selfie image path, " + cmdCamera + ", blank to skip or " + cmdQuit + ": ")
		if err != nil {
			return domain.Handoff{}, err
		}
		switch line {
		case cmdQuit:
			return domain.Handoff{}, errQuit
		case "":
			return match, nil
		case cmdCamera:
			if err := capture.StartCamera(ctx); err != nil {
				p.printf("%s\n", capture.View().Message)
				continue
			}
			err := capture.Capture(ctx)
			capture.StopCamera()
			if err != nil {
				p.printf("%s\n", capture.View().Message)
				continue
			}
		default:
			if err := p.selectFile(capture, line); err != nil {
				p.printf("Can't use %s: %v\n", line, err)
				continue
			}
		}

		p.printf("Uploading...\n")
		composite, err := capture.Upload(ctx)
		if err != nil {
			p.printf("%s\n", capture.View().Message)
			continue
		}
		return composite, nil
	}
}

func (p *player) selectFile(capture *service.CaptureController, path string) error {
	data, err := p.readFile(path)
	if err != nil {
		return err
	}
	contentType := http.DetectContentType(data)
	if errs := p.validator.ValidateSelfie(filepath.Base(path), contentType, int64(len(data))); len(errs) > 0 {
		return errs
	}
	capture.SelectFile(filepath.Base(path), contentType, data)
	return nil
}

func (p *player) showResult(ctx context.Context, composite domain.Handoff) error {
	presenter := p.sess.Result("", func() domain.Handoff { return composite })
	// A failed fetch is reported through the view.
	_ = presenter.Load(ctx)

	v := presenter.View()
	p.printf("\n%s\n%s\n", v.Title(), v.DescriptionOrDefault())
	switch v.Phase {
	case service.ResultFailed:
		p.printf("%s\n", v.Message)
		return nil
	case service.ResultEmpty:
		return nil
	}
	if v.MashupURL == "" {
		return nil
	}
	p.printf("Mashup: %s\n", v.MashupURL)

	line, err := p.prompt("Save the mashup to (blank for " + service.DownloadFilename + ", " + cmdQuit + " to skip): ")
	if err != nil || line == cmdQuit {
		return nil
	}
	if line == "" {
		line = service.DownloadFilename
	}
	img, err := presenter.Download(ctx)
	if err != nil {
		p.printf("%s\n", presenter.View().Message)
		return nil
	}
	if err := p.writeFile(line, img.Data); err != nil {
		return fmt.Errorf("failed to save mashup: %w", err)
	}
	p.printf("Saved %s\n", line)
	return nil
}

// prompt reads one trimmed line. End of input counts as quitting.
func (p *player) prompt(label string) (string, error) {
	p.printf("%s", label)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func (p *player) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}
