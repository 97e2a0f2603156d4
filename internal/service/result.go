package service

import (
	"context"
	"fmt"
	"sync"

	"starmatch/internal/domain"
	"starmatch/internal/logger"
	"starmatch/internal/port"

	"go.uber.org/zap"
)

// ResultPhase is the state of the result screen.
type ResultPhase string

const (
	ResultEmpty    ResultPhase = "empty"
	ResultPending  ResultPhase = "pending"
	ResultResolved ResultPhase = "resolved"
	ResultFailed   ResultPhase = "failed"
)

const (
	// DownloadFilename is the fixed name of the saved composite.
	DownloadFilename = "star-wars-mashup.jpg"

	msgResultFailed   = "Failed to load mashup image."
	msgDownloadFailed = "Download failed."

	shareTitle           = "My Star Wars Character Match"
	shareFallbackMatch   = "a Star Wars character"
	defaultCharacterText = "A bold hero from a galaxy far, far away."
)

// SharePayload is what gets handed to a native share capability.
type SharePayload struct {
	Title string
	Text  string
	URL   string
}

// Sharer is a native share capability. It may be absent.
type Sharer interface {
	Share(ctx context.Context, payload SharePayload) error
}

// Clipboard receives the link when no native share is available.
type Clipboard interface {
	Copy(ctx context.Context, text string) error
}

// ResultView is an immutable snapshot of the result screen.
type ResultView struct {
	Phase       ResultPhase
	ResultID    string
	Character   string
	Description string
	MashupURL   string
	Message     string
}

// Title is the heading shown above the profile.
func (v ResultView) Title() string {
	if v.Character != "" {
		return "You matched: " + v.Character
	}
	return "Your Match"
}

// DescriptionOrDefault never renders an empty profile.
func (v ResultView) DescriptionOrDefault() string {
	if v.Description != "" {
		return v.Description
	}
	return defaultCharacterText
}

// ResultPresenter reconciles the handed-forward result with a lazy fetch of
// the composite image.
type ResultPresenter struct {
	api      port.ResultAPI
	lifetime Lifetime

	mu      sync.Mutex
	phase   ResultPhase
	result  domain.Handoff
	fetched bool
	message string
}

// NewResultPresenter decides the initial phase from the incoming handoff:
// Resolved when the composite is already known, Pending when only a result
// identifier is, Empty otherwise.
func NewResultPresenter(api port.ResultAPI, incoming domain.Handoff) *ResultPresenter {
	p := &ResultPresenter{api: api, result: incoming}
	switch {
	case incoming.MashupURL != "":
		p.phase = ResultResolved
	case incoming.ResultID != "":
		p.phase = ResultPending
	default:
		p.phase = ResultEmpty
	}
	return p
}

// Load performs the single fetch of a Pending presenter. It is a no-op in
// every other phase and on repeated calls.
func (p *ResultPresenter) Load(ctx context.Context) error {
	p.mu.Lock()
	if p.phase != ResultPending || p.fetched {
		p.mu.Unlock()
		return nil
	}
	p.fetched = true
	resultID := p.result.ResultID
	p.mu.Unlock()

	res, err := p.api.GetMashup(ctx, resultID)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lifetime.Ended() {
		return ErrFlowEnded
	}
	if err != nil {
		logger.Get().Error("Failed to load mashup", zap.Error(err), zap.String("result_id", resultID))
		p.phase = ResultFailed
		p.message = msgResultFailed
		return err
	}
	// Already-known profile fields win over fetched ones.
	p.result.MashupURL = res.ImageURL
	if p.result.Character == "" {
		p.result.Character = res.Character
	}
	if p.result.Description == "" {
		p.result.Description = res.Description
	}
	p.phase = ResultResolved
	return nil
}

// Download fetches the resolved image bytes under the fixed filename.
func (p *ResultPresenter) Download(ctx context.Context) (domain.Image, error) {
	p.mu.Lock()
	url := p.result.MashupURL
	p.mu.Unlock()
	if url == "" {
		return domain.Image{}, domain.NewActionDisabledError("no image to download")
	}

	img, err := p.api.FetchImage(ctx, url)
	if err != nil {
		logger.Get().Warn("Mashup download failed", zap.Error(err), zap.String("url", url))
		p.mu.Lock()
		p.message = msgDownloadFailed
		p.mu.Unlock()
		return domain.Image{}, err
	}
	img.Filename = DownloadFilename
	if img.ContentType == "" {
		img.ContentType = "image/jpeg"
	}
	return img, nil
}

// Share offers the composite through the native sharer when there is one,
// falling back to copying the link (or fallbackURL without a composite).
// Share is best effort: failures are deliberately ignored.
func (p *ResultPresenter) Share(ctx context.Context, sharer Sharer, clipboard Clipboard, fallbackURL string) {
	payload := p.SharePayload()
	if sharer != nil && payload.URL != "" {
		if err := sharer.Share(ctx, payload); err != nil {
			logger.Get().Debug("Native share failed", zap.Error(err))
		}
		return
	}
	if clipboard == nil {
		return
	}
	link := payload.URL
	if link == "" {
		link = fallbackURL
	}
	if err := clipboard.Copy(ctx, link); err != nil {
		logger.Get().Debug("Clipboard copy failed", zap.Error(err))
	}
}

// SharePayload builds the share title, text and link.
func (p *ResultPresenter) SharePayload() SharePayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	match := p.result.Character
	if match == "" {
		match = shareFallbackMatch
	}
	return SharePayload{
		Title: shareTitle,
		Text:  fmt.Sprintf("I matched with %s!", match),
		URL:   p.result.MashupURL,
	}
}

// View snapshots the presenter for rendering.
func (p *ResultPresenter) View() ResultView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ResultView{
		Phase:       p.phase,
		ResultID:    p.result.ResultID,
		Character:   p.result.Character,
		Description: p.result.Description,
		MashupURL:   p.result.MashupURL,
		Message:     p.message,
	}
}

// Unmount ends the presenter's lifetime.
func (p *ResultPresenter) Unmount() {
	p.lifetime.End()
}
