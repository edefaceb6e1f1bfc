// Package browser drives the target application inside a Chromium instance.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"qte/internal/domain"
	"qte/internal/events"
	"qte/internal/parser"
)

// Mode selects how the browser is shown
type Mode int

const (
	// ModeHeadless runs without a window
	ModeHeadless Mode = iota
	// ModeDebug opens a visible window with devtools
	ModeDebug
)

func (m Mode) String() string {
	if m == ModeDebug {
		return "debug"
	}
	return "headless"
}

// Options configures a browser session
type Options struct {
	ExecutablePath    string
	Pages             int
	NavigationTimeout time.Duration
}

var launchFlags = []flags.Flag{
	"allow-file-access-from-files",
	"ignore-certificate-errors",
	"allow-sandbox-debugging",
}

// Session owns one browser process and its configured pages
type Session struct {
	mode    Mode
	opts    Options
	channel *events.Channel[domain.Event]
	parser  parser.Parser
	logger  *slog.Logger

	launcher *launcher.Launcher
	browser  *rod.Browser
	ctx      context.Context
	cancel   context.CancelFunc

	mu    sync.Mutex
	pages map[int]*rod.Page
}

func newSession(mode Mode, opts Options, channel *events.Channel[domain.Event], logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Pages <= 0 {
		opts.Pages = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		mode:    mode,
		opts:    opts,
		channel: channel,
		parser:  parser.NewQUnitParser(),
		logger:  logger.With("component", "browser", "mode", mode.String()),
		ctx:     ctx,
		cancel:  cancel,
		pages:   make(map[int]*rod.Page),
	}
}

// Launch starts a browser. Failures wrap domain.ErrLaunchFailure and are not retried.
func Launch(ctx context.Context, opts Options, mode Mode, channel *events.Channel[domain.Event], logger *slog.Logger) (*Session, error) {
	s := newSession(mode, opts, channel, logger)

	l := launcher.New().
		Headless(mode == ModeHeadless).
		Devtools(mode == ModeDebug)
	if opts.ExecutablePath != "" {
		l = l.Bin(opts.ExecutablePath)
	}
	for _, f := range launchFlags {
		l = l.Set(f)
	}

	controlURL, err := l.Launch()
	if err != nil {
		s.cancel()
		return nil, fmt.Errorf("%w: %w", domain.ErrLaunchFailure, err)
	}

	b := rod.New().ControlURL(controlURL).Context(s.ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		s.cancel()
		return nil, fmt.Errorf("%w: connect: %w", domain.ErrLaunchFailure, err)
	}

	s.launcher = l
	s.browser = b
	s.logger.Info("browser launched", "control_url", controlURL)

	if err := ctx.Err(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Mode returns the mode the session was launched in
func (s *Session) Mode() Mode {
	return s.mode
}

// Configure opens the page for slot index and installs the lifecycle bridges.
// Calling it again for a configured slot is a no-op.
func (s *Session) Configure(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pages[index]; ok {
		return nil
	}

	page, err := s.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("open page %d: %w", index, err)
	}
	page = page.Context(s.ctx)

	binding := BindingName(index)
	if err := (proto.RuntimeAddBinding{Name: binding}).Call(page); err != nil {
		_ = page.Close()
		return fmt.Errorf("add %s binding: %w", binding, err)
	}

	if _, err := page.EvalOnNewDocument(HookScript(index)); err != nil {
		_ = page.Close()
		return fmt.Errorf("install hook script: %w", err)
	}

	// Both handlers run on the one goroutine EachEvent starts, so bridge
	// calls are published in the order the page made them.
	go page.EachEvent(
		func(ev *proto.RuntimeBindingCalled) {
			if ev.Name == binding {
				s.relay(ev.Payload)
			}
		},
		func(ev *proto.RuntimeConsoleAPICalled) {
			s.logger.Debug("page console", "slot", index, "type", string(ev.Type), "text", consoleText(ev.Args))
		},
	)()

	s.pages[index] = page
	s.logger.Debug("page configured", "slot", index)
	return nil
}

// relay handles one call of a slot's binding
func (s *Session) relay(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		s.logger.Warn("bridge envelope rejected", "error", err)
		s.channel.Publish(domain.BridgeFailure{Err: fmt.Errorf("%w: envelope: %v", domain.ErrBridgeDeserialization, err)})
		return
	}
	s.dispatch(env.Stage, env.Details)
}

// dispatch decodes a payload and publishes it. Undecodable payloads are
// published as BridgeFailure so the active run can reject.
func (s *Session) dispatch(stage domain.Stage, raw []byte) {
	ev, err := s.parser.ParseEvent(stage, raw)
	if err != nil {
		s.logger.Warn("bridge payload rejected", "stage", stage, "error", err)
		s.channel.Publish(domain.BridgeFailure{From: stage, Err: err})
		return
	}

	switch ev := ev.(type) {
	case domain.Begin:
		s.logger.Debug("run begin", "total_tests", ev.TotalTests)
	case domain.Log:
		s.logger.Debug("assertion", "test", ev.Name, "result", ev.Result, "message", ev.Message)
	case domain.ModuleStart:
		s.logger.Debug("now running", "module", ev.Name)
	case domain.ModuleDone:
		s.logger.Debug("finished running", "module", ev.Name, "failed", ev.Failed, "total", ev.Total)
	case domain.TestStart:
		s.logger.Debug("now running", "module", ev.Module, "test", ev.Name)
	case domain.TestDone:
		s.logger.Debug("test done", "test", ev.Name, "failed", ev.Failed, "passed", ev.Passed)
	case domain.Done:
		s.logger.Debug("run done", "total", ev.Total, "failed", ev.Failed, "passed", ev.Passed, "runtime_ms", ev.Runtime)
	}
	s.channel.Publish(ev)
}

// Navigate points slot 0 at url. It returns once navigation has started;
// results arrive through the bridges. An unreachable application yields
// domain.ErrNetworkUnavailable.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.Configure(ctx, 0); err != nil {
		return err
	}

	if s.mode == ModeDebug {
		s.pruneTabs()
	}

	s.mu.Lock()
	page := s.pages[0]
	s.mu.Unlock()

	p := page.Context(ctx)
	if s.opts.NavigationTimeout > 0 {
		p = p.Timeout(s.opts.NavigationTimeout)
	}
	if err := p.Navigate(url); err != nil {
		return classifyNavigation(err)
	}
	return nil
}

// EvaluateAt loads url in a scratch page and evaluates js there
func (s *Session) EvaluateAt(ctx context.Context, url, js string) ([]byte, error) {
	page, err := s.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open scratch page: %w", err)
	}
	defer func() { _ = page.Context(s.ctx).Close() }()

	if err := page.Navigate(url); err != nil {
		return nil, classifyNavigation(err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for load: %w", err)
	}

	res, err := page.Eval(js)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	return res.Value.MarshalJSON()
}

// Close tears down every page and the browser process
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	s.pages = make(map[int]*rod.Page)

	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher = nil
	}
	return err
}

// pruneTabs closes pages that do not belong to a configured slot, such as
// tabs the user opened in the visible window
func (s *Session) pruneTabs() {
	pages, err := s.browser.Pages()
	if err != nil {
		return
	}

	s.mu.Lock()
	keep := make(map[proto.TargetTargetID]bool, len(s.pages))
	for _, p := range s.pages {
		keep[p.TargetID] = true
	}
	s.mu.Unlock()

	if len(pages) <= s.opts.Pages {
		return
	}
	for _, p := range pages {
		if !keep[p.TargetID] {
			s.logger.Debug("closing surplus tab", "target", p.TargetID)
			_ = p.Close()
		}
	}
}

func classifyNavigation(err error) error {
	var navErr *rod.NavigationError
	if errors.As(err, &navErr) && isNetworkReason(navErr.Reason) {
		return fmt.Errorf("%w: %s", domain.ErrNetworkUnavailable, navErr.Reason)
	}
	return fmt.Errorf("navigate: %w", err)
}

func isNetworkReason(reason string) bool {
	for _, r := range []string{
		"ERR_CONNECTION_REFUSED",
		"ERR_CONNECTION_RESET",
		"ERR_NAME_NOT_RESOLVED",
		"ERR_ADDRESS_UNREACHABLE",
		"ERR_INTERNET_DISCONNECTED",
		"ERR_CONNECTION_TIMED_OUT",
	} {
		if strings.Contains(reason, r) {
			return true
		}
	}
	return false
}

func consoleText(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == nil {
			continue
		}
		if !a.Value.Nil() {
			parts = append(parts, a.Value.String())
			continue
		}
		if a.Description != "" {
			parts = append(parts, a.Description)
		}
	}
	return strings.Join(parts, " ")
}
